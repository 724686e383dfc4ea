package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"creditbot/models"
)

// MaxMessageLength is the Telegram limit on message text, in characters
const MaxMessageLength = 4096

const (
	DateFormat     = "02-01-2006"
	DateTimeFormat = "02-01-2006 15:04"
	ShortFormat    = "02/01 15:04"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape makes arbitrary text safe inside an HTML-mode message
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Handle renders an optional username as @name, or N/A
func Handle(username *string) string {
	if username == nil || *username == "" {
		return "N/A"
	}
	return "@" + Escape(*username)
}

// FormatCredits renders a balance, or Unlimited for privileged users
func FormatCredits(credits int64, privileged bool) string {
	if privileged {
		return "♾️ Unlimited"
	}
	return strconv.FormatInt(credits, 10)
}

// FormatCodeExpiry describes the remaining lifetime of a code at now
func FormatCodeExpiry(code *models.RedeemCode, now time.Time) string {
	if code.ExpiryMinutes == nil {
		return "♾️ No expiry"
	}
	expiresAt := code.ExpiresAt()
	if expiresAt == nil {
		return "⏰ Expiry N/A"
	}
	if !expiresAt.After(now) {
		return "⌛️ Expired"
	}
	left := expiresAt.Sub(now)
	return fmt.Sprintf("⏳ %dh %dm left", int(left.Hours()), int(left.Minutes())%60)
}

// FormatCodeLine renders a code as a one-line summary
func FormatCodeLine(code *models.RedeemCode) string {
	return fmt.Sprintf("🎟 <code>%s</code> - %d credits (%d/%d, %d left)",
		Escape(code.Code), code.Amount, code.CurrentUses, code.MaxUses, code.UsesRemaining())
}

// FormatUserLine renders a user as a list entry
func FormatUserLine(user *models.User) string {
	return fmt.Sprintf("• <code>%d</code> - %s - %d credits", user.UserID, Handle(user.Username), user.Credits)
}

// ParseUserID parses a numeric platform id
func ParseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

// ParsePositiveInt parses an optional count argument, falling back when absent or invalid
func ParsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// SplitMessage breaks text into chunks under limit characters, preferring line boundaries
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen > limit {
			flush()
		}
		for lineLen > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	flush()
	return chunks
}

// TruncateRunes cuts s to at most n characters
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
