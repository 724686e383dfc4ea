package common

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"creditbot/models"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", Escape("a <b> & c"))
	assert.Equal(t, "plain", Escape("plain"))
}

func TestHandle(t *testing.T) {
	name := "alice"
	empty := ""
	assert.Equal(t, "@alice", Handle(&name))
	assert.Equal(t, "N/A", Handle(&empty))
	assert.Equal(t, "N/A", Handle(nil))
}

func TestFormatCodeLine(t *testing.T) {
	line := FormatCodeLine(&models.RedeemCode{Code: "A&B", Amount: 25, MaxUses: 5, CurrentUses: 2})
	assert.Equal(t, "🎟 <code>A&amp;B</code> - 25 credits (2/5, 3 left)", line)

	exhausted := FormatCodeLine(&models.RedeemCode{Code: "DONE", Amount: 5, MaxUses: 1, CurrentUses: 1})
	assert.Contains(t, exhausted, "(1/1, 0 left)")
}

func TestFormatCredits(t *testing.T) {
	assert.Equal(t, "12", FormatCredits(12, false))
	assert.Equal(t, "♾️ Unlimited", FormatCredits(12, true))
}

func TestFormatCodeExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-30 * time.Minute)
	ninety := 90
	ten := 10

	tests := []struct {
		name     string
		code     *models.RedeemCode
		expected string
	}{
		{"no expiry", &models.RedeemCode{CreatedAt: &created}, "♾️ No expiry"},
		{"legacy row", &models.RedeemCode{ExpiryMinutes: &ninety}, "⏰ Expiry N/A"},
		{"running", &models.RedeemCode{ExpiryMinutes: &ninety, CreatedAt: &created}, "⏳ 1h 0m left"},
		{"elapsed", &models.RedeemCode{ExpiryMinutes: &ten, CreatedAt: &created}, "⌛️ Expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCodeExpiry(tt.code, now))
		})
	}
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID(" 12345 ")
	assert.NoError(t, err)
	assert.Equal(t, int64(12345), id)

	_, err = ParseUserID("abc")
	assert.Error(t, err)
}

func TestParsePositiveInt(t *testing.T) {
	assert.Equal(t, 14, ParsePositiveInt("14", 7))
	assert.Equal(t, 7, ParsePositiveInt("", 7))
	assert.Equal(t, 7, ParsePositiveInt("-3", 7))
	assert.Equal(t, 7, ParsePositiveInt("x", 7))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	text := "aaaa\nbbbb\ncccc\n"
	chunks := SplitMessage(text, 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))

	long := strings.Repeat("x", 25)
	chunks = SplitMessage(long, 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", TruncateRunes("héllo", 4))
	assert.Equal(t, "hi", TruncateRunes("hi", 4))
}

func TestMainMenu(t *testing.T) {
	markup := MainMenu([]string{"email", "num", "custom"})
	rows := markup.InlineKeyboard
	assert.Len(t, rows, 4)

	assert.Len(t, rows[0], 2)
	assert.Equal(t, "📧 Email", rows[0][0].Text)
	assert.Equal(t, "api_email", *rows[0][0].CallbackData)
	assert.Equal(t, "api_num", *rows[0][1].CallbackData)

	assert.Len(t, rows[1], 1)
	assert.Equal(t, "🔍 CUSTOM", rows[1][0].Text)

	assert.Equal(t, CallbackRedeem, *rows[2][0].CallbackData)
	assert.Equal(t, CallbackProfile, *rows[3][0].CallbackData)
}

func TestJoinKeyboard(t *testing.T) {
	markup := JoinKeyboard([]string{"https://t.me/a", "https://t.me/b"})
	rows := markup.InlineKeyboard
	assert.Len(t, rows, 3)
	assert.Equal(t, "https://t.me/b", *rows[1][0].URL)
	assert.Equal(t, CallbackCheckJoin, *rows[2][0].CallbackData)
}
