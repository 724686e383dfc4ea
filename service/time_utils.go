package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"creditbot/models"
)

var (
	expiryDaysPattern    = regexp.MustCompile(`(?i)(\d+)d`)
	expiryHoursPattern   = regexp.MustCompile(`(?i)(\d+)h`)
	expiryMinutesPattern = regexp.MustCompile(`(?i)(\d+)m`)
	expiryBarePattern    = regexp.MustCompile(`^\d+$`)
)

// ParseExpiry converts a compact duration such as "1h30m", "2d" or "45" into minutes.
// Each unit is matched independently; a bare integer means minutes. Empty input,
// "none", unparseable input and non-positive totals all yield nil (no expiry).
// Totals beyond models.MaxExpiryMinutes are clamped to it.
func ParseExpiry(s string) *int {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return nil
	}

	var total int64
	matched := false
	for _, unit := range []struct {
		pattern *regexp.Regexp
		factor  int64
	}{
		{expiryDaysPattern, 24 * 60},
		{expiryHoursPattern, 60},
		{expiryMinutesPattern, 1},
	} {
		m := unit.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		total = addExpiry(total, m[1], unit.factor)
		matched = true
	}

	if !matched {
		if !expiryBarePattern.MatchString(s) {
			return nil
		}
		total = addExpiry(0, s, 1)
	}

	if total <= 0 {
		return nil
	}
	minutes := int(total)
	return &minutes
}

// addExpiry adds digits*factor to total, saturating at models.MaxExpiryMinutes
func addExpiry(total int64, digits string, factor int64) int64 {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > models.MaxExpiryMinutes/factor {
		return models.MaxExpiryMinutes
	}
	return min(total+n*factor, models.MaxExpiryMinutes)
}

// FormatExpiry renders an expiry window for operators
func FormatExpiry(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return "No expiry"
	}
	if *minutes < 60 {
		return fmt.Sprintf("%d minutes", *minutes)
	}
	return fmt.Sprintf("%dh %dm", *minutes/60, *minutes%60)
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
