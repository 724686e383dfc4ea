package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"creditbot/models"
)

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		input    string
		expected *int
	}{
		{"1h30m", intPtr(90)},
		{"2h", intPtr(120)},
		{"45", intPtr(45)},
		{"30m", intPtr(30)},
		{"1d", intPtr(1440)},
		{"1d2h", intPtr(1560)},
		{"2H15M", intPtr(135)},
		{"  15m  ", intPtr(15)},
		{"", nil},
		{"none", nil},
		{"NONE", nil},
		{"0h0m", nil},
		{"0", nil},
		{"-5", nil},
		{"soon", nil},
		{"1 h", nil},
		{"+5", nil},
		{"5 minutes", nil},
		{"1d 2h", intPtr(1560)},
		{"200000d", intPtr(288000000)},
		{"3000000000", intPtr(models.MaxExpiryMinutes)},
		{"9999999999999999999999d", intPtr(models.MaxExpiryMinutes)},
		{"1491309d1h", intPtr(models.MaxExpiryMinutes)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseExpiry(tt.input))
		})
	}
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "No expiry", FormatExpiry(nil))
	assert.Equal(t, "No expiry", FormatExpiry(intPtr(0)))
	assert.Equal(t, "45 minutes", FormatExpiry(intPtr(45)))
	assert.Equal(t, "1h 30m", FormatExpiry(intPtr(90)))
	assert.Equal(t, "24h 0m", FormatExpiry(intPtr(1440)))
}

func intPtr(v int) *int {
	return &v
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2024, 3, 15, 17, 42, 9, 500, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}
