package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestRedeemCode_ExpiresAt(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		code    RedeemCode
		want    time.Time
		noLimit bool
	}{
		{"no expiry", RedeemCode{CreatedAt: &created}, time.Time{}, true},
		{"no creation time", RedeemCode{ExpiryMinutes: intPtr(10)}, time.Time{}, true},
		{"minutes", RedeemCode{ExpiryMinutes: intPtr(90), CreatedAt: &created}, created.Add(90 * time.Minute), false},
		{"days and minutes", RedeemCode{ExpiryMinutes: intPtr(2*24*60 + 5), CreatedAt: &created}, created.Add(48*time.Hour + 5*time.Minute), false},
		{"beyond duration range", RedeemCode{ExpiryMinutes: intPtr(288000000), CreatedAt: &created}, created.AddDate(0, 0, 200000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.code.ExpiresAt()
			if tt.noLimit {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s, got %s", tt.want, *got)
		})
	}
}

func TestRedeemCode_IsExpired(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	short := RedeemCode{ExpiryMinutes: intPtr(10), CreatedAt: &created}
	assert.False(t, short.IsExpired(created.Add(10*time.Minute)))
	assert.True(t, short.IsExpired(created.Add(10*time.Minute+time.Second)))

	long := RedeemCode{ExpiryMinutes: intPtr(MaxExpiryMinutes), CreatedAt: &created}
	assert.False(t, long.IsExpired(created.Add(time.Second)))
	assert.False(t, long.IsExpired(created.AddDate(1000, 0, 0)))

	forever := RedeemCode{CreatedAt: &created}
	assert.False(t, forever.IsExpired(created.AddDate(100, 0, 0)))
}

func TestRedeemCode_UsesRemaining(t *testing.T) {
	assert.Equal(t, 3, (&RedeemCode{MaxUses: 5, CurrentUses: 2}).UsesRemaining())
	assert.Equal(t, 0, (&RedeemCode{MaxUses: 5, CurrentUses: 5}).UsesRemaining())
	assert.Equal(t, 0, (&RedeemCode{MaxUses: 5, CurrentUses: 7}).UsesRemaining())
}
