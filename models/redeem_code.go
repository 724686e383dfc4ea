package models

import (
	"math"
	"strconv"
	"time"
)

// MaxExpiryMinutes is the longest expiry the expiry_minutes INTEGER column holds
const MaxExpiryMinutes = math.MaxInt32

// RedeemCode is a promotional code that grants credits a limited number of times
type RedeemCode struct {
	Code          string     `db:"code"`
	Amount        int64      `db:"amount"`
	MaxUses       int        `db:"max_uses"`
	CurrentUses   int        `db:"current_uses"`
	ExpiryMinutes *int       `db:"expiry_minutes"` // nil means the code never expires
	CreatedAt     *time.Time `db:"created_at"`     // nil only for legacy rows
	IsActive      bool       `db:"is_active"`
}

// ExpiresAt returns the instant the code stops being redeemable, or nil
// when it has no expiry or no creation timestamp
func (c *RedeemCode) ExpiresAt() *time.Time {
	if c.ExpiryMinutes == nil || c.CreatedAt == nil {
		return nil
	}
	// time.Duration overflows past ~292 years, so whole days go through AddDate
	minutes := *c.ExpiryMinutes
	at := c.CreatedAt.UTC().
		AddDate(0, 0, minutes/(24*60)).
		Add(time.Duration(minutes%(24*60)) * time.Minute)
	return &at
}

// IsExpired reports whether the expiry window has elapsed at now
func (c *RedeemCode) IsExpired(now time.Time) bool {
	expiresAt := c.ExpiresAt()
	return expiresAt != nil && now.After(*expiresAt)
}

// UsesRemaining returns how many more redemptions the code allows
func (c *RedeemCode) UsesRemaining() int {
	if c.CurrentUses >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.CurrentUses
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
