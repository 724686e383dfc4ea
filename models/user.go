package models

import (
	"time"
)

// User represents a bot user with a prepaid credit balance
type User struct {
	UserID      int64     `db:"user_id"`
	Username    *string   `db:"username"`
	Credits     int64     `db:"credits"`
	TotalEarned int64     `db:"total_earned"` // Lifetime sum of positive credit deltas
	JoinedAt    time.Time `db:"joined_at"`
	ReferrerID  *int64    `db:"referrer_id"`
	IsBanned    bool      `db:"is_banned"`
	LastActive  time.Time `db:"last_active"`
}

// DisplayName returns @username when known, otherwise the numeric id
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}
	return formatID(u.UserID)
}

// HasCredits reports whether the user can pay for at least one lookup
func (u *User) HasCredits() bool {
	return u.Credits >= 1
}
