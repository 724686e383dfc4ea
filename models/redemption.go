package models

import (
	"time"
)

// Redemption records that a user claimed a code
type Redemption struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Code      string    `db:"code"`
	ClaimedAt time.Time `db:"claimed_at"`
}

// RedemptionDetail joins a redemption with the claiming user's name
type RedemptionDetail struct {
	Redemption
	Username *string `db:"username"`
}

// RedeemOutcome is the named result of a redemption attempt
type RedeemOutcome string

const (
	RedeemSuccess        RedeemOutcome = "success"
	RedeemUserNotFound   RedeemOutcome = "user_not_found"
	RedeemAlreadyClaimed RedeemOutcome = "already_claimed"
	RedeemInvalid        RedeemOutcome = "invalid"
	RedeemInactive       RedeemOutcome = "inactive"
	RedeemLimitReached   RedeemOutcome = "limit_reached"
	RedeemExpired        RedeemOutcome = "expired"
	RedeemError          RedeemOutcome = "error"
)

// RedeemResult is the outcome of a redemption. Amount is set only on success.
type RedeemResult struct {
	Outcome RedeemOutcome
	Amount  int64
}

// Succeeded reports whether credits were granted
func (r RedeemResult) Succeeded() bool {
	return r.Outcome == RedeemSuccess
}
