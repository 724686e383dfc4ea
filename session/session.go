package session

import (
	"context"
	"time"
)

// State is the conversation state of one user
type State string

const (
	StateIdle                   State = "idle"
	StateAwaitingRedeemCode     State = "awaiting_redeem_code"
	StateAwaitingLookupInput    State = "awaiting_lookup_input"
	StateAwaitingCustomCode     State = "awaiting_custom_code"
	StateAwaitingBulkGift       State = "awaiting_bulk_gift"
	StateAwaitingDeactivateCode State = "awaiting_deactivate_code"
)

// DefaultTTL is how long an untouched session survives
const DefaultTTL = 30 * time.Minute

// Session is the per-user conversation state. Category is set only while
// awaiting lookup input.
type Session struct {
	State     State     `json:"state"`
	Category  string    `json:"category,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Idle returns the empty session
func Idle() Session {
	return Session{State: StateIdle}
}

// IsIdle reports whether the user is not in the middle of a flow
func (s Session) IsIdle() bool {
	return s.State == "" || s.State == StateIdle
}

// Store keeps sessions keyed by user id. Missing and expired sessions read as idle.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Set(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
}
