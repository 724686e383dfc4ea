package models

import (
	"time"
)

const (
	// MaxLookupInputLength bounds the stored lookup input
	MaxLookupInputLength = 500
	// MaxLookupResultLength bounds the stored lookup result
	MaxLookupResultLength = 2000
)

// LookupRecord is an append-only audit entry for a proxied lookup
type LookupRecord struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	APIType   string    `db:"api_type"`
	InputData string    `db:"input_data"`
	Result    string    `db:"result"`
	LookupAt  time.Time `db:"lookup_at"`
}
