package models

import (
	"time"
)

// LedgerStats summarises the whole ledger
type LedgerStats struct {
	TotalUsers         int64
	UsersWithCredits   int64
	CreditsOutstanding int64
	CreditsDistributed int64
	TotalLookups       int64
	BannedUsers        int64
	ActiveCodes        int64
}

// UserStats describes one user's referral and redemption history
type UserStats struct {
	User            *User
	Referrals       int64
	CodesClaimed    int64
	CreditsFromCode int64
	Lookups         int64
}

// ReferrerEntry ranks users by how many people they referred
type ReferrerEntry struct {
	UserID    int64
	Username  *string
	Referrals int64
}

// DailyCount is the number of events on one calendar day
type DailyCount struct {
	Day   time.Time
	Count int64
}

// LookupCategoryCount is the number of lookups per category
type LookupCategoryCount struct {
	APIType string
	Count   int64
}

// CodeUsage describes a code together with everyone who claimed it
type CodeUsage struct {
	Code        *RedeemCode
	Redemptions []*RedemptionDetail
}

// TableCounts reports row counts for the health command
type TableCounts struct {
	Users       int64
	Codes       int64
	Redemptions int64
	Lookups     int64
	Admins      int64
}
