package service

import (
	"context"
	"time"

	"creditbot/events"
	"creditbot/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by platform id, nil when absent
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// GetByIDForUpdate retrieves a user and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, userID int64) (*models.User, error)

	// Create inserts a new user. Returns nil when the id already exists.
	Create(ctx context.Context, userID int64, username *string, referrerID *int64, initialCredits int64) (*models.User, error)

	// EnsureExists inserts a placeholder row for the id if none exists
	EnsureExists(ctx context.Context, userID int64) error

	// AddCredits applies delta in a single statement. Positive deltas also raise
	// total_earned. Returns false when the user does not exist.
	AddCredits(ctx context.Context, userID int64, delta int64) (bool, error)

	// AddBonus raises credits and total_earned without touching last_active.
	// Returns false when the user does not exist.
	AddBonus(ctx context.Context, userID int64, amount int64) (bool, error)

	// SetCredits overwrites the balance
	SetCredits(ctx context.Context, userID int64, credits int64) (bool, error)

	// SetBanned toggles the ban flag
	SetBanned(ctx context.Context, userID int64, banned bool) (bool, error)

	// Touch refreshes last_active
	Touch(ctx context.Context, userID int64) error

	// Delete removes the user; redemptions and lookups cascade
	Delete(ctx context.Context, userID int64) (bool, error)
}

// RedeemCodeRepository defines the interface for promotional code access
type RedeemCodeRepository interface {
	// Create inserts a code. Returns false when the code already exists.
	Create(ctx context.Context, code *models.RedeemCode) (bool, error)

	// Get retrieves a code, nil when absent
	Get(ctx context.Context, code string) (*models.RedeemCode, error)

	// GetForUpdate retrieves a code and locks the row until the transaction ends
	GetForUpdate(ctx context.Context, code string) (*models.RedeemCode, error)

	// IncrementUses bumps current_uses by one
	IncrementUses(ctx context.Context, code string) error

	// Deactivate marks the code inactive
	Deactivate(ctx context.Context, code string) (bool, error)

	// Delete removes the code; redemptions cascade
	Delete(ctx context.Context, code string) (bool, error)

	// DeactivateExpired flips every active code whose expiry elapsed before now
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)

	// ListExpired returns active codes whose expiry elapsed before now
	ListExpired(ctx context.Context, now time.Time) ([]*models.RedeemCode, error)

	// List returns codes, optionally filtered by active flag, newest first
	List(ctx context.Context, active *bool) ([]*models.RedeemCode, error)
}

// RedemptionRepository defines the interface for the redemption log
type RedemptionRepository interface {
	// Exists reports whether the user already claimed the code
	Exists(ctx context.Context, userID int64, code string) (bool, error)

	// Create records a claim. Returns ErrDuplicateRedemption on a (user, code) collision.
	Create(ctx context.Context, userID int64, code string, claimedAt time.Time) error

	// ListByCode returns every claim of the code
	ListByCode(ctx context.Context, code string) ([]*models.RedemptionDetail, error)
}

// LookupRepository defines the interface for the lookup audit log
type LookupRepository interface {
	// Create appends a lookup record
	Create(ctx context.Context, record *models.LookupRecord) error

	// ListByUser returns a user's most recent lookups
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LookupRecord, error)

	// CountByCategory returns lookup counts per category, largest first
	CountByCategory(ctx context.Context) ([]*models.LookupCategoryCount, error)
}

// AdminRepository defines the interface for the operator allow-list
type AdminRepository interface {
	// Get retrieves an admin entry, nil when absent
	Get(ctx context.Context, userID int64) (*models.Admin, error)

	// Create inserts an admin. Returns false when the user is already an admin.
	Create(ctx context.Context, admin *models.Admin) (bool, error)

	// Upsert inserts or refreshes an admin entry
	Upsert(ctx context.Context, admin *models.Admin) error

	// Delete removes an admin entry
	Delete(ctx context.Context, userID int64) (bool, error)

	// List returns every admin, newest first
	List(ctx context.Context) ([]*models.Admin, error)
}

// ReportRepository defines read-only aggregate queries
type ReportRepository interface {
	Stats(ctx context.Context) (*models.LedgerStats, error)
	UserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.User, error)
	TopReferrers(ctx context.Context, limit int) ([]*models.ReferrerEntry, error)
	RecentUsers(ctx context.Context, limit int) ([]*models.User, error)
	UsersJoinedBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
	DailySignups(ctx context.Context, since time.Time) ([]*models.DailyCount, error)
	UsersWithCreditsAtLeast(ctx context.Context, min int64, limit int) ([]*models.User, error)
	UsersWithCreditsAtMost(ctx context.Context, max int64, limit int) ([]*models.User, error)
	InactiveSince(ctx context.Context, since time.Time, limit int) ([]*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)
	AllUserIDs(ctx context.Context) ([]int64, error)
	TableCounts(ctx context.Context) (*models.TableCounts, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	RedeemCodeRepository() RedeemCodeRepository
	RedemptionRepository() RedemptionRepository
	LookupRepository() LookupRepository
	AdminRepository() AdminRepository
	ReportRepository() ReportRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService is the single source of truth for balances and code redemption.
// Storage faults never escape: every method normalizes them to a bool, a nil
// result or a named outcome and logs them.
type LedgerService interface {
	// GetUser returns the user or nil when absent
	GetUser(ctx context.Context, userID int64) *models.User

	// RegisterUser creates the user, paying the referral bonus when the referrer exists.
	// Returns false when the user already exists.
	RegisterUser(ctx context.Context, userID int64, username string, referrerID *int64) bool

	// AdjustBalance applies a credit delta atomically
	AdjustBalance(ctx context.Context, userID int64, delta int64, reason events.BalanceChangeReason) bool

	// SetBan toggles the ban flag
	SetBan(ctx context.Context, userID int64, banned bool) bool

	// CreateCode issues a promotional code
	CreateCode(ctx context.Context, code string, amount int64, maxUses int, expiryMinutes *int) (bool, string)

	// GenerateCode issues a code with a random PRO- name
	GenerateCode(ctx context.Context, amount int64, maxUses int, expiryMinutes *int) (string, bool, string)

	// RedeemCode claims a code for the user
	RedeemCode(ctx context.Context, userID int64, code string) models.RedeemResult

	// SweepExpiredCodes deactivates codes whose expiry elapsed
	SweepExpiredCodes(ctx context.Context) int64

	// RecordLookup appends to the lookup audit log
	RecordLookup(ctx context.Context, userID int64, category, input, result string)

	// BulkAdjust applies the same delta to many users in one transaction
	BulkAdjust(ctx context.Context, userIDs []int64, delta int64) (bool, string)

	DeactivateCode(ctx context.Context, code string) bool
	DeleteCode(ctx context.Context, code string) bool
	DeleteUser(ctx context.Context, userID int64) bool
	ResetCredits(ctx context.Context, userID int64) bool
	TouchActivity(ctx context.Context, userID int64)
	CodeUsage(ctx context.Context, code string) *models.CodeUsage
	UserStats(ctx context.Context, userID int64) *models.UserStats
}

// ReportService exposes read-only aggregate queries
type ReportService interface {
	Stats(ctx context.Context) *models.LedgerStats
	Leaderboard(ctx context.Context, limit int) []*models.User
	TopReferrers(ctx context.Context, limit int) []*models.ReferrerEntry
	RecentUsers(ctx context.Context, limit int) []*models.User
	UsersJoinedBetween(ctx context.Context, from, to time.Time) []*models.User
	DailySignups(ctx context.Context, days int) []*models.DailyCount
	LookupStats(ctx context.Context) []*models.LookupCategoryCount
	UserLookups(ctx context.Context, userID int64, limit int) []*models.LookupRecord
	PremiumUsers(ctx context.Context) []*models.User
	LowCreditUsers(ctx context.Context) []*models.User
	InactiveUsers(ctx context.Context, days int) []*models.User
	SearchUsers(ctx context.Context, query string) []*models.User
	ListCodes(ctx context.Context, active *bool) []*models.RedeemCode
	ExpiredCodes(ctx context.Context) []*models.RedeemCode
	AllUserIDs(ctx context.Context) []int64
	TableCounts(ctx context.Context) (*models.TableCounts, error)
}

// AccessService resolves operator privileges
type AccessService interface {
	// Level returns the caller's privilege, config first then the admins table
	Level(ctx context.Context, userID int64) models.AdminLevel

	// IsOwner reports whether the id is the configured owner
	IsOwner(userID int64) bool

	// SyncStaticAdmins upserts the configured admins into the admins table
	SyncStaticAdmins(ctx context.Context) error

	AddAdmin(ctx context.Context, userID, addedBy int64) (bool, string)
	RemoveAdmin(ctx context.Context, userID int64) (bool, string)
	ListAdmins(ctx context.Context) []*models.Admin
}
