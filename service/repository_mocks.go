package service

import (
	"context"
	"sync"
	"time"

	"creditbot/events"
	"creditbot/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, userID int64, username *string, referrerID *int64, initialCredits int64) (*models.User, error) {
	args := m.Called(ctx, userID, username, referrerID, initialCredits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) EnsureExists(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) AddCredits(ctx context.Context, userID int64, delta int64) (bool, error) {
	args := m.Called(ctx, userID, delta)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AddBonus(ctx context.Context, userID int64, amount int64) (bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetCredits(ctx context.Context, userID int64, credits int64) (bool, error) {
	args := m.Called(ctx, userID, credits)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetBanned(ctx context.Context, userID int64, banned bool) (bool, error) {
	args := m.Called(ctx, userID, banned)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Touch(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockRedeemCodeRepository is a mock implementation of RedeemCodeRepository
type MockRedeemCodeRepository struct {
	mock.Mock
}

func (m *MockRedeemCodeRepository) Create(ctx context.Context, code *models.RedeemCode) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedeemCodeRepository) Get(ctx context.Context, code string) (*models.RedeemCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedeemCode), args.Error(1)
}

func (m *MockRedeemCodeRepository) GetForUpdate(ctx context.Context, code string) (*models.RedeemCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedeemCode), args.Error(1)
}

func (m *MockRedeemCodeRepository) IncrementUses(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockRedeemCodeRepository) Deactivate(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedeemCodeRepository) Delete(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedeemCodeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRedeemCodeRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.RedeemCode, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RedeemCode), args.Error(1)
}

func (m *MockRedeemCodeRepository) List(ctx context.Context, active *bool) ([]*models.RedeemCode, error) {
	args := m.Called(ctx, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RedeemCode), args.Error(1)
}

// MockRedemptionRepository is a mock implementation of RedemptionRepository
type MockRedemptionRepository struct {
	mock.Mock
}

func (m *MockRedemptionRepository) Exists(ctx context.Context, userID int64, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRedemptionRepository) Create(ctx context.Context, userID int64, code string, claimedAt time.Time) error {
	args := m.Called(ctx, userID, code, claimedAt)
	return args.Error(0)
}

func (m *MockRedemptionRepository) ListByCode(ctx context.Context, code string) ([]*models.RedemptionDetail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RedemptionDetail), args.Error(1)
}

// MockLookupRepository is a mock implementation of LookupRepository
type MockLookupRepository struct {
	mock.Mock
}

func (m *MockLookupRepository) Create(ctx context.Context, record *models.LookupRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLookupRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LookupRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LookupRecord), args.Error(1)
}

func (m *MockLookupRepository) CountByCategory(ctx context.Context) ([]*models.LookupCategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LookupCategoryCount), args.Error(1)
}

// MockAdminRepository is a mock implementation of AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Get(ctx context.Context, userID int64) (*models.Admin, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.Admin) (bool, error) {
	args := m.Called(ctx, admin)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRepository) Upsert(ctx context.Context, admin *models.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRepository) List(ctx context.Context) ([]*models.Admin, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Admin), args.Error(1)
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Stats(ctx context.Context) (*models.LedgerStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerStats), args.Error(1)
}

func (m *MockReportRepository) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

func (m *MockReportRepository) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	return m.users(m.Called(ctx, limit))
}

func (m *MockReportRepository) TopReferrers(ctx context.Context, limit int) ([]*models.ReferrerEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReferrerEntry), args.Error(1)
}

func (m *MockReportRepository) RecentUsers(ctx context.Context, limit int) ([]*models.User, error) {
	return m.users(m.Called(ctx, limit))
}

func (m *MockReportRepository) UsersJoinedBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	return m.users(m.Called(ctx, from, to))
}

func (m *MockReportRepository) DailySignups(ctx context.Context, since time.Time) ([]*models.DailyCount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyCount), args.Error(1)
}

func (m *MockReportRepository) UsersWithCreditsAtLeast(ctx context.Context, min int64, limit int) ([]*models.User, error) {
	return m.users(m.Called(ctx, min, limit))
}

func (m *MockReportRepository) UsersWithCreditsAtMost(ctx context.Context, max int64, limit int) ([]*models.User, error) {
	return m.users(m.Called(ctx, max, limit))
}

func (m *MockReportRepository) InactiveSince(ctx context.Context, since time.Time, limit int) ([]*models.User, error) {
	return m.users(m.Called(ctx, since, limit))
}

func (m *MockReportRepository) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	return m.users(m.Called(ctx, query, limit))
}

func (m *MockReportRepository) AllUserIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockReportRepository) TableCounts(ctx context.Context) (*models.TableCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TableCounts), args.Error(1)
}

func (m *MockReportRepository) users(args mock.Arguments) ([]*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Published returns a copy of every event published so far
func (m *MockEventPublisher) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

// MockUnitOfWork is a mock implementation of UnitOfWork wired to mock repositories
type MockUnitOfWork struct {
	mock.Mock

	Users       *MockUserRepository
	Codes       *MockRedeemCodeRepository
	Redemptions *MockRedemptionRepository
	Lookups     *MockLookupRepository
	Admins      *MockAdminRepository
	Reports     *MockReportRepository
	Events      *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work with fresh mock repositories
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Users:       new(MockUserRepository),
		Codes:       new(MockRedeemCodeRepository),
		Redemptions: new(MockRedemptionRepository),
		Lookups:     new(MockLookupRepository),
		Admins:      new(MockAdminRepository),
		Reports:     new(MockReportRepository),
		Events:      new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository             { return m.Users }
func (m *MockUnitOfWork) RedeemCodeRepository() RedeemCodeRepository { return m.Codes }
func (m *MockUnitOfWork) RedemptionRepository() RedemptionRepository { return m.Redemptions }
func (m *MockUnitOfWork) LookupRepository() LookupRepository         { return m.Lookups }
func (m *MockUnitOfWork) AdminRepository() AdminRepository           { return m.Admins }
func (m *MockUnitOfWork) ReportRepository() ReportRepository         { return m.Reports }
func (m *MockUnitOfWork) EventBus() EventPublisher                   { return m.Events }

// AssertRepositories asserts expectations on every mock repository
func (m *MockUnitOfWork) AssertRepositories(t mock.TestingT) {
	m.Users.AssertExpectations(t)
	m.Codes.AssertExpectations(t)
	m.Redemptions.AssertExpectations(t)
	m.Lookups.AssertExpectations(t)
	m.Admins.AssertExpectations(t)
	m.Reports.AssertExpectations(t)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
