package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"creditbot/models"
)

const (
	// PremiumThreshold is the balance from which a user counts as premium
	PremiumThreshold int64 = 100
	// LowCreditThreshold is the balance up to which a user counts as low on credits
	LowCreditThreshold int64 = 5
	// ReportListLimit caps user lists in reports
	ReportListLimit = 50
	// SearchLimit caps user search results
	SearchLimit = 20
)

type reportService struct {
	uowFactory UnitOfWorkFactory
	timeout    time.Duration
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(uowFactory UnitOfWorkFactory, timeout time.Duration) ReportService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &reportService{
		uowFactory: uowFactory,
		timeout:    timeout,
		now:        time.Now,
	}
}

// read runs fn against the report repositories and logs failures under op
func read[T any](ctx context.Context, s *reportService, op string, fn func(ctx context.Context, uow UnitOfWork) (T, error)) T {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var zero T
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("report", op).Error("Failed to begin report transaction")
		return zero
	}
	defer uow.Rollback()

	result, err := fn(ctx, uow)
	if err != nil {
		log.WithError(err).WithField("report", op).Error("Report query failed")
		return zero
	}
	return result
}

func (s *reportService) Stats(ctx context.Context) *models.LedgerStats {
	return read(ctx, s, "stats", func(ctx context.Context, uow UnitOfWork) (*models.LedgerStats, error) {
		return uow.ReportRepository().Stats(ctx)
	})
}

func (s *reportService) Leaderboard(ctx context.Context, limit int) []*models.User {
	return read(ctx, s, "leaderboard", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().Leaderboard(ctx, clampLimit(limit))
	})
}

func (s *reportService) TopReferrers(ctx context.Context, limit int) []*models.ReferrerEntry {
	return read(ctx, s, "top_referrers", func(ctx context.Context, uow UnitOfWork) ([]*models.ReferrerEntry, error) {
		return uow.ReportRepository().TopReferrers(ctx, clampLimit(limit))
	})
}

func (s *reportService) RecentUsers(ctx context.Context, limit int) []*models.User {
	return read(ctx, s, "recent_users", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().RecentUsers(ctx, clampLimit(limit))
	})
}

func (s *reportService) UsersJoinedBetween(ctx context.Context, from, to time.Time) []*models.User {
	return read(ctx, s, "users_joined_between", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().UsersJoinedBetween(ctx, from, to)
	})
}

func (s *reportService) DailySignups(ctx context.Context, days int) []*models.DailyCount {
	if days <= 0 {
		days = 7
	}
	since := StartOfDay(s.now().UTC()).AddDate(0, 0, -(days - 1))
	return read(ctx, s, "daily_signups", func(ctx context.Context, uow UnitOfWork) ([]*models.DailyCount, error) {
		return uow.ReportRepository().DailySignups(ctx, since)
	})
}

func (s *reportService) LookupStats(ctx context.Context) []*models.LookupCategoryCount {
	return read(ctx, s, "lookup_stats", func(ctx context.Context, uow UnitOfWork) ([]*models.LookupCategoryCount, error) {
		return uow.LookupRepository().CountByCategory(ctx)
	})
}

func (s *reportService) UserLookups(ctx context.Context, userID int64, limit int) []*models.LookupRecord {
	return read(ctx, s, "user_lookups", func(ctx context.Context, uow UnitOfWork) ([]*models.LookupRecord, error) {
		return uow.LookupRepository().ListByUser(ctx, userID, clampLimit(limit))
	})
}

func (s *reportService) PremiumUsers(ctx context.Context) []*models.User {
	return read(ctx, s, "premium_users", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().UsersWithCreditsAtLeast(ctx, PremiumThreshold, ReportListLimit)
	})
}

func (s *reportService) LowCreditUsers(ctx context.Context) []*models.User {
	return read(ctx, s, "low_credit_users", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().UsersWithCreditsAtMost(ctx, LowCreditThreshold, ReportListLimit)
	})
}

func (s *reportService) InactiveUsers(ctx context.Context, days int) []*models.User {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	return read(ctx, s, "inactive_users", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().InactiveSince(ctx, since, ReportListLimit)
	})
}

func (s *reportService) SearchUsers(ctx context.Context, query string) []*models.User {
	return read(ctx, s, "search_users", func(ctx context.Context, uow UnitOfWork) ([]*models.User, error) {
		return uow.ReportRepository().SearchUsers(ctx, query, SearchLimit)
	})
}

func (s *reportService) ListCodes(ctx context.Context, active *bool) []*models.RedeemCode {
	return read(ctx, s, "list_codes", func(ctx context.Context, uow UnitOfWork) ([]*models.RedeemCode, error) {
		return uow.RedeemCodeRepository().List(ctx, active)
	})
}

func (s *reportService) ExpiredCodes(ctx context.Context) []*models.RedeemCode {
	return read(ctx, s, "expired_codes", func(ctx context.Context, uow UnitOfWork) ([]*models.RedeemCode, error) {
		return uow.RedeemCodeRepository().ListExpired(ctx, s.now())
	})
}

func (s *reportService) AllUserIDs(ctx context.Context) []int64 {
	return read(ctx, s, "all_user_ids", func(ctx context.Context, uow UnitOfWork) ([]int64, error) {
		return uow.ReportRepository().AllUserIDs(ctx)
	})
}

// TableCounts surfaces the error so the health command can report it
func (s *reportService) TableCounts(ctx context.Context) (*models.TableCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.ReportRepository().TableCounts(ctx)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > ReportListLimit {
		return ReportListLimit
	}
	return limit
}
