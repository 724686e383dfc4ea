package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"creditbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newReportFixture() (*MockUnitOfWork, *reportService) {
	uow := NewMockUnitOfWork()
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)

	svc := NewReportService(factory, time.Second).(*reportService)
	svc.now = func() time.Time { return fixedNow }
	return uow, svc
}

func TestReportService_Thresholds(t *testing.T) {
	ctx := context.Background()
	uow, svc := newReportFixture()

	premium := []*models.User{{UserID: 1, Credits: 150}}
	low := []*models.User{{UserID: 2, Credits: 1}}
	uow.Reports.On("UsersWithCreditsAtLeast", mock.Anything, int64(100), ReportListLimit).Return(premium, nil)
	uow.Reports.On("UsersWithCreditsAtMost", mock.Anything, int64(5), ReportListLimit).Return(low, nil)

	assert.Equal(t, premium, svc.PremiumUsers(ctx))
	assert.Equal(t, low, svc.LowCreditUsers(ctx))
	uow.AssertNotCalled(t, "Commit")
}

func TestReportService_DailySignupsWindow(t *testing.T) {
	ctx := context.Background()
	uow, svc := newReportFixture()

	since := time.Date(2024, 5, 26, 0, 0, 0, 0, time.UTC)
	uow.Reports.On("DailySignups", mock.Anything, since).Return([]*models.DailyCount{}, nil)

	assert.NotNil(t, svc.DailySignups(ctx, 7))
	uow.AssertRepositories(t)
}

func TestReportService_InactiveUsersDefaultsTo30Days(t *testing.T) {
	ctx := context.Background()
	uow, svc := newReportFixture()

	uow.Reports.On("InactiveSince", mock.Anything, fixedNow.AddDate(0, 0, -30), ReportListLimit).Return(nil, nil)

	assert.Nil(t, svc.InactiveUsers(ctx, 0))
	uow.AssertRepositories(t)
}

func TestReportService_LimitsClamped(t *testing.T) {
	ctx := context.Background()
	uow, svc := newReportFixture()

	uow.Reports.On("Leaderboard", mock.Anything, ReportListLimit).Return([]*models.User{}, nil)
	uow.Reports.On("TopReferrers", mock.Anything, 5).Return([]*models.ReferrerEntry{}, nil)

	svc.Leaderboard(ctx, 1000)
	svc.TopReferrers(ctx, 5)
	uow.AssertRepositories(t)
}

func TestReportService_FaultsYieldEmpty(t *testing.T) {
	ctx := context.Background()
	uow, svc := newReportFixture()

	uow.Reports.On("Stats", mock.Anything).Return(nil, errors.New("timeout"))
	uow.Reports.On("TableCounts", mock.Anything).Return(nil, errors.New("timeout"))

	assert.Nil(t, svc.Stats(ctx))

	counts, err := svc.TableCounts(ctx)
	assert.Nil(t, counts)
	assert.Error(t, err)
}
