package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creditbot/events"
	"creditbot/models"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetUser(ctx context.Context, userID int64) *models.User {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.User)
}

func (m *mockLedger) AdjustBalance(ctx context.Context, userID int64, delta int64, reason events.BalanceChangeReason) bool {
	return m.Called(ctx, userID, delta, reason).Bool(0)
}

func (m *mockLedger) RecordLookup(ctx context.Context, userID int64, category, input, result string) {
	m.Called(ctx, userID, category, input, result)
}

func (m *mockLedger) TouchActivity(ctx context.Context, userID int64) {
	m.Called(ctx, userID)
}

type mockAccess struct {
	mock.Mock
}

func (m *mockAccess) Level(ctx context.Context, userID int64) models.AdminLevel {
	return m.Called(ctx, userID).Get(0).(models.AdminLevel)
}

type stubFetcher struct {
	categories map[string]bool
	node       Node
	err        error
}

func (f *stubFetcher) Has(category string) bool { return f.categories[category] }

func (f *stubFetcher) Fetch(ctx context.Context, category, input string) (Node, error) {
	return f.node, f.err
}

func newServiceFixture(fetcher *stubFetcher) (*Service, *mockLedger, *mockAccess) {
	ledger := new(mockLedger)
	access := new(mockAccess)
	svc := NewService(ledger, access, fetcher)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, ledger, access
}

func TestService_ChargesOnSuccess(t *testing.T) {
	ctx := context.Background()
	node, _ := Parse([]byte(`{"name":"A","branding":"x"}`))
	svc, ledger, access := newServiceFixture(&stubFetcher{categories: map[string]bool{"phone": true}, node: node})

	ledger.On("GetUser", ctx, int64(1)).Return(&models.User{UserID: 1, Credits: 3})
	access.On("Level", ctx, int64(1)).Return(models.AdminLevelNone)
	ledger.On("AdjustBalance", ctx, int64(1), int64(-1), events.ReasonLookup).Return(true)
	ledger.On("RecordLookup", ctx, int64(1), "phone", "555", mock.AnythingOfType("string")).Return()
	ledger.On("TouchActivity", ctx, int64(1)).Return()

	result, err := svc.Run(ctx, 1, "phone", "555")
	require.NoError(t, err)

	assert.True(t, result.Charged)
	assert.False(t, result.Failed)
	assert.NotContains(t, result.Text, "branding")
	assert.Contains(t, result.Text, `"meta"`)
	ledger.AssertExpectations(t)
}

func TestService_PrivilegedNotCharged(t *testing.T) {
	ctx := context.Background()
	node, _ := Parse([]byte(`[1]`))
	svc, ledger, access := newServiceFixture(&stubFetcher{categories: map[string]bool{"phone": true}, node: node})

	ledger.On("GetUser", ctx, int64(1)).Return(&models.User{UserID: 1, Credits: 0})
	access.On("Level", ctx, int64(1)).Return(models.AdminLevelAdmin)
	ledger.On("RecordLookup", ctx, int64(1), "phone", "x", mock.Anything).Return()
	ledger.On("TouchActivity", ctx, int64(1)).Return()

	result, err := svc.Run(ctx, 1, "phone", "x")
	require.NoError(t, err)
	assert.False(t, result.Charged)
	ledger.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_FetchFailureNotCharged(t *testing.T) {
	ctx := context.Background()
	svc, ledger, access := newServiceFixture(&stubFetcher{
		categories: map[string]bool{"phone": true},
		err:        errors.New("connection refused"),
	})

	ledger.On("GetUser", ctx, int64(1)).Return(&models.User{UserID: 1, Credits: 3})
	access.On("Level", ctx, int64(1)).Return(models.AdminLevelNone)
	ledger.On("RecordLookup", ctx, int64(1), "phone", "x", mock.Anything).Return()
	ledger.On("TouchActivity", ctx, int64(1)).Return()

	result, err := svc.Run(ctx, 1, "phone", "x")
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Contains(t, result.Text, "Server Error")
	ledger.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("banned", func(t *testing.T) {
		svc, ledger, _ := newServiceFixture(&stubFetcher{categories: map[string]bool{"phone": true}})
		ledger.On("GetUser", ctx, int64(1)).Return(&models.User{UserID: 1, Credits: 10, IsBanned: true})

		_, err := svc.Run(ctx, 1, "phone", "x")
		assert.ErrorIs(t, err, ErrBanned)
	})

	t.Run("no credits", func(t *testing.T) {
		svc, ledger, access := newServiceFixture(&stubFetcher{categories: map[string]bool{"phone": true}})
		ledger.On("GetUser", ctx, int64(1)).Return(&models.User{UserID: 1, Credits: 0})
		access.On("Level", ctx, int64(1)).Return(models.AdminLevelNone)

		_, err := svc.Run(ctx, 1, "phone", "x")
		assert.ErrorIs(t, err, ErrInsufficientCredits)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, ledger, access := newServiceFixture(&stubFetcher{categories: map[string]bool{"phone": true}})
		ledger.On("GetUser", ctx, int64(1)).Return(nil)
		access.On("Level", ctx, int64(1)).Return(models.AdminLevelNone)

		_, err := svc.Run(ctx, 1, "phone", "x")
		assert.ErrorIs(t, err, ErrInsufficientCredits)
	})

	t.Run("unavailable category", func(t *testing.T) {
		svc, ledger, access := newServiceFixture(&stubFetcher{categories: map[string]bool{}})
		ledger.On("GetUser", ctx, int64(1)).Return(&models.User{UserID: 1, Credits: 5})
		access.On("Level", ctx, int64(1)).Return(models.AdminLevelNone)

		_, err := svc.Run(ctx, 1, "phone", "x")
		assert.ErrorIs(t, err, ErrUnavailable)
		ledger.AssertNotCalled(t, "RecordLookup", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
