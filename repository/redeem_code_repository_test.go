package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditbot/repository/testutil"
	"creditbot/service"
)

func TestRedeemCodeRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRedeemCodeRepository(testDB.DB)
	ctx := context.Background()

	code := testutil.CreateTestCode("WELCOME50", 50, 10)
	created, err := repo.Create(ctx, code)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, code.CreatedAt)

	created, err = repo.Create(ctx, testutil.CreateTestCode("WELCOME50", 10, 1))
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.Get(ctx, "WELCOME50")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(50), got.Amount)
	assert.Equal(t, 10, got.MaxUses)
	assert.Equal(t, 0, got.CurrentUses)
	assert.Nil(t, got.ExpiryMinutes)
	assert.True(t, got.IsActive)

	missing, err := repo.Get(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedeemCodeRepository_UseCeiling(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRedeemCodeRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, testutil.CreateTestCode("ONCE", 5, 1))
	require.NoError(t, err)

	require.NoError(t, repo.IncrementUses(ctx, "ONCE"))
	assert.Error(t, repo.IncrementUses(ctx, "ONCE"), "check constraint must reject current_uses > max_uses")
}

func TestRedeemCodeRepository_ExpirySweep(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRedeemCodeRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	_, err := repo.Create(ctx, testutil.CreateTestCodeWithExpiry("OLD", 5, 5, 10, now.Add(-11*time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.CreateTestCodeWithExpiry("FRESH", 5, 5, 10, now.Add(-9*time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.CreateTestCode("FOREVER", 5, 5))
	require.NoError(t, err)
	testDB.Exec(t, `INSERT INTO redeem_codes (code, amount, max_uses, expiry_minutes, created_at) VALUES ('LEGACY', 5, 5, 1, NULL)`)

	expired, err := repo.ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "OLD", expired[0].Code)

	changed, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	changed, err = repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed, "sweep is idempotent")

	active := true
	activeCodes, err := repo.List(ctx, &active)
	require.NoError(t, err)
	var names []string
	for _, c := range activeCodes {
		names = append(names, c.Code)
	}
	assert.ElementsMatch(t, []string{"FRESH", "FOREVER", "LEGACY"}, names)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRedemptionRepository_UniquePerUser(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	codes := NewRedeemCodeRepository(testDB.DB)
	repo := NewRedemptionRepository(testDB.DB)
	ctx := context.Background()

	_, err := users.Create(ctx, 10, testutil.StringPtr("claimer"), nil, 5)
	require.NoError(t, err)
	_, err = codes.Create(ctx, testutil.CreateTestCode("GIFT", 5, 10))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, 10, "GIFT")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, 10, "GIFT", time.Now()))

	err = repo.Create(ctx, 10, "GIFT", time.Now())
	assert.ErrorIs(t, err, service.ErrDuplicateRedemption)

	exists, err = repo.Exists(ctx, 10, "GIFT")
	require.NoError(t, err)
	assert.True(t, exists)

	details, err := repo.ListByCode(ctx, "GIFT")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "claimer", *details[0].Username)

	deleted, err := codes.Delete(ctx, "GIFT")
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err = repo.Exists(ctx, 10, "GIFT")
	require.NoError(t, err)
	assert.False(t, exists, "redemptions cascade with their code")
}
