package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditbot/repository/testutil"
)

func TestUserRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		user, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("user found", func(t *testing.T) {
		created, err := repo.Create(ctx, 123456, testutil.StringPtr("testuser"), nil, 5)
		require.NoError(t, err)
		require.NotNil(t, created)

		user, err := repo.GetByID(ctx, 123456)
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, int64(123456), user.UserID)
		assert.Equal(t, "testuser", *user.Username)
		assert.Equal(t, int64(5), user.Credits)
		assert.Equal(t, int64(0), user.TotalEarned)
		assert.Nil(t, user.ReferrerID)
		assert.False(t, user.IsBanned)
		assert.False(t, user.JoinedAt.IsZero())
	})
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("duplicate id returns nil", func(t *testing.T) {
		first, err := repo.Create(ctx, 1001, testutil.StringPtr("first"), nil, 5)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := repo.Create(ctx, 1001, testutil.StringPtr("second"), nil, 5)
		require.NoError(t, err)
		assert.Nil(t, second)

		user, err := repo.GetByID(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, "first", *user.Username)
	})

	t.Run("referrer link is stored even when the referrer is unknown", func(t *testing.T) {
		user, err := repo.Create(ctx, 1002, nil, testutil.Int64Ptr(424242), 5)
		require.NoError(t, err)
		require.NotNil(t, user)
		require.NotNil(t, user.ReferrerID)
		assert.Equal(t, int64(424242), *user.ReferrerID)
	})

	t.Run("self referral violates constraint", func(t *testing.T) {
		_, err := repo.Create(ctx, 1003, nil, testutil.Int64Ptr(1003), 5)
		assert.Error(t, err)
	})
}

func TestUserRepository_AddCredits(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 2001, testutil.StringPtr("spender"), nil, 5)
	require.NoError(t, err)

	t.Run("positive delta raises total earned", func(t *testing.T) {
		found, err := repo.AddCredits(ctx, 2001, 10)
		require.NoError(t, err)
		assert.True(t, found)

		user, err := repo.GetByID(ctx, 2001)
		require.NoError(t, err)
		assert.Equal(t, int64(15), user.Credits)
		assert.Equal(t, int64(10), user.TotalEarned)
	})

	t.Run("negative delta leaves total earned alone and has no floor", func(t *testing.T) {
		found, err := repo.AddCredits(ctx, 2001, -20)
		require.NoError(t, err)
		assert.True(t, found)

		user, err := repo.GetByID(ctx, 2001)
		require.NoError(t, err)
		assert.Equal(t, int64(-5), user.Credits)
		assert.Equal(t, int64(10), user.TotalEarned)
	})

	t.Run("unknown user", func(t *testing.T) {
		found, err := repo.AddCredits(ctx, 999, 1)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestUserRepository_AddBonus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 2501, testutil.StringPtr("referrer"), nil, 5)
	require.NoError(t, err)
	testDB.Exec(t, `UPDATE users SET last_active = NOW() - INTERVAL '3 days' WHERE user_id = $1`, int64(2501))

	before, err := repo.GetByID(ctx, 2501)
	require.NoError(t, err)

	found, err := repo.AddBonus(ctx, 2501, 3)
	require.NoError(t, err)
	assert.True(t, found)

	after, err := repo.GetByID(ctx, 2501)
	require.NoError(t, err)
	assert.Equal(t, int64(8), after.Credits)
	assert.Equal(t, int64(3), after.TotalEarned)
	assert.True(t, before.LastActive.Equal(after.LastActive), "bonus must not mark the recipient active")

	found, err = repo.AddBonus(ctx, 999, 3)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserRepository_AddCreditsConcurrent(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 3001, nil, nil, 100)
	require.NoError(t, err)

	deltas := []int64{5, -3, 7, -1, 2, 9, -4, 6, -2, 1, 3, -8, 4, 10, -6, 2, 2, -1, 5, 3}
	var expected int64 = 100
	for _, d := range deltas {
		expected += d
	}

	var wg sync.WaitGroup
	for _, d := range deltas {
		wg.Add(1)
		go func(delta int64) {
			defer wg.Done()
			_, err := repo.AddCredits(ctx, 3001, delta)
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	user, err := repo.GetByID(ctx, 3001)
	require.NoError(t, err)
	assert.Equal(t, expected, user.Credits)
}

func TestUserRepository_BanResetDelete(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 4001, nil, nil, 50)
	require.NoError(t, err)

	found, err := repo.SetBanned(ctx, 4001, true)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.SetCredits(ctx, 4001, 0)
	require.NoError(t, err)
	assert.True(t, found)

	user, err := repo.GetByID(ctx, 4001)
	require.NoError(t, err)
	assert.True(t, user.IsBanned)
	assert.Equal(t, int64(0), user.Credits)

	deleted, err := repo.Delete(ctx, 4001)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, 4001)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, repo.EnsureExists(ctx, 4001))
	user, err = repo.GetByID(ctx, 4001)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Nil(t, user.Username)
	assert.Equal(t, int64(5), user.Credits)
}
