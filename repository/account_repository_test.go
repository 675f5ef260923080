package repository

import (
	"context"
	"testing"

	"fightbook/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing account returns nil", func(t *testing.T) {
		account, err := repo.GetByID(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create seeds starting balance", func(t *testing.T) {
		account, err := repo.Create(ctx, "account-1", 1000)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "account-1", account.ID)
		assert.Equal(t, int64(1000), account.Balance)
		assert.Zero(t, account.TotalWagered)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("get returns created account", func(t *testing.T) {
		account, err := repo.GetByID(ctx, "account-1")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, int64(1000), account.Balance)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, "account-1", 1000)
		assert.Error(t, err)
	})
}

func TestAccountRepository_ApplyBalanceChange(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "account-1", 1000)
	require.NoError(t, err)

	t.Run("debit adjusts balance and aggregates", func(t *testing.T) {
		err := repo.ApplyBalanceChange(ctx, "account-1", -100, 100, 0, 0)
		require.NoError(t, err)

		account, err := repo.GetByID(ctx, "account-1")
		require.NoError(t, err)
		assert.Equal(t, int64(900), account.Balance)
		assert.Equal(t, int64(100), account.TotalWagered)
	})

	t.Run("credit adjusts balance and won aggregate", func(t *testing.T) {
		err := repo.ApplyBalanceChange(ctx, "account-1", 250, 0, 250, 0)
		require.NoError(t, err)

		account, err := repo.GetByID(ctx, "account-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1150), account.Balance)
		assert.Equal(t, int64(250), account.TotalWon)
	})

	t.Run("overdraft rejected without mutation", func(t *testing.T) {
		err := repo.ApplyBalanceChange(ctx, "account-1", -5000, 5000, 0, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")

		account, err := repo.GetByID(ctx, "account-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1150), account.Balance)
		assert.Equal(t, int64(100), account.TotalWagered)
	})

	t.Run("debit to exactly zero allowed", func(t *testing.T) {
		err := repo.ApplyBalanceChange(ctx, "account-1", -1150, 1150, 0, 0)
		require.NoError(t, err)

		account, err := repo.GetByID(ctx, "account-1")
		require.NoError(t, err)
		assert.Zero(t, account.Balance)
	})

	t.Run("total_wagered floors at zero", func(t *testing.T) {
		// Refunds subtract the stake back out of total_wagered
		err := repo.ApplyBalanceChange(ctx, "account-1", 1250, -99999, 0, 0)
		require.NoError(t, err)

		account, err := repo.GetByID(ctx, "account-1")
		require.NoError(t, err)
		assert.Zero(t, account.TotalWagered)
	})

	t.Run("unknown account reported", func(t *testing.T) {
		err := repo.ApplyBalanceChange(ctx, "ghost", 100, 0, 0, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestAccountRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		accounts, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("ordered by id", func(t *testing.T) {
		for _, id := range []string{"charlie", "alpha", "bravo"} {
			_, err := repo.Create(ctx, id, 1000)
			require.NoError(t, err)
		}

		accounts, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 3)
		assert.Equal(t, "alpha", accounts[0].ID)
		assert.Equal(t, "bravo", accounts[1].ID)
		assert.Equal(t, "charlie", accounts[2].ID)
	})
}
