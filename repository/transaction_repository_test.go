package repository

import (
	"context"
	"testing"

	"fightbook/models"
	"fightbook/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	wagers := NewWagerRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "account-1", 1000)
	require.NoError(t, err)

	t.Run("appends entry and fills id", func(t *testing.T) {
		txn := testutil.CreateTestTransaction("account-1", -100, 1000, models.TransactionKindWagerPlaced)
		err := repo.Record(ctx, txn)
		require.NoError(t, err)

		assert.NotZero(t, txn.ID)
		assert.False(t, txn.CreatedAt.IsZero())
	})

	t.Run("entry can reference a wager", func(t *testing.T) {
		wager := testutil.CreateTestWager("account-1", "event-1", "fight-1", "fighter-a")
		require.NoError(t, wagers.Create(ctx, wager))

		txn := testutil.CreateTestTransaction("account-1", -100, 900, models.TransactionKindWagerPlaced)
		txn.RefWagerID = &wager.ID
		err := repo.Record(ctx, txn)
		require.NoError(t, err)
	})

	t.Run("balance invariant violation rejected", func(t *testing.T) {
		txn := &models.Transaction{
			AccountID:     "account-1",
			Amount:        -100,
			Kind:          models.TransactionKindWagerPlaced,
			BalanceBefore: 1000,
			BalanceAfter:  950, // should be 900
		}
		err := repo.Record(ctx, txn)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "balance invariant")
	})

	t.Run("zero amount entry allowed", func(t *testing.T) {
		// Losses record a zero-amount entry for audit continuity
		txn := testutil.CreateTestTransaction("account-1", 0, 800, models.TransactionKindWagerLost)
		err := repo.Record(ctx, txn)
		require.NoError(t, err)
	})

	t.Run("unknown kind rejected by constraint", func(t *testing.T) {
		txn := testutil.CreateTestTransaction("account-1", 100, 800, models.TransactionKind("mystery"))
		err := repo.Record(ctx, txn)
		assert.Error(t, err)
	})
}

func TestTransactionRepository_GetByAccount(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "account-1", 1000)
	require.NoError(t, err)

	entries := []*models.Transaction{
		testutil.CreateTestTransaction("account-1", -100, 1000, models.TransactionKindWagerPlaced),
		testutil.CreateTestTransaction("account-1", -200, 900, models.TransactionKindWagerPlaced),
		testutil.CreateTestTransaction("account-1", 250, 700, models.TransactionKindWagerWon),
	}
	for _, txn := range entries {
		require.NoError(t, repo.Record(ctx, txn))
	}

	t.Run("newest first", func(t *testing.T) {
		txns, err := repo.GetByAccount(ctx, "account-1", 10)
		require.NoError(t, err)
		require.Len(t, txns, 3)
		assert.Equal(t, models.TransactionKindWagerWon, txns[0].Kind)
		assert.Equal(t, int64(250), txns[0].Amount)
	})

	t.Run("limit respected", func(t *testing.T) {
		txns, err := repo.GetByAccount(ctx, "account-1", 2)
		require.NoError(t, err)
		assert.Len(t, txns, 2)
	})

	t.Run("unknown account yields empty", func(t *testing.T) {
		txns, err := repo.GetByAccount(ctx, "ghost", 10)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestTransactionRepository_SumByAccount(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "account-1", 1000)
	require.NoError(t, err)

	t.Run("no entries sum to zero", func(t *testing.T) {
		sum, err := repo.SumByAccount(ctx, "account-1")
		require.NoError(t, err)
		assert.Zero(t, sum)
	})

	t.Run("signed amounts aggregate", func(t *testing.T) {
		entries := []*models.Transaction{
			testutil.CreateTestTransaction("account-1", -100, 1000, models.TransactionKindWagerPlaced),
			testutil.CreateTestTransaction("account-1", 250, 900, models.TransactionKindWagerWon),
			testutil.CreateTestTransaction("account-1", -50, 1150, models.TransactionKindWagerPlaced),
		}
		for _, txn := range entries {
			require.NoError(t, repo.Record(ctx, txn))
		}

		sum, err := repo.SumByAccount(ctx, "account-1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), sum)
	})
}
