package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fightbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRefundService(u *mockUnits) *refundService {
	svc := NewRefundService(u.factory, testConfig()).(*refundService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func cancelledFightChange() models.FightChange {
	return models.FightChange{
		FightID:    "fight-1",
		Reasons:    []string{models.ChangeReasonFightCancelled},
		RefundType: models.RefundTypeFull,
	}
}

func reasonIs(want string) interface{} {
	return mock.MatchedBy(func(r *string) bool {
		return r != nil && *r == want
	})
}

func TestProcessRefunds_FullRefund(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	wager := pendingWager(1, "account-1", "fighter-a", 100, 250)

	u.expectUnit(true)
	u.wagers.On("GetPendingByFight", ctx, "event-1", "fight-1").
		Return([]*models.Wager{wager}, nil)
	u.accounts.On("GetForUpdate", ctx, "account-1").
		Return(&models.Account{ID: "account-1", Balance: 900}, nil)
	u.wagers.On("TransitionFromPending", ctx, int64(1), models.WagerStatusRefunded, int64(100), mock.Anything, reasonIs(models.ChangeReasonFightCancelled)).
		Return(true, nil)
	u.accounts.On("ApplyBalanceChange", ctx, "account-1", int64(100), int64(-100), int64(0), int64(0)).
		Return(nil)
	u.transactions.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Kind == models.TransactionKindWagerRefunded &&
			txn.Amount == 100 &&
			txn.BalanceBefore == 900 &&
			txn.BalanceAfter == 1000 &&
			txn.Reason == models.ChangeReasonFightCancelled
	})).Return(nil)

	result, err := svc.ProcessRefunds(ctx, "event-1", []models.FightChange{cancelledFightChange()})

	require.NoError(t, err)
	assert.Equal(t, 1, result.BetsRefunded)
	assert.Equal(t, int64(100), result.AmountRefunded)
	assert.Equal(t, 1, result.AccountsAffected)
	u.accounts.AssertExpectations(t)
	u.wagers.AssertExpectations(t)
	u.transactions.AssertExpectations(t)
}

func TestProcessRefunds_PartialRefund(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	wager := pendingWager(1, "account-1", "fighter-a", 100, 250)
	change := cancelledFightChange()
	change.RefundType = models.RefundTypePartial

	u.expectUnit(true)
	u.wagers.On("GetPendingByFight", ctx, "event-1", "fight-1").
		Return([]*models.Wager{wager}, nil)
	u.accounts.On("GetForUpdate", ctx, "account-1").
		Return(&models.Account{ID: "account-1", Balance: 900}, nil)
	u.wagers.On("TransitionFromPending", ctx, int64(1), models.WagerStatusRefunded, int64(50), mock.Anything, mock.Anything).
		Return(true, nil)
	u.accounts.On("ApplyBalanceChange", ctx, "account-1", int64(50), int64(-100), int64(0), int64(0)).
		Return(nil)
	u.transactions.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Amount == 50 && txn.BalanceAfter == 950
	})).Return(nil)

	result, err := svc.ProcessRefunds(ctx, "event-1", []models.FightChange{change})

	require.NoError(t, err)
	assert.Equal(t, 1, result.BetsRefunded)
	assert.Equal(t, int64(50), result.AmountRefunded)
}

func TestProcessRefunds_RerunRefundsNothing(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	wager := pendingWager(1, "account-1", "fighter-a", 100, 250)

	u.expectUnit(false)
	u.wagers.On("GetPendingByFight", ctx, "event-1", "fight-1").
		Return([]*models.Wager{wager}, nil)
	u.accounts.On("GetForUpdate", ctx, "account-1").
		Return(&models.Account{ID: "account-1", Balance: 1000}, nil)
	u.wagers.On("TransitionFromPending", ctx, int64(1), models.WagerStatusRefunded, int64(100), mock.Anything, mock.Anything).
		Return(false, nil)

	result, err := svc.ProcessRefunds(ctx, "event-1", []models.FightChange{cancelledFightChange()})

	require.NoError(t, err)
	assert.Equal(t, 0, result.BetsRefunded)
	assert.Equal(t, int64(0), result.AmountRefunded)
	assert.Equal(t, 0, result.AccountsAffected)
	u.accounts.AssertNotCalled(t, "ApplyBalanceChange",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	u.transactions.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestProcessRefunds_BatchContinuesPastFailedWager(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	broken := pendingWager(1, "account-1", "fighter-a", 100, 250)
	healthy := pendingWager(2, "account-2", "fighter-b", 200, 300)

	u.expectUnit(true)
	u.wagers.On("GetPendingByFight", ctx, "event-1", "fight-1").
		Return([]*models.Wager{broken, healthy}, nil)

	u.accounts.On("GetForUpdate", ctx, "account-1").
		Return(nil, errors.New("connection reset"))
	// Still pending on recheck, so the failure stands
	u.wagers.On("GetByID", ctx, int64(1)).Return(broken, nil)

	u.accounts.On("GetForUpdate", ctx, "account-2").
		Return(&models.Account{ID: "account-2", Balance: 800}, nil)
	u.wagers.On("TransitionFromPending", ctx, int64(2), models.WagerStatusRefunded, int64(200), mock.Anything, mock.Anything).
		Return(true, nil)
	u.accounts.On("ApplyBalanceChange", ctx, "account-2", int64(200), int64(-200), int64(0), int64(0)).
		Return(nil)
	u.transactions.On("Record", ctx, mock.Anything).Return(nil)

	result, err := svc.ProcessRefunds(ctx, "event-1", []models.FightChange{cancelledFightChange()})

	var partial *PartialBatchFailure
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Items, 1)
	assert.Equal(t, int64(1), partial.Items[0].WagerID)
	assert.Equal(t, 1, result.BetsRefunded)
	assert.Equal(t, int64(200), result.AmountRefunded)
	assert.Equal(t, 1, result.AccountsAffected)
}

func TestProcessRefunds_SameAccountCountedOnce(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	first := pendingWager(1, "account-1", "fighter-a", 100, 250)
	second := pendingWager(2, "account-1", "fighter-b", 50, 125)

	u.expectUnit(true)
	u.wagers.On("GetPendingByFight", ctx, "event-1", "fight-1").
		Return([]*models.Wager{first, second}, nil)
	u.accounts.On("GetForUpdate", ctx, "account-1").
		Return(&models.Account{ID: "account-1", Balance: 850}, nil)
	u.wagers.On("TransitionFromPending", ctx, mock.Anything, models.WagerStatusRefunded, mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	u.accounts.On("ApplyBalanceChange", ctx, "account-1", mock.Anything, mock.Anything, int64(0), int64(0)).
		Return(nil)
	u.transactions.On("Record", ctx, mock.Anything).Return(nil)

	result, err := svc.ProcessRefunds(ctx, "event-1", []models.FightChange{cancelledFightChange()})

	require.NoError(t, err)
	assert.Equal(t, 2, result.BetsRefunded)
	assert.Equal(t, int64(150), result.AmountRefunded)
	assert.Equal(t, 1, result.AccountsAffected)
}

func TestProcessRefunds_AmbiguousCommitResolvedByStoredStatus(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	wager := pendingWager(1, "account-1", "fighter-a", 100, 250)

	u.uow.On("Begin", mock.Anything).Return(nil)
	u.uow.On("Rollback").Return(nil)
	u.uow.On("Commit").Return(errors.New("connection lost during commit"))

	u.wagers.On("GetPendingByFight", ctx, "event-1", "fight-1").
		Return([]*models.Wager{wager}, nil)
	u.accounts.On("GetForUpdate", ctx, "account-1").
		Return(&models.Account{ID: "account-1", Balance: 900}, nil)
	u.wagers.On("TransitionFromPending", ctx, int64(1), models.WagerStatusRefunded, int64(100), mock.Anything, mock.Anything).
		Return(true, nil)
	u.accounts.On("ApplyBalanceChange", ctx, "account-1", int64(100), int64(-100), int64(0), int64(0)).
		Return(nil)
	u.transactions.On("Record", ctx, mock.Anything).Return(nil)

	committed := pendingWager(1, "account-1", "fighter-a", 100, 250)
	committed.Status = models.WagerStatusRefunded
	u.wagers.On("GetByID", ctx, int64(1)).Return(committed, nil)

	result, err := svc.ProcessRefunds(ctx, "event-1", []models.FightChange{cancelledFightChange()})

	require.NoError(t, err)
	assert.Equal(t, 1, result.BetsRefunded)
	assert.Equal(t, int64(100), result.AmountRefunded)
}

func TestProcessRefunds_NoChanges(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := newRefundService(u)

	result, err := svc.ProcessRefunds(ctx, "event-1", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.BetsRefunded)
	u.factory.AssertNotCalled(t, "Create")
}
