package service

import (
	"context"
	"testing"

	"fightbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLeaderboard_RanksByPortfolioValue(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := NewLeaderboardService(u.factory)

	u.expectUnit(false)
	u.accounts.On("GetAll", ctx).Return([]*models.Account{
		{ID: "account-1", Balance: 500, TotalWagered: 1000, TotalWon: 700, TotalLost: 300},
		{ID: "account-2", Balance: 1200},
		{ID: "account-3", Balance: 800},
	}, nil)
	u.wagers.On("OutcomeCountsByAccount", ctx).Return(map[string]*models.WagerOutcomeCounts{
		"account-1": {AccountID: "account-1", PendingStake: 900, WonCount: 3, LostCount: 1},
		"account-3": {AccountID: "account-3", PendingStake: 100, WonCount: 1, LostCount: 1},
	}, nil)

	entries, err := svc.GetLeaderboard(ctx, 0)

	require.NoError(t, err)
	require.Len(t, entries, 3)

	// account-1: 500 + 900 = 1400, account-2: 1200, account-3: 800 + 100 = 900
	assert.Equal(t, "account-1", entries[0].AccountID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(1400), entries[0].PortfolioValue)
	assert.InDelta(t, 75.0, entries[0].WinRate, 1e-9)
	assert.InDelta(t, 0.4, entries[0].ROI, 1e-9)

	assert.Equal(t, "account-2", entries[1].AccountID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, int64(1200), entries[1].PortfolioValue)

	assert.Equal(t, "account-3", entries[2].AccountID)
	assert.Equal(t, 3, entries[2].Rank)
	assert.InDelta(t, 50.0, entries[2].WinRate, 1e-9)
}

func TestGetLeaderboard_TieBrokenByAccountID(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := NewLeaderboardService(u.factory)

	u.expectUnit(false)
	u.accounts.On("GetAll", ctx).Return([]*models.Account{
		{ID: "bravo", Balance: 1000},
		{ID: "alpha", Balance: 1000},
		{ID: "charlie", Balance: 1000},
	}, nil)
	u.wagers.On("OutcomeCountsByAccount", ctx).
		Return(map[string]*models.WagerOutcomeCounts{}, nil)

	entries, err := svc.GetLeaderboard(ctx, 0)

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].AccountID)
	assert.Equal(t, "bravo", entries[1].AccountID)
	assert.Equal(t, "charlie", entries[2].AccountID)
}

func TestGetLeaderboard_NoSettledWagersNoDivisionByZero(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := NewLeaderboardService(u.factory)

	u.expectUnit(false)
	u.accounts.On("GetAll", ctx).Return([]*models.Account{
		{ID: "account-1", Balance: 1000},
	}, nil)
	u.wagers.On("OutcomeCountsByAccount", ctx).
		Return(map[string]*models.WagerOutcomeCounts{}, nil)

	entries, err := svc.GetLeaderboard(ctx, 0)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].WinRate)
	assert.Zero(t, entries[0].ROI)
}

func TestGetLeaderboard_LimitTruncates(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := NewLeaderboardService(u.factory)

	u.expectUnit(false)
	u.accounts.On("GetAll", ctx).Return([]*models.Account{
		{ID: "account-1", Balance: 300},
		{ID: "account-2", Balance: 200},
		{ID: "account-3", Balance: 100},
	}, nil)
	u.wagers.On("OutcomeCountsByAccount", ctx).
		Return(map[string]*models.WagerOutcomeCounts{}, nil)

	entries, err := svc.GetLeaderboard(ctx, 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "account-1", entries[0].AccountID)
	assert.Equal(t, "account-2", entries[1].AccountID)
}

func TestGetLeaderboard_Empty(t *testing.T) {
	ctx := context.Background()
	u := newMockUnits()
	svc := NewLeaderboardService(u.factory)

	u.expectUnit(false)
	u.accounts.On("GetAll", ctx).Return([]*models.Account{}, nil)
	u.wagers.On("OutcomeCountsByAccount", ctx).
		Return(map[string]*models.WagerOutcomeCounts{}, nil)

	entries, err := svc.GetLeaderboard(ctx, 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
}
