package service

import (
	"context"
	"fmt"
	"sort"

	"fightbook/models"
)

type leaderboardService struct {
	uowFactory UnitOfWorkFactory
}

// NewLeaderboardService creates the read-only leaderboard projection
func NewLeaderboardService(uowFactory UnitOfWorkFactory) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
	}
}

// GetLeaderboard ranks accounts descending by portfolio value (balance plus
// stake locked in pending wagers), ties broken by account id so the order is
// deterministic. Accounts with no settled wagers report a 0 win rate and ROI
// rather than dividing by zero. Read-only; no side effects.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accounts, err := uow.AccountRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	counts, err := uow.WagerRepository().OutcomeCountsByAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager outcome counts: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(accounts))
	for _, account := range accounts {
		entry := &models.LeaderboardEntry{
			AccountID: account.ID,
			Balance:   account.Balance,
		}

		if c, ok := counts[account.ID]; ok {
			entry.PendingStake = c.PendingStake
			entry.WonCount = c.WonCount
			entry.LostCount = c.LostCount
		}

		entry.PortfolioValue = entry.Balance + entry.PendingStake

		if settled := entry.WonCount + entry.LostCount; settled > 0 {
			entry.WinRate = float64(entry.WonCount) / float64(settled) * 100
		}
		if account.TotalWagered > 0 {
			entry.ROI = float64(account.TotalWon-account.TotalLost) / float64(account.TotalWagered)
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PortfolioValue != entries[j].PortfolioValue {
			return entries[i].PortfolioValue > entries[j].PortfolioValue
		}
		return entries[i].AccountID < entries[j].AccountID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
