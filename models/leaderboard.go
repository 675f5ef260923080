package models

// LeaderboardEntry represents one account's row in the ranked leaderboard.
// PortfolioValue is balance plus the stake locked in pending wagers. WinRate
// is won/(won+lost) over non-refunded wagers, as a 0-100 percentage. ROI is
// (TotalWon-TotalLost)/TotalWagered. Both are 0 for accounts with no settled
// wagers.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	AccountID      string  `json:"account_id"`
	Balance        int64   `json:"balance"`
	PendingStake   int64   `json:"pending_stake"`
	PortfolioValue int64   `json:"portfolio_value"`
	WonCount       int     `json:"won_count"`
	LostCount      int     `json:"lost_count"`
	WinRate        float64 `json:"win_rate"`
	ROI            float64 `json:"roi"`
}
