package models

import (
	"time"
)

// WagerStatus represents the lifecycle state of a wager
type WagerStatus string

const (
	WagerStatusPending  WagerStatus = "pending"
	WagerStatusWon      WagerStatus = "won"
	WagerStatusLost     WagerStatus = "lost"
	WagerStatusRefunded WagerStatus = "refunded"
)

// Wager represents one stake on one fighter in one fight of one event. A wager
// is created pending and is transitioned out of pending exactly once, by
// either the settlement engine or the refund engine. A wager with a non-nil
// SettledAt or a non-zero Payout must never be mutated again.
type Wager struct {
	ID              int64       `db:"id" json:"id"`
	AccountID       string      `db:"account_id" json:"account_id"`
	EventID         string      `db:"event_id" json:"event_id"`
	FightID         string      `db:"fight_id" json:"fight_id"`
	SelectionID     string      `db:"selection_id" json:"selection_id"`
	SelectionLabel  string      `db:"selection_label" json:"selection_label"`
	Stake           int64       `db:"stake" json:"stake"`
	OddsAmerican    int         `db:"odds_american" json:"odds_american"`
	OddsDecimal     float64     `db:"odds_decimal" json:"odds_decimal"`
	PotentialPayout int64       `db:"potential_payout" json:"potential_payout"`
	Status          WagerStatus `db:"status" json:"status"`
	Payout          int64       `db:"payout" json:"payout"`
	SettledAt       *time.Time  `db:"settled_at" json:"settled_at,omitempty"`
	RefundReason    *string     `db:"refund_reason" json:"refund_reason,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// IsSettled reports whether the wager has left the pending state.
func (w *Wager) IsSettled() bool {
	return w.Status != WagerStatusPending || w.SettledAt != nil
}

// WagerOutcomeCounts aggregates settled wager outcomes for one account.
type WagerOutcomeCounts struct {
	AccountID    string
	PendingStake int64
	WonCount     int
	LostCount    int
}
