package models

import (
	"strings"
)

// RefundType determines how much of the stake a flagged fight returns.
type RefundType string

const (
	RefundTypeFull    RefundType = "full"
	RefundTypePartial RefundType = "partial"
)

// Change reasons reported by the change detector.
const (
	ChangeReasonFighterSubstitution = "fighter substitution detected"
	ChangeReasonFightCancelled      = "fight cancelled"
	ChangeReasonWeightClassChanged  = "weight class changed"
	ChangeReasonTitleStatusChanged  = "title fight status changed"
	ChangeReasonFightRemoved        = "fight removed from card"
)

// FightChange describes a fight-level delta between two snapshots of the same
// event that must trigger refunds. A fight accumulates reasons as a set and is
// reported at most once. Not persisted; produced by the change detector and
// consumed once by the refund engine.
type FightChange struct {
	FightID    string
	Reasons    []string
	RefundType RefundType
}

// ReasonText joins the accumulated reasons for storage on refunded wagers.
func (c *FightChange) ReasonText() string {
	return strings.Join(c.Reasons, "; ")
}

// RefundResult summarizes one refund engine run, for the caller and for the
// notification collaborator.
type RefundResult struct {
	BetsRefunded     int
	AmountRefunded   int64
	AccountsAffected int
}

// SettlementResult summarizes one settlement engine run.
type SettlementResult struct {
	SettledCount int
	WonCount     int
	LostCount    int
	PaidOut      int64
}
