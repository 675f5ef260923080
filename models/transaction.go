package models

import (
	"time"
)

// TransactionKind represents the type of balance change
type TransactionKind string

const (
	TransactionKindWagerPlaced   TransactionKind = "wager_placed"
	TransactionKindWagerWon      TransactionKind = "wager_won"
	TransactionKindWagerLost     TransactionKind = "wager_lost"
	TransactionKindWagerRefunded TransactionKind = "wager_refunded"
	TransactionKindAdminBonus    TransactionKind = "admin_bonus"
)

// Transaction is an append-only ledger entry. Rows are never updated or
// deleted. Amount is signed: positive credits the account, negative debits it.
// Invariant: BalanceAfter = BalanceBefore + Amount, and an account's current
// balance equals the BalanceAfter of its most recent transaction.
type Transaction struct {
	ID            int64           `db:"id" json:"id"`
	AccountID     string          `db:"account_id" json:"account_id"`
	Amount        int64           `db:"amount" json:"amount"`
	Kind          TransactionKind `db:"kind" json:"kind"`
	Reason        string          `db:"reason" json:"reason"`
	RefWagerID    *int64          `db:"ref_wager_id" json:"ref_wager_id,omitempty"`
	BalanceBefore int64           `db:"balance_before" json:"balance_before"`
	BalanceAfter  int64           `db:"balance_after" json:"balance_after"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
