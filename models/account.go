package models

import (
	"time"
)

// Account holds a bettor's virtual-currency balance. Accounts are keyed by the
// opaque identifier issued by the identity provider and are created lazily on
// the first balance query. The balance is only ever mutated alongside a
// Transaction row; TotalWagered/TotalWon/TotalLost are informational
// aggregates, not authoritative.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Balance      int64     `db:"balance" json:"balance"`
	TotalWagered int64     `db:"total_wagered" json:"total_wagered"`
	TotalWon     int64     `db:"total_won" json:"total_won"`
	TotalLost    int64     `db:"total_lost" json:"total_lost"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
