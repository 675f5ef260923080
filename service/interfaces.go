package service

import (
	"context"
	"time"

	"fightbook/events"
	"fightbook/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account, or nil when it does not exist
	GetByID(ctx context.Context, accountID string) (*models.Account, error)

	// GetForUpdate retrieves an account under a row lock for the duration of
	// the surrounding transaction
	GetForUpdate(ctx context.Context, accountID string) (*models.Account, error)

	// Create creates a new account seeded with the starting balance
	Create(ctx context.Context, accountID string, startingBalance int64) (*models.Account, error)

	// ApplyBalanceChange adjusts balance and the informational aggregates in
	// one statement, failing if a debit would take the balance negative
	ApplyBalanceChange(ctx context.Context, accountID string, amount, wageredDelta, wonDelta, lostDelta int64) error

	// GetAll returns all accounts
	GetAll(ctx context.Context) ([]*models.Account, error)
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	// Create inserts a new pending wager
	Create(ctx context.Context, wager *models.Wager) error

	// GetByID retrieves a wager, or nil when not found
	GetByID(ctx context.Context, id int64) (*models.Wager, error)

	// GetByAccount returns an account's wagers, newest first
	GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.Wager, error)

	// GetPendingByEvent returns all pending wagers on an event
	GetPendingByEvent(ctx context.Context, eventID string) ([]*models.Wager, error)

	// GetPendingByFight returns all pending wagers on one fight
	GetPendingByFight(ctx context.Context, eventID, fightID string) ([]*models.Wager, error)

	// TransitionFromPending atomically moves a pending wager to a terminal
	// state; returns false when the wager already left pending
	TransitionFromPending(ctx context.Context, wagerID int64, to models.WagerStatus, payout int64, settledAt time.Time, refundReason *string) (bool, error)

	// OutcomeCountsByAccount aggregates pending stake and settled outcomes
	// per account
	OutcomeCountsByAccount(ctx context.Context) (map[string]*models.WagerOutcomeCounts, error)
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Record appends a ledger entry
	Record(ctx context.Context, txn *models.Transaction) error

	// GetByAccount returns an account's ledger entries, newest first
	GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error)

	// SumByAccount returns the sum of all amounts recorded for an account
	SumByAccount(ctx context.Context, accountID string) (int64, error)
}

// SnapshotRepository defines the interface for results feed snapshots
type SnapshotRepository interface {
	// Insert stores a new snapshot
	Insert(ctx context.Context, snapshot *models.EventSnapshot) error

	// GetLatestByEvent returns the most recent snapshot of an event, or nil
	GetLatestByEvent(ctx context.Context, eventID string) (*models.EventSnapshot, error)

	// GetLatestPair returns the two most recent snapshots sharing a source
	// URL: current first, then previous (nil when only one exists)
	GetLatestPair(ctx context.Context, sourceURL string) (current, previous *models.EventSnapshot, err error)

	// GetActiveSourceURLs returns source URLs whose latest snapshot is active
	GetActiveSourceURLs(ctx context.Context) ([]string, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	WagerRepository() WagerRepository
	TransactionRepository() TransactionRepository
	SnapshotRepository() SnapshotRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// AccountService defines the interface for account operations
type AccountService interface {
	// GetOrCreateAccount retrieves an account, creating it with the starting
	// balance on first access
	GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error)

	// GrantBonus credits an account outside the wager lifecycle
	GrantBonus(ctx context.Context, accountID string, amount int64, reason string) (*models.Account, error)

	// ListWagers returns an account's wagers, newest first
	ListWagers(ctx context.Context, accountID string, limit int) ([]*models.Wager, error)

	// ListTransactions returns an account's ledger entries, newest first
	ListTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error)
}

// PlacementService defines the interface for wager placement
type PlacementService interface {
	// PlaceWager validates the request against the prediction window and the
	// account balance, then atomically debits the stake and records the
	// wager and its ledger entry
	PlaceWager(ctx context.Context, req PlaceWagerRequest) (*models.Wager, error)
}

// PlaceWagerRequest carries one placement request.
type PlaceWagerRequest struct {
	AccountID      string
	EventID        string
	FightID        string
	SelectionID    string
	SelectionLabel string
	Stake          int64
	OddsAmerican   int
}

// RefundService defines the interface for the refund engine
type RefundService interface {
	// ProcessRefunds refunds all pending wagers on the flagged fights. Each
	// wager's refund is its own atomic unit; per-wager failures are collected
	// into a PartialBatchFailure and do not stop the batch.
	ProcessRefunds(ctx context.Context, eventID string, changes []models.FightChange) (*models.RefundResult, error)
}

// SettlementService defines the interface for the settlement engine
type SettlementService interface {
	// SettleEvent resolves every pending wager on the event's decided fights
	// to won or lost and pays winners. Safe to re-run: settled wagers are
	// skipped.
	SettleEvent(ctx context.Context, eventID string) (*models.SettlementResult, error)
}

// LeaderboardService defines the read-only portfolio projection
type LeaderboardService interface {
	// GetLeaderboard ranks accounts by portfolio value (balance + pending
	// stake), ties broken by account id
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// WinnerResolver maps a fight's published winner name to a fighter id.
// Pluggable so a stricter identifier-based match can replace the fuzzy
// name match without touching the settlement state machine.
type WinnerResolver interface {
	// Resolve returns the winning fighter's selection id, or
	// ErrUnresolvableWinner when the name matches neither fighter
	Resolve(fight *models.Fight) (string, error)
}

// ResultsProcessor is the single entry point for reacting to a results feed
// update: change detection and refunds first, then settlement. Invoked by
// the HTTP layer and the periodic worker alike.
type ResultsProcessor interface {
	// IngestSnapshot stores a snapshot and immediately processes the event
	IngestSnapshot(ctx context.Context, snapshot *models.EventSnapshot) error

	// ProcessEvent runs refund detection and settlement for one source URL
	ProcessEvent(ctx context.Context, sourceURL string) error

	// ProcessActiveEvents runs ProcessEvent for every active event
	ProcessActiveEvents(ctx context.Context) error
}
