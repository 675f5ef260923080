package repository

import (
	"context"
	"errors"
	"fmt"

	"fightbook/database"
	"fightbook/models"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `id, balance, total_wagered, total_won, total_lost, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Balance,
		&account.TotalWagered,
		&account.TotalWon,
		&account.TotalLost,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by its identity-provider id. Returns nil when
// the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return account, nil
}

// GetForUpdate retrieves an account and takes a row lock for the duration of
// the surrounding transaction. Every balance mutation reads through this so
// balance_before/balance_after on the ledger entry are computed under the
// lock. Returns nil when the account does not exist.
func (r *AccountRepository) GetForUpdate(ctx context.Context, accountID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	return account, nil
}

// Create creates a new account seeded with the starting balance.
func (r *AccountRepository) Create(ctx context.Context, accountID string, startingBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, balance)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID, startingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", accountID, err)
	}
	return account, nil
}

// ApplyBalanceChange adjusts an account's balance and aggregates in one
// statement. amount is signed; wageredDelta/wonDelta/lostDelta adjust the
// informational aggregates (total_wagered is floored at zero because refunds
// subtract from it). Fails when a debit would take the balance negative.
func (r *AccountRepository) ApplyBalanceChange(ctx context.Context, accountID string, amount, wageredDelta, wonDelta, lostDelta int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1,
		    total_wagered = GREATEST(total_wagered + $2, 0),
		    total_won = total_won + $3,
		    total_lost = total_lost + $4,
		    updated_at = NOW()
		WHERE id = $5 AND balance + $1 >= 0
	`

	result, err := r.q.Exec(ctx, query, amount, wageredDelta, wonDelta, lostDelta, accountID)
	if err != nil {
		return fmt.Errorf("failed to apply balance change for account %s: %w", accountID, err)
	}

	if result.RowsAffected() == 0 {
		account, err := r.GetByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account %s not found", accountID)
		}
		return fmt.Errorf("insufficient balance: have %d, need %d", account.Balance, -amount)
	}

	return nil
}

// GetAll returns all accounts ordered by id for deterministic iteration.
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.ID,
			&account.Balance,
			&account.TotalWagered,
			&account.TotalWon,
			&account.TotalLost,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
