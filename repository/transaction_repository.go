package repository

import (
	"context"
	"fmt"

	"fightbook/database"
	"fightbook/models"
)

// TransactionRepository implements the service.TransactionRepository
// interface. The transactions table is append-only; there is deliberately no
// update or delete here.
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository bound to a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a ledger entry and fills in its id and created_at. The
// balance_after = balance_before + amount invariant is also enforced by a
// table constraint.
func (r *TransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	if txn.BalanceAfter != txn.BalanceBefore+txn.Amount {
		return fmt.Errorf("ledger entry violates balance invariant: %d + %d != %d",
			txn.BalanceBefore, txn.Amount, txn.BalanceAfter)
	}

	query := `
		INSERT INTO transactions
		(account_id, amount, kind, reason, ref_wager_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.AccountID,
		txn.Amount,
		txn.Kind,
		txn.Reason,
		txn.RefWagerID,
		txn.BalanceBefore,
		txn.BalanceAfter,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record transaction for account %s: %w", txn.AccountID, err)
	}

	return nil
}

// GetByAccount returns an account's ledger entries, newest first.
func (r *TransactionRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, account_id, amount, kind, reason, ref_wager_id,
		       balance_before, balance_after, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.Amount,
			&txn.Kind,
			&txn.Reason,
			&txn.RefWagerID,
			&txn.BalanceBefore,
			&txn.BalanceAfter,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// SumByAccount returns the sum of all transaction amounts for an account.
// Used to audit the conservation law: balance == starting + sum.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1`

	var sum int64
	if err := r.q.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum transactions for account %s: %w", accountID, err)
	}
	return sum, nil
}
