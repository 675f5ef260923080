package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fightbook/database"
	"fightbook/models"
	"github.com/jackc/pgx/v5"
)

// WagerRepository implements the service.WagerRepository interface
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository bound to a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `id, account_id, event_id, fight_id, selection_id, selection_label,
	stake, odds_american, odds_decimal, potential_payout, status, payout,
	settled_at, refund_reason, created_at`

func scanWagerRow(row pgx.Row) (*models.Wager, error) {
	var wager models.Wager
	err := row.Scan(
		&wager.ID,
		&wager.AccountID,
		&wager.EventID,
		&wager.FightID,
		&wager.SelectionID,
		&wager.SelectionLabel,
		&wager.Stake,
		&wager.OddsAmerican,
		&wager.OddsDecimal,
		&wager.PotentialPayout,
		&wager.Status,
		&wager.Payout,
		&wager.SettledAt,
		&wager.RefundReason,
		&wager.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wager, nil
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*models.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWagerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}

	return wagers, nil
}

// Create inserts a new pending wager and fills in its id and created_at.
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	query := `
		INSERT INTO wagers
		(account_id, event_id, fight_id, selection_id, selection_label,
		 stake, odds_american, odds_decimal, potential_payout, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		wager.AccountID,
		wager.EventID,
		wager.FightID,
		wager.SelectionID,
		wager.SelectionLabel,
		wager.Stake,
		wager.OddsAmerican,
		wager.OddsDecimal,
		wager.PotentialPayout,
		wager.Status,
	).Scan(&wager.ID, &wager.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create wager for account %s: %w", wager.AccountID, err)
	}

	return nil
}

// GetByID retrieves a wager by its id. Returns nil when not found.
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWagerRow(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return wager, nil
}

// GetByAccount returns an account's wagers, newest first.
func (r *WagerRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	wagers, err := r.queryWagers(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers for account %s: %w", accountID, err)
	}
	return wagers, nil
}

// GetPendingByEvent returns all pending wagers on an event.
func (r *WagerRepository) GetPendingByEvent(ctx context.Context, eventID string) ([]*models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE event_id = $1 AND status = 'pending'
		ORDER BY id
	`

	wagers, err := r.queryWagers(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wagers for event %s: %w", eventID, err)
	}
	return wagers, nil
}

// GetPendingByFight returns all pending wagers on one fight of an event.
func (r *WagerRepository) GetPendingByFight(ctx context.Context, eventID, fightID string) ([]*models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE event_id = $1 AND fight_id = $2 AND status = 'pending'
		ORDER BY id
	`

	wagers, err := r.queryWagers(ctx, query, eventID, fightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wagers for fight %s/%s: %w", eventID, fightID, err)
	}
	return wagers, nil
}

// TransitionFromPending atomically moves a pending wager to a terminal state.
// The write succeeds only while the stored status is still pending and the
// idempotency gate columns are untouched, so two racing settlements (or a
// settlement racing a refund) can never both pay out. Returns false when the
// wager already left pending; callers treat that as "skip, no mutation".
func (r *WagerRepository) TransitionFromPending(ctx context.Context, wagerID int64, to models.WagerStatus, payout int64, settledAt time.Time, refundReason *string) (bool, error) {
	query := `
		UPDATE wagers
		SET status = $1, payout = $2, settled_at = $3, refund_reason = $4
		WHERE id = $5 AND status = 'pending' AND settled_at IS NULL AND payout = 0
	`

	result, err := r.q.Exec(ctx, query, to, payout, settledAt, refundReason, wagerID)
	if err != nil {
		return false, fmt.Errorf("failed to transition wager %d to %s: %w", wagerID, to, err)
	}

	return result.RowsAffected() == 1, nil
}

// OutcomeCountsByAccount aggregates pending stake and settled outcome counts
// per account, for the leaderboard projection. Refunded wagers count toward
// neither side of the win rate.
func (r *WagerRepository) OutcomeCountsByAccount(ctx context.Context) (map[string]*models.WagerOutcomeCounts, error) {
	query := `
		SELECT account_id,
		       COALESCE(SUM(stake) FILTER (WHERE status = 'pending'), 0),
		       COUNT(*) FILTER (WHERE status = 'won'),
		       COUNT(*) FILTER (WHERE status = 'lost')
		FROM wagers
		GROUP BY account_id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate wager outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]*models.WagerOutcomeCounts)
	for rows.Next() {
		var c models.WagerOutcomeCounts
		if err := rows.Scan(&c.AccountID, &c.PendingStake, &c.WonCount, &c.LostCount); err != nil {
			return nil, fmt.Errorf("failed to scan wager outcome counts: %w", err)
		}
		counts[c.AccountID] = &c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wager outcome counts: %w", err)
	}

	return counts, nil
}
