package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fightbook/database"
	"fightbook/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SnapshotRepository stores the immutable event snapshots published by the
// results feed. Snapshots are only ever inserted; change detection reads the
// two most recent rows sharing a source URL.
type SnapshotRepository struct {
	q queryable
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *database.DB) *SnapshotRepository {
	return &SnapshotRepository{q: db.Pool}
}

// newSnapshotRepositoryWithTx creates a new snapshot repository bound to a transaction
func newSnapshotRepositoryWithTx(tx queryable) *SnapshotRepository {
	return &SnapshotRepository{q: tx}
}

const snapshotColumns = `id, event_id, source_url, event_name, event_start_time, is_active, scraped_at, fights`

func scanSnapshot(row pgx.Row) (*models.EventSnapshot, error) {
	var snapshot models.EventSnapshot
	var fightsJSON []byte

	err := row.Scan(
		&snapshot.ID,
		&snapshot.EventID,
		&snapshot.SourceURL,
		&snapshot.EventName,
		&snapshot.EventStartTime,
		&snapshot.IsActive,
		&snapshot.ScrapedAt,
		&fightsJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(fightsJSON) > 0 {
		if err := json.Unmarshal(fightsJSON, &snapshot.Fights); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fights: %w", err)
		}
	}

	return &snapshot, nil
}

// Insert stores a new snapshot, assigning its id when unset.
func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *models.EventSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}

	fightsJSON, err := json.Marshal(snapshot.Fights)
	if err != nil {
		return fmt.Errorf("failed to marshal fights: %w", err)
	}

	query := `
		INSERT INTO event_snapshots
		(id, event_id, source_url, event_name, event_start_time, is_active, scraped_at, fights)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.q.Exec(ctx, query,
		snapshot.ID,
		snapshot.EventID,
		snapshot.SourceURL,
		snapshot.EventName,
		snapshot.EventStartTime,
		snapshot.IsActive,
		snapshot.ScrapedAt,
		fightsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot for event %s: %w", snapshot.EventID, err)
	}

	return nil
}

// GetLatestByEvent returns the most recent snapshot of an event, or nil.
func (r *SnapshotRepository) GetLatestByEvent(ctx context.Context, eventID string) (*models.EventSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM event_snapshots
		WHERE event_id = $1
		ORDER BY scraped_at DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(r.q.QueryRow(ctx, query, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot for event %s: %w", eventID, err)
	}
	return snapshot, nil
}

// GetLatestPair returns the two most recent snapshots sharing the given
// source URL: current first, previous second. previous is nil when only one
// snapshot exists.
func (r *SnapshotRepository) GetLatestPair(ctx context.Context, sourceURL string) (current, previous *models.EventSnapshot, err error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM event_snapshots
		WHERE source_url = $1
		ORDER BY scraped_at DESC
		LIMIT 2
	`

	rows, err := r.q.Query(ctx, query, sourceURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get snapshot pair for %s: %w", sourceURL, err)
	}
	defer rows.Close()

	var snapshots []*models.EventSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	switch len(snapshots) {
	case 0:
		return nil, nil, nil
	case 1:
		return snapshots[0], nil, nil
	default:
		return snapshots[0], snapshots[1], nil
	}
}

// GetActiveSourceURLs returns the source URLs whose latest snapshot is still
// marked active. The results processor iterates these.
func (r *SnapshotRepository) GetActiveSourceURLs(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ON (source_url) source_url
		FROM event_snapshots s
		WHERE NOT EXISTS (
			SELECT 1 FROM event_snapshots newer
			WHERE newer.source_url = s.source_url
			  AND newer.scraped_at > s.scraped_at
		) AND s.is_active
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active source URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan source URL: %w", err)
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source URLs: %w", err)
	}

	return urls, nil
}
