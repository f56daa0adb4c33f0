package repository

import (
	"context"
	"fmt"
	"time"
)

// OutboxRow is one pending or published ledger_outbox record.
type OutboxRow struct {
	ID           int64
	EventType    string
	RestaurantID string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository polls and mutates ledger_outbox.
type OutboxRepository struct {
	q Querier
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(q Querier) *OutboxRepository {
	return &OutboxRepository{q: q}
}

// ClaimPending locks up to limit pending rows with SELECT ... FOR UPDATE
// SKIP LOCKED so multiple publisher instances can poll concurrently
// without double-publishing the same row. Must be called within a
// transaction for the lock to outlive the query; q being *sql.DB releases
// the lock when the autocommit statement ends — the publisher binary
// passes the *sql.DB pool here.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, event_type, restaurant_id, payload, created_at
		FROM ledger_outbox
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending outbox rows: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.EventType, &row.RestaurantID, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished transitions a row to PUBLISHED and stamps published_at.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE ledger_outbox SET status = 'PUBLISHED', published_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark outbox row %d published: %w", id, err)
	}
	return nil
}

// RecordError bumps the attempt counter and stores the last error,
// leaving the row PENDING for the next poll tick.
func (r *OutboxRepository) RecordError(ctx context.Context, id int64, errMsg string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE ledger_outbox SET publish_attempts = publish_attempts + 1, last_error = $2 WHERE id = $1
	`, id, errMsg)
	if err != nil {
		return fmt.Errorf("record outbox row %d error: %w", id, err)
	}
	return nil
}
