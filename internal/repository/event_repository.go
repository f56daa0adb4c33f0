package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/restaurantledger/settlement/shared/types"
)

// EventRepository is append-only CRUD over processor_events. event_id
// uniqueness is the sole idempotency key (never updated or deleted).
type EventRepository struct {
	q Querier
}

// NewEventRepository creates a new event repository.
func NewEventRepository(q Querier) *EventRepository {
	return &EventRepository{q: q}
}

const eventColumns = `id, event_id, event_type, occurred_at, restaurant_id, currency, amount_cents, fee_cents, metadata, created_at`

func scanEvent(row *sql.Row) (*types.ProcessorEvent, error) {
	var e types.ProcessorEvent
	var metadata []byte
	if err := row.Scan(
		&e.ID, &e.EventID, &e.EventType, &e.OccurredAt, &e.RestaurantID,
		&e.Currency, &e.AmountCents, &e.FeeCents, &metadata, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		e.Metadata = metadata
	}
	return &e, nil
}

// GetByEventID returns the event with the given business key, if any.
func (r *EventRepository) GetByEventID(ctx context.Context, eventID string) (*types.ProcessorEvent, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM processor_events WHERE event_id = $1`, eventID)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by event_id: %w", err)
	}
	return event, nil
}

// GetByID returns the event with the given surrogate id, if any.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*types.ProcessorEvent, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM processor_events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return event, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation whose
// message names constraintHint (any unique violation when the hint is empty).
func isUniqueViolation(err error, constraintHint string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value violates unique constraint") &&
		(constraintHint == "" || strings.Contains(msg, strings.ToLower(constraintHint)))
}

// CreateEvent inserts a new processor event. If a concurrent request wins
// the race on the event_id unique index, the insert is skipped with ON
// CONFLICT DO NOTHING (so an enclosing transaction stays usable), the
// existing row is re-read and returned, and isNew is false.
func (r *EventRepository) CreateEvent(ctx context.Context, req types.ProcessorEventRequest, occurredAt time.Time) (event *types.ProcessorEvent, isNew bool, err error) {
	existing, err := r.GetByEventID(ctx, req.EventID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var metadataValue any
	if len(req.Metadata) > 0 {
		metadataValue = []byte(req.Metadata)
	}

	row := r.q.QueryRowContext(ctx, `
		INSERT INTO processor_events (event_id, event_type, occurred_at, restaurant_id, currency, amount_cents, fee_cents, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING `+eventColumns,
		req.EventID, req.EventType, occurredAt, req.RestaurantID, req.Currency, req.AmountCents, req.FeeCents, metadataValue,
	)
	created, insertErr := scanEvent(row)
	if errors.Is(insertErr, sql.ErrNoRows) {
		existing, getErr := r.GetByEventID(ctx, req.EventID)
		if getErr != nil {
			return nil, false, fmt.Errorf("re-read event after race: %w", getErr)
		}
		return existing, false, nil
	}
	if insertErr != nil {
		return nil, false, fmt.Errorf("create event: %w", insertErr)
	}
	return created, true, nil
}
