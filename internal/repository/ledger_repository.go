package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/shared/types"
)

// LedgerRepository is append-only CRUD plus balance aggregation over
// ledger_entries. Entries are never updated or deleted; a correction is
// always a new, oppositely-signed entry.
type LedgerRepository struct {
	q Querier
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(q Querier) *LedgerRepository {
	return &LedgerRepository{q: q}
}

// Insert appends a ledger entry and returns it with its assigned id and
// created_at. The caller is responsible for the sign convention: sale > 0,
// commission/refund/payout_reserve < 0.
func (r *LedgerRepository) Insert(ctx context.Context, e types.LedgerEntry) (*types.LedgerEntry, error) {
	row := r.q.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (restaurant_id, amount_cents, currency, entry_type, description, related_event_id, related_payout_id, available_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, restaurant_id, amount_cents, currency, entry_type, description, related_event_id, related_payout_id, created_at, available_at
	`, e.RestaurantID, e.AmountCents, e.Currency, e.EntryType, e.Description, e.RelatedEventID, e.RelatedPayoutID, e.AvailableAt)

	var out types.LedgerEntry
	var description sql.NullString
	if err := row.Scan(
		&out.ID, &out.RestaurantID, &out.AmountCents, &out.Currency, &out.EntryType,
		&description, &out.RelatedEventID, &out.RelatedPayoutID, &out.CreatedAt, &out.AvailableAt,
	); err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	out.Description = description.String
	return &out, nil
}

// LockBalance takes a transaction-scoped advisory lock keyed on
// (restaurant_id, currency) so concurrent payout generation for the same
// tenant serializes on the balance read. Balance
// has no single row to SELECT ... FOR UPDATE — it's an aggregate over an
// unbounded set of entries — so the lock is taken on a hash of the key
// instead of a row. Released automatically at transaction end.
func (r *LedgerRepository) LockBalance(ctx context.Context, restaurantID, currency string) error {
	_, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, restaurantID+":"+currency)
	if err != nil {
		return fmt.Errorf("acquire balance lock for %s/%s: %w", restaurantID, currency, err)
	}
	return nil
}

// Balance computes the derived balance for a restaurant/currency pair as
// of the given instant: available is the sum of entries whose
// available_at has matured (or is NULL, meaning immediately available),
// pending is the sum of entries still maturing, total is their sum. Never
// call this without LockBalance held first if the result will gate a
// write (payout creation) — read-only balance queries (the API's GET
// /balance) can call it standalone.
func (r *LedgerRepository) Balance(ctx context.Context, restaurantID, currency string, asOf time.Time) (types.RestaurantBalance, error) {
	bal := types.RestaurantBalance{RestaurantID: restaurantID, Currency: currency}

	row := r.q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN available_at IS NULL OR available_at <= $3 THEN amount_cents ELSE 0 END), 0) AS available_cents,
			COALESCE(SUM(CASE WHEN available_at IS NOT NULL AND available_at > $3 THEN amount_cents ELSE 0 END), 0) AS pending_cents,
			COALESCE(SUM(amount_cents), 0) AS total_cents,
			MAX(created_at) AS last_event_at
		FROM ledger_entries
		WHERE restaurant_id = $1 AND currency = $2
	`, restaurantID, currency, asOf)

	var lastEventAt sql.NullTime
	if err := row.Scan(&bal.AvailableCents, &bal.PendingCents, &bal.TotalCents, &lastEventAt); err != nil {
		return types.RestaurantBalance{}, fmt.Errorf("compute balance for %s/%s: %w", restaurantID, currency, err)
	}
	if lastEventAt.Valid {
		t := lastEventAt.Time
		bal.LastEventAt = &t
	}
	return bal, nil
}

// ListByRestaurant returns the entries for a restaurant/currency pair,
// most recent first, for audit and debugging endpoints.
func (r *LedgerRepository) ListByRestaurant(ctx context.Context, restaurantID, currency string, limit int) ([]types.LedgerEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, restaurant_id, amount_cents, currency, entry_type, description, related_event_id, related_payout_id, created_at, available_at
		FROM ledger_entries
		WHERE restaurant_id = $1 AND currency = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, restaurantID, currency, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries for %s/%s: %w", restaurantID, currency, err)
	}
	defer rows.Close()

	var entries []types.LedgerEntry
	for rows.Next() {
		var e types.LedgerEntry
		var description sql.NullString
		if err := rows.Scan(
			&e.ID, &e.RestaurantID, &e.AmountCents, &e.Currency, &e.EntryType,
			&description, &e.RelatedEventID, &e.RelatedPayoutID, &e.CreatedAt, &e.AvailableAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Description = description.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExistsForEvent reports whether ledger entries have already been posted
// for the given processor event. Used by the reconcile CLI command to spot
// an event row with no matching postings, which in practice only happens
// if a row was inserted outside the normal processing transaction.
func (r *LedgerRepository) ExistsForEvent(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE related_event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger entries for event %s: %w", eventID, err)
	}
	return exists, nil
}
