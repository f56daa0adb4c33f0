package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/shared/types"
)

// ErrDuplicatePayout indicates Create lost a race (or was retried) against
// the uq_payout_restaurant_currency_asof constraint: a payout already
// exists for this restaurant, currency, and as_of date.
var ErrDuplicatePayout = errors.New("payout already exists for this restaurant/currency/as_of")

// PayoutRepository is typed CRUD over payouts and their breakdown items.
type PayoutRepository struct {
	q Querier
}

// NewPayoutRepository creates a new payout repository.
func NewPayoutRepository(q Querier) *PayoutRepository {
	return &PayoutRepository{q: q}
}

// HasPending reports whether a restaurant already has a non-terminal
// payout for the given currency. It takes no lock, so two concurrent
// requests can both observe none pending.
func (r *PayoutRepository) HasPending(ctx context.Context, restaurantID, currency string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM payouts
			WHERE restaurant_id = $1 AND currency = $2 AND status IN ('created', 'processing')
		)
	`, restaurantID, currency).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending payouts for %s/%s: %w", restaurantID, currency, err)
	}
	return exists, nil
}

// Create inserts a new payout in the 'created' status. asOf is stored as
// the payout's as_of date, part of the (restaurant_id, currency, as_of)
// unique key; a second payout for the same key yields ErrDuplicatePayout.
func (r *PayoutRepository) Create(ctx context.Context, restaurantID, currency string, amountCents int64, asOf time.Time, metadata []byte) (*types.Payout, error) {
	var metadataValue any
	if len(metadata) > 0 {
		metadataValue = metadata
	}

	row := r.q.QueryRowContext(ctx, `
		INSERT INTO payouts (restaurant_id, amount_cents, currency, as_of, status, metadata)
		VALUES ($1, $2, $3, $4, 'created', $5)
		RETURNING id, restaurant_id, amount_cents, currency, as_of, status, created_at, paid_at, failure_reason, metadata
	`, restaurantID, amountCents, currency, asOf, metadataValue)

	payout, err := scanPayout(row)
	if err != nil {
		if isUniqueViolation(err, "uq_payout_restaurant_currency_asof") {
			return nil, fmt.Errorf("%w: %s/%s as of %s", ErrDuplicatePayout, restaurantID, currency, asOf)
		}
		return nil, fmt.Errorf("create payout: %w", err)
	}
	return payout, nil
}

// AddItems inserts the breakdown lines for a payout.
func (r *PayoutRepository) AddItems(ctx context.Context, payoutID int64, items []types.PayoutItem) error {
	for _, item := range items {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO payout_items (payout_id, item_type, amount_cents)
			VALUES ($1, $2, $3)
		`, payoutID, item.ItemType, item.AmountCents); err != nil {
			return fmt.Errorf("add payout item %s for payout %d: %w", item.ItemType, payoutID, err)
		}
	}
	return nil
}

// GetByID returns a payout with its items, or nil if not found.
func (r *PayoutRepository) GetByID(ctx context.Context, id int64) (*types.Payout, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, restaurant_id, amount_cents, currency, as_of, status, created_at, paid_at, failure_reason, metadata
		FROM payouts WHERE id = $1
	`, id)
	payout, err := scanPayout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payout %d: %w", id, err)
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	payout.Items = items
	return payout, nil
}

func (r *PayoutRepository) itemsFor(ctx context.Context, payoutID int64) ([]types.PayoutItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, payout_id, item_type, amount_cents FROM payout_items WHERE payout_id = $1 ORDER BY id
	`, payoutID)
	if err != nil {
		return nil, fmt.Errorf("list payout items for %d: %w", payoutID, err)
	}
	defer rows.Close()

	var items []types.PayoutItem
	for rows.Next() {
		var item types.PayoutItem
		if err := rows.Scan(&item.ID, &item.PayoutID, &item.ItemType, &item.AmountCents); err != nil {
			return nil, fmt.Errorf("scan payout item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus transitions a payout's status, stamping paid_at or
// failure_reason as appropriate. Callers must not transition a payout
// whose current status is already Terminal(); the service layer enforces
// this before calling UpdateStatus.
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id int64, status types.PayoutStatus, failureReason *string) error {
	var paidAt any
	if status == types.PayoutStatusPaid {
		paidAt = time.Now().UTC()
	}

	result, err := r.q.ExecContext(ctx, `
		UPDATE payouts SET status = $2, paid_at = COALESCE($3, paid_at), failure_reason = $4
		WHERE id = $1
	`, id, status, paidAt, failureReason)
	if err != nil {
		return fmt.Errorf("update payout %d status to %s: %w", id, status, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for payout %d update: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("payout %d not found", id)
	}
	return nil
}

func scanPayout(row *sql.Row) (*types.Payout, error) {
	var p types.Payout
	var failureReason sql.NullString
	var paidAt sql.NullTime
	var metadata []byte
	if err := row.Scan(
		&p.ID, &p.RestaurantID, &p.AmountCents, &p.Currency, &p.AsOf, &p.Status,
		&p.CreatedAt, &paidAt, &failureReason, &metadata,
	); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if failureReason.Valid {
		p.FailureReason = &failureReason.String
	}
	if len(metadata) > 0 {
		p.Metadata = metadata
	}
	return &p, nil
}
