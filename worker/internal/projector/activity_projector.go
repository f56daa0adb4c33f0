package projector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/shared/types"
	"go.uber.org/zap"
)

// ActivityProjector maintains the restaurant_activity reporting table
// from the ledger posting feed. It is a read-only projection: it never
// writes ledger_entries or payouts, and is never consulted for balance.
type ActivityProjector struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActivityProjector creates a new activity projector.
func NewActivityProjector(db *sql.DB, logger *zap.Logger) *ActivityProjector {
	return &ActivityProjector{db: db, logger: logger}
}

// Project applies one ledger posting event. Returns shouldRetry=true for
// errors the caller should retry with backoff before falling through to
// the DLQ; false for malformed or already-applied events.
func (p *ActivityProjector) Project(ctx context.Context, posting types.LedgerPostingEvent) (shouldRetry bool, err error) {
	if len(posting.Entries) == 0 {
		p.logger.Warn("ledger posting event has no entries, skipping", zap.String("event_id", posting.EventID))
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	last := posting.Entries[len(posting.Entries)-1]

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO restaurant_activity (restaurant_id, currency, last_entry_type, last_amount_cents, last_posted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (restaurant_id, currency) DO UPDATE SET
			last_entry_type = EXCLUDED.last_entry_type,
			last_amount_cents = EXCLUDED.last_amount_cents,
			last_posted_at = EXCLUDED.last_posted_at,
			updated_at = now()
	`, posting.RestaurantID, posting.Currency, last.EntryType, last.AmountCents, last.CreatedAt)
	if err != nil {
		return true, fmt.Errorf("upsert restaurant_activity for %s/%s: %w", posting.RestaurantID, posting.Currency, err)
	}

	projectedTotal.WithLabelValues(posting.Currency).Inc()
	p.logger.Info("projected restaurant activity",
		zap.String("restaurant_id", posting.RestaurantID),
		zap.String("event_id", posting.EventID),
		zap.String("last_entry_type", string(last.EntryType)),
	)
	return false, nil
}
