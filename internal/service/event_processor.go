package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/internal/apperr"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/shared/types"
	"go.uber.org/zap"
)

// EventProcessor orchestrates one processor event end to end: restaurant
// upsert, idempotent event insert, ledger posting dispatch, and outbox
// fan-out, all inside a single transaction.
type EventProcessor struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventProcessor creates a new event processor.
func NewEventProcessor(db *sql.DB, logger *zap.Logger) *EventProcessor {
	return &EventProcessor{db: db, logger: logger}
}

// Process ingests one processor event. It is safe to call repeatedly with
// the same EventID: the second and later calls are a no-op read of the
// already-posted event.
func (p *EventProcessor) Process(ctx context.Context, req types.ProcessorEventRequest) (event *types.ProcessorEvent, isNew bool, err error) {
	if !req.EventType.Valid() {
		return nil, false, apperr.InvalidEventType(string(req.EventType))
	}
	if req.RestaurantID == "" {
		return nil, false, apperr.Validation("restaurant_id is required", nil)
	}
	if req.AmountCents < 0 {
		return nil, false, apperr.Validation("amount_cents must not be negative", map[string]any{"amount_cents": req.AmountCents})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, apperr.System(fmt.Sprintf("begin transaction: %v", err), "begin_tx")
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			p.logger.Error("failed to rollback event processing transaction", zap.Error(rbErr))
		}
	}()

	restaurantRepo := repository.NewRestaurantRepository(tx, p.logger)
	eventRepo := repository.NewEventRepository(tx)
	ledgerRepo := repository.NewLedgerRepository(tx)
	ledgerService := NewLedgerService(ledgerRepo)

	if _, err := restaurantRepo.GetOrCreate(ctx, req.RestaurantID); err != nil {
		return nil, false, fmt.Errorf("upsert restaurant: %w", err)
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	created, isNew, err := eventRepo.CreateEvent(ctx, req, occurredAt)
	if err != nil {
		return nil, false, fmt.Errorf("create event: %w", err)
	}

	if isNew {
		p.logger.Info("processing new event",
			zap.String("event_id", created.EventID),
			zap.String("event_type", string(created.EventType)),
			zap.String("restaurant_id", created.RestaurantID),
		)
		RecordEvent(string(created.EventType))

		var entries []types.LedgerEntry
		switch created.EventType {
		case types.EventTypeChargeSucceeded:
			entries, err = ledgerService.CreateSaleEntries(ctx, created.RestaurantID, created.EventID, created.AmountCents, created.FeeCents, created.OccurredAt, created.Currency)
		case types.EventTypeRefundSucceeded:
			var entry *types.LedgerEntry
			entry, err = ledgerService.CreateRefundEntry(ctx, created.RestaurantID, created.EventID, created.AmountCents, created.Currency)
			if entry != nil {
				entries = []types.LedgerEntry{*entry}
			}
		case types.EventTypePayoutPaid:
			err = p.processPayoutPaid(ctx, tx, created)
		}
		if err != nil {
			return nil, false, fmt.Errorf("post ledger entries: %w", err)
		}

		if len(entries) > 0 {
			if err := p.writeOutbox(ctx, tx, created, entries); err != nil {
				return nil, false, fmt.Errorf("write outbox: %w", err)
			}
		}
	} else {
		p.logger.Info("idempotent hit: event already processed", zap.String("event_id", created.EventID))
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit event processing transaction: %w", err)
	}

	return created, isNew, nil
}

// processPayoutPaid reconciles an out-of-band payout_paid notification
// against a previously-created payout, marking it paid. A missing
// payout_id or unknown payout is logged and treated as a non-error, per
// the original implementation's reconciliation tolerance.
func (p *EventProcessor) processPayoutPaid(ctx context.Context, tx *sql.Tx, event *types.ProcessorEvent) error {
	payoutRepo := repository.NewPayoutRepository(tx)

	var meta struct {
		PayoutID *int64 `json:"payout_id"`
	}
	if len(event.Metadata) > 0 {
		if err := json.Unmarshal(event.Metadata, &meta); err != nil {
			p.logger.Warn("payout_paid event has unparseable metadata", zap.String("event_id", event.EventID), zap.Error(err))
			return nil
		}
	}
	if meta.PayoutID == nil {
		p.logger.Warn("payout_paid event missing payout_id in metadata", zap.String("event_id", event.EventID))
		return nil
	}

	payout, err := payoutRepo.GetByID(ctx, *meta.PayoutID)
	if err != nil {
		return fmt.Errorf("look up payout %d: %w", *meta.PayoutID, err)
	}
	if payout == nil {
		p.logger.Warn("payout_paid event references non-existent payout",
			zap.String("event_id", event.EventID), zap.Int64("payout_id", *meta.PayoutID))
		return nil
	}
	if payout.Status.Terminal() {
		p.logger.Info("payout already terminal, ignoring payout_paid event",
			zap.Int64("payout_id", payout.ID), zap.String("status", string(payout.Status)))
		return nil
	}

	if err := payoutRepo.UpdateStatus(ctx, payout.ID, types.PayoutStatusPaid, nil); err != nil {
		return fmt.Errorf("mark payout %d paid: %w", payout.ID, err)
	}
	RecordPayout(string(types.PayoutStatusPaid))
	p.logger.Info("payout marked paid from event", zap.Int64("payout_id", payout.ID), zap.String("event_id", event.EventID))
	return nil
}

// writeOutbox appends one ledger_outbox row carrying the entries just
// posted, inside the same transaction, so it exists if and only if the
// postings committed.
func (p *EventProcessor) writeOutbox(ctx context.Context, tx *sql.Tx, event *types.ProcessorEvent, entries []types.LedgerEntry) error {
	posting := types.LedgerPostingEvent{
		EventID:      event.EventID,
		RestaurantID: event.RestaurantID,
		Currency:     event.Currency,
		Entries:      entries,
		OccurredAt:   event.OccurredAt,
	}
	payload, err := json.Marshal(posting)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_outbox (event_type, restaurant_id, payload, status)
		VALUES ('ledger.posting', $1, $2, 'PENDING')
	`, event.RestaurantID, payload)
	return err
}
