package service

import (
	"context"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/shared/types"
)

// MaturityDays is how long a sale's proceeds are held pending before they
// become eligible for payout.
const MaturityDays = 7

// LedgerService builds the signed ledger postings for each processor
// event type. It never commits anything itself — every method takes a
// repository bound to the caller's transaction.
type LedgerService struct {
	ledgerRepo *repository.LedgerRepository
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(ledgerRepo *repository.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// CreateSaleEntries posts the sale entry (amount_cents, matures in
// MaturityDays) and, when fee_cents > 0, the commission entry (negative,
// immediately available) for a charge_succeeded event.
func (s *LedgerService) CreateSaleEntries(ctx context.Context, restaurantID, eventID string, amountCents, feeCents int64, occurredAt time.Time, currency string) ([]types.LedgerEntry, error) {
	availableAt := occurredAt.Add(MaturityDays * 24 * time.Hour)
	var entries []types.LedgerEntry

	sale, err := s.ledgerRepo.Insert(ctx, types.LedgerEntry{
		RestaurantID:   restaurantID,
		AmountCents:    amountCents,
		Currency:       currency,
		EntryType:      types.EntryTypeSale,
		Description:    fmt.Sprintf("Sale from event %s", eventID),
		RelatedEventID: &eventID,
		AvailableAt:    &availableAt,
	})
	if err != nil {
		return nil, fmt.Errorf("post sale entry: %w", err)
	}
	RecordLedgerEntry(string(types.EntryTypeSale))
	entries = append(entries, *sale)

	if feeCents > 0 {
		commission, err := s.ledgerRepo.Insert(ctx, types.LedgerEntry{
			RestaurantID:   restaurantID,
			AmountCents:    -feeCents,
			Currency:       currency,
			EntryType:      types.EntryTypeCommission,
			Description:    fmt.Sprintf("Commission for event %s", eventID),
			RelatedEventID: &eventID,
		})
		if err != nil {
			return nil, fmt.Errorf("post commission entry: %w", err)
		}
		RecordLedgerEntry(string(types.EntryTypeCommission))
		entries = append(entries, *commission)
	}

	return entries, nil
}

// CreateRefundEntry posts a negative refund entry, immediately available,
// for a refund_succeeded event.
func (s *LedgerService) CreateRefundEntry(ctx context.Context, restaurantID, eventID string, amountCents int64, currency string) (*types.LedgerEntry, error) {
	entry, err := s.ledgerRepo.Insert(ctx, types.LedgerEntry{
		RestaurantID:   restaurantID,
		AmountCents:    -amountCents,
		Currency:       currency,
		EntryType:      types.EntryTypeRefund,
		Description:    fmt.Sprintf("Refund from event %s", eventID),
		RelatedEventID: &eventID,
	})
	if err != nil {
		return nil, fmt.Errorf("post refund entry: %w", err)
	}
	RecordLedgerEntry(string(types.EntryTypeRefund))
	return entry, nil
}

// CreatePayoutEntry posts a negative payout_reserve entry reserving the
// payout amount out of the available balance.
func (s *LedgerService) CreatePayoutEntry(ctx context.Context, restaurantID string, payoutID int64, amountCents int64, currency string) (*types.LedgerEntry, error) {
	entry, err := s.ledgerRepo.Insert(ctx, types.LedgerEntry{
		RestaurantID:    restaurantID,
		AmountCents:     -amountCents,
		Currency:        currency,
		EntryType:       types.EntryTypePayoutReserve,
		Description:     fmt.Sprintf("Payout reserve for payout %d", payoutID),
		RelatedPayoutID: &payoutID,
	})
	if err != nil {
		return nil, fmt.Errorf("post payout reserve entry: %w", err)
	}
	RecordLedgerEntry(string(types.EntryTypePayoutReserve))
	return entry, nil
}
