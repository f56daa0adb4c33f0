package service

import (
	"context"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/shared/types"
)

// BalanceCalculator derives a restaurant's balance from the ledger. It
// never stores a balance; every call recomputes from ledger_entries.
type BalanceCalculator struct {
	ledgerRepo *repository.LedgerRepository
}

// NewBalanceCalculator creates a new balance calculator.
func NewBalanceCalculator(ledgerRepo *repository.LedgerRepository) *BalanceCalculator {
	return &BalanceCalculator{ledgerRepo: ledgerRepo}
}

// GetBalance computes the balance for a restaurant/currency pair as of
// now and records it on the balance gauge.
func (c *BalanceCalculator) GetBalance(ctx context.Context, restaurantID, currency string) (types.RestaurantBalance, error) {
	bal, err := c.ledgerRepo.Balance(ctx, restaurantID, currency, time.Now().UTC())
	if err != nil {
		return types.RestaurantBalance{}, fmt.Errorf("get balance for %s/%s: %w", restaurantID, currency, err)
	}
	RecordBalance(restaurantID, currency, bal.AvailableCents)
	return bal, nil
}
