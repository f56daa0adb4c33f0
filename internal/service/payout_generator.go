package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/restaurantledger/settlement/internal/apperr"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/shared/types"
	"go.uber.org/zap"
)

// MinPayoutAmount is the floor below which a payout is not worth the
// processing cost, used by the single-restaurant admin path.
const MinPayoutAmount int64 = 10000

// PayoutGenerator creates payouts by locking and debiting available
// balance. Each restaurant's lock-compute-insert sequence runs inside its
// own transaction, an acceptable refinement of "one transaction per run"
// that isolates one restaurant's failure from the rest of a batch.
type PayoutGenerator struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPayoutGenerator creates a new payout generator.
func NewPayoutGenerator(db *sql.DB, logger *zap.Logger) *PayoutGenerator {
	return &PayoutGenerator{db: db, logger: logger}
}

// GenerateBatch iterates every active restaurant and creates a payout for
// each one eligible under minAmount, returning the count created.
func (g *PayoutGenerator) GenerateBatch(ctx context.Context, currency string, asOf time.Time, minAmount int64) (int, error) {
	listTx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin list transaction: %w", err)
	}
	ids, err := repository.NewRestaurantRepository(listTx, g.logger).ListActiveIDs(ctx)
	_ = listTx.Rollback()
	if err != nil {
		return 0, fmt.Errorf("list active restaurants: %w", err)
	}

	created := 0
	for _, restaurantID := range ids {
		payout, err := g.generateOne(ctx, restaurantID, currency, asOf, minAmount)
		if err != nil {
			if _, ok := apperr.As(err); ok {
				g.logger.Info("restaurant skipped in payout batch",
					zap.String("restaurant_id", restaurantID), zap.Error(err))
				continue
			}
			g.logger.Error("payout batch failed for restaurant",
				zap.String("restaurant_id", restaurantID), zap.Error(err))
			continue
		}
		if payout != nil {
			created++
		}
	}
	return created, nil
}

// GenerateSingle creates a payout for one restaurant using the service
// minimum, for the admin/legacy per-restaurant path. Callers get a
// structured apperr on rejection (PendingPayout, InsufficientBalance).
func (g *PayoutGenerator) GenerateSingle(ctx context.Context, restaurantID, currency string) (*types.Payout, error) {
	return g.generateOne(ctx, restaurantID, currency, time.Now().UTC(), MinPayoutAmount)
}

// generateOne runs the lock-compute-insert sequence for one restaurant in
// its own transaction. Returns (nil, nil) when the restaurant is skipped
// for an idempotent reason (duplicate as_of) during batch runs, and an
// *apperr.Error for PendingPayout / InsufficientBalance rejections.
func (g *PayoutGenerator) generateOne(ctx context.Context, restaurantID, currency string, asOf time.Time, minAmount int64) (*types.Payout, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin payout transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			g.logger.Error("failed to rollback payout transaction", zap.Error(rbErr))
		}
	}()

	ledgerRepo := repository.NewLedgerRepository(tx)
	payoutRepo := repository.NewPayoutRepository(tx)
	ledgerService := NewLedgerService(ledgerRepo)

	hasPending, err := payoutRepo.HasPending(ctx, restaurantID, currency)
	if err != nil {
		return nil, fmt.Errorf("check pending payouts: %w", err)
	}
	if hasPending {
		return nil, apperr.PendingPayout(restaurantID)
	}

	if err := ledgerRepo.LockBalance(ctx, restaurantID, currency); err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	bal, err := ledgerRepo.Balance(ctx, restaurantID, currency, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("compute locked balance: %w", err)
	}
	g.logger.Info("computed locked balance for payout generation",
		zap.String("restaurant_id", restaurantID), zap.Int64("available_cents", bal.AvailableCents))

	if bal.AvailableCents < minAmount {
		return nil, apperr.InsufficientBalance(restaurantID, bal.AvailableCents, minAmount)
	}

	items, err := g.breakdownItems(ctx, ledgerRepo, restaurantID, currency)
	if err != nil {
		return nil, fmt.Errorf("compute breakdown: %w", err)
	}

	payout, err := payoutRepo.Create(ctx, restaurantID, currency, bal.AvailableCents, asOf, nil)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePayout) {
			g.logger.Info("payout create skipped (duplicate as_of)",
				zap.String("restaurant_id", restaurantID), zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("create payout: %w", err)
	}

	if len(items) > 0 {
		if err := payoutRepo.AddItems(ctx, payout.ID, items); err != nil {
			return nil, fmt.Errorf("add payout items: %w", err)
		}
	}

	if _, err := ledgerService.CreatePayoutEntry(ctx, restaurantID, payout.ID, bal.AvailableCents, currency); err != nil {
		return nil, fmt.Errorf("post payout reserve entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payout transaction: %w", err)
	}

	RecordPayout(string(types.PayoutStatusCreated))
	RecordBalance(restaurantID, currency, 0)
	g.logger.Info("payout created",
		zap.Int64("payout_id", payout.ID), zap.String("restaurant_id", restaurantID), zap.Int64("amount_cents", bal.AvailableCents))

	payout.Items = items
	return payout, nil
}

// breakdownItems sums matured entries by entry_type and maps them to
// payout item types, dropping zero totals.
func (g *PayoutGenerator) breakdownItems(ctx context.Context, ledgerRepo *repository.LedgerRepository, restaurantID, currency string) ([]types.PayoutItem, error) {
	entries, err := ledgerRepo.ListByRestaurant(ctx, restaurantID, currency, 100000)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sums := map[types.EntryType]int64{}
	for _, e := range entries {
		if e.AvailableAt != nil && e.AvailableAt.After(now) {
			continue
		}
		sums[e.EntryType] += e.AmountCents
	}

	mapping := []struct {
		entry types.EntryType
		item  types.PayoutItemType
	}{
		{types.EntryTypeSale, types.PayoutItemNetSales},
		{types.EntryTypeCommission, types.PayoutItemFees},
		{types.EntryTypeRefund, types.PayoutItemRefunds},
	}

	var items []types.PayoutItem
	for _, m := range mapping {
		amount := sums[m.entry]
		if amount == 0 {
			continue
		}
		items = append(items, types.PayoutItem{ItemType: m.item, AmountCents: amount})
	}
	return items, nil
}
