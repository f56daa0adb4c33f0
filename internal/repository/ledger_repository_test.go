package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/restaurantledger/settlement/shared/types"
)

func seedRestaurant(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO restaurants (id, name) VALUES ($1, $1)`, id); err != nil {
		t.Fatalf("seed restaurant %s: %v", id, err)
	}
}

func TestLedgerRepository_Insert_SignConvention(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_ledger_sign_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	sale, err := repo.Insert(ctx, types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: 10000, Currency: "PEN", EntryType: types.EntryTypeSale,
	})
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}
	if sale.AmountCents <= 0 {
		t.Errorf("expected positive sale amount, got %d", sale.AmountCents)
	}

	commission, err := repo.Insert(ctx, types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: -300, Currency: "PEN", EntryType: types.EntryTypeCommission,
	})
	if err != nil {
		t.Fatalf("insert commission: %v", err)
	}
	if commission.AmountCents >= 0 {
		t.Errorf("expected negative commission amount, got %d", commission.AmountCents)
	}
}

func TestLedgerRepository_Balance_MaturityWindow(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_ledger_mature_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	repo := NewLedgerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	matured := now.Add(-1 * time.Hour)
	if _, err := repo.Insert(ctx, types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: 10000, Currency: "PEN",
		EntryType: types.EntryTypeSale, AvailableAt: &matured,
	}); err != nil {
		t.Fatalf("insert matured sale: %v", err)
	}

	future := now.Add(7 * 24 * time.Hour)
	if _, err := repo.Insert(ctx, types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: 5000, Currency: "PEN",
		EntryType: types.EntryTypeSale, AvailableAt: &future,
	}); err != nil {
		t.Fatalf("insert pending sale: %v", err)
	}

	bal, err := repo.Balance(ctx, restaurantID, "PEN", now)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.AvailableCents != 10000 {
		t.Errorf("expected available=10000, got %d", bal.AvailableCents)
	}
	if bal.PendingCents != 5000 {
		t.Errorf("expected pending=5000, got %d", bal.PendingCents)
	}
	if bal.TotalCents != 15000 {
		t.Errorf("expected total=15000, got %d", bal.TotalCents)
	}
}

func TestLedgerRepository_Balance_NilAvailableAtIsImmediate(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_ledger_nil_avail_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	if _, err := repo.Insert(ctx, types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: -200, Currency: "PEN", EntryType: types.EntryTypeCommission,
	}); err != nil {
		t.Fatalf("insert commission: %v", err)
	}

	bal, err := repo.Balance(ctx, restaurantID, "PEN", time.Now().UTC())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.AvailableCents != -200 {
		t.Errorf("expected an entry with nil available_at to count as immediately available, got %d", bal.AvailableCents)
	}
	if bal.PendingCents != 0 {
		t.Errorf("expected pending=0, got %d", bal.PendingCents)
	}
}

func TestLedgerRepository_LockBalance_RequiresTransaction(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()

	repo := NewLedgerRepository(tx)
	if err := repo.LockBalance(context.Background(), "res_lock_test", "PEN"); err != nil {
		t.Errorf("LockBalance inside a transaction should succeed, got %v", err)
	}
}

func TestLedgerRepository_ExistsForEvent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_ledger_exists_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	eventID := "evt_ledger_exists_" + time.Now().Format("20060102150405.000")
	if _, err := db.Exec(`
		INSERT INTO processor_events (event_id, event_type, occurred_at, restaurant_id, amount_cents)
		VALUES ($1, 'charge_succeeded', now(), $2, 5000)
	`, eventID, restaurantID); err != nil {
		t.Fatalf("seed processor event: %v", err)
	}

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	exists, err := repo.ExistsForEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("ExistsForEvent (before posting): %v", err)
	}
	if exists {
		t.Error("expected no ledger entries before any are posted")
	}

	if _, err := repo.Insert(ctx, types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: 5000, Currency: "PEN",
		EntryType: types.EntryTypeSale, RelatedEventID: &eventID,
	}); err != nil {
		t.Fatalf("insert sale: %v", err)
	}

	exists, err = repo.ExistsForEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("ExistsForEvent (after posting): %v", err)
	}
	if !exists {
		t.Error("expected ledger entries to exist after posting")
	}

	exists, err = repo.ExistsForEvent(ctx, "evt_never_posted")
	if err != nil {
		t.Fatalf("ExistsForEvent (unknown event): %v", err)
	}
	if exists {
		t.Error("expected no ledger entries for an unrelated event id")
	}
}
