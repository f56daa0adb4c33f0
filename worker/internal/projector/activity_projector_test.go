package projector

import (
	"context"
	"testing"
	"time"

	"github.com/restaurantledger/settlement/shared/types"
	"go.uber.org/zap"
)

func TestActivityProjector_Project_EmptyEntriesSkippedNoRetry(t *testing.T) {
	p := NewActivityProjector(nil, zap.NewNop())

	shouldRetry, err := p.Project(context.Background(), types.LedgerPostingEvent{EventID: "evt_empty"})
	if err != nil {
		t.Fatalf("expected no error for an entry-less posting, got %v", err)
	}
	if shouldRetry {
		t.Error("expected shouldRetry=false for an entry-less posting")
	}
}

func TestActivityProjector_Project_UpsertsLatestActivity(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_projector_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	p := NewActivityProjector(db, zap.NewNop())

	posting := types.LedgerPostingEvent{
		EventID:      "evt_projector_1_" + time.Now().Format("20060102150405.000"),
		RestaurantID: restaurantID,
		Currency:     "PEN",
		OccurredAt:   time.Now().UTC(),
		Entries: []types.LedgerEntry{
			{EntryType: types.EntryTypeSale, AmountCents: 10000, CreatedAt: time.Now().UTC()},
			{EntryType: types.EntryTypeCommission, AmountCents: -300, CreatedAt: time.Now().UTC()},
		},
	}

	shouldRetry, err := p.Project(context.Background(), posting)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if shouldRetry {
		t.Error("expected shouldRetry=false on success")
	}

	var lastType string
	var lastAmount int64
	if err := db.QueryRow(`
		SELECT last_entry_type, last_amount_cents FROM restaurant_activity
		WHERE restaurant_id = $1 AND currency = $2
	`, restaurantID, "PEN").Scan(&lastType, &lastAmount); err != nil {
		t.Fatalf("read back restaurant_activity: %v", err)
	}
	if lastType != string(types.EntryTypeCommission) || lastAmount != -300 {
		t.Errorf("expected last entry to be the commission row (-300), got %s/%d", lastType, lastAmount)
	}

	// A second posting should overwrite, not duplicate, the row.
	posting2 := posting
	posting2.EventID = "evt_projector_2_" + time.Now().Format("20060102150405.000")
	posting2.Entries = []types.LedgerEntry{
		{EntryType: types.EntryTypeRefund, AmountCents: -500, CreatedAt: time.Now().UTC()},
	}
	if _, err := p.Project(context.Background(), posting2); err != nil {
		t.Fatalf("Project (second): %v", err)
	}

	var rowCount int
	if err := db.QueryRow(`SELECT count(*) FROM restaurant_activity WHERE restaurant_id = $1`, restaurantID).Scan(&rowCount); err != nil {
		t.Fatalf("count restaurant_activity rows: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("expected exactly 1 restaurant_activity row per restaurant/currency, got %d", rowCount)
	}
}

func TestActivityProjector_Project_RetriesOnDatabaseError(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	defer cleanupRestaurant(t, db, "res_projector_missing")

	p := NewActivityProjector(db, zap.NewNop())

	posting := types.LedgerPostingEvent{
		EventID:      "evt_projector_missing",
		RestaurantID: "res_projector_missing",
		Currency:     "PEN",
		Entries: []types.LedgerEntry{
			{EntryType: types.EntryTypeSale, AmountCents: 100, CreatedAt: time.Now().UTC()},
		},
	}

	shouldRetry, err := p.Project(context.Background(), posting)
	if err == nil {
		t.Fatal("expected a foreign key error for a restaurant that was never seeded")
	}
	if !shouldRetry {
		t.Error("expected shouldRetry=true for a database error")
	}
}
