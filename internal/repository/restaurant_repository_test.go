package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRestaurantRepository_GetOrCreate(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_upsert_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)

	logger := zap.NewNop()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()
	repo := NewRestaurantRepository(tx, logger)

	created, err := repo.GetOrCreate(ctx, restaurantID)
	if err != nil {
		t.Fatalf("GetOrCreate (first): %v", err)
	}
	if !created {
		t.Error("expected first GetOrCreate to create the row")
	}

	created, err = repo.GetOrCreate(ctx, restaurantID)
	if err != nil {
		t.Fatalf("GetOrCreate (second): %v", err)
	}
	if created {
		t.Error("expected second GetOrCreate to be a no-op")
	}
}

func TestRestaurantRepository_GetOrCreate_ConcurrentRaceUsesSavepoint(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_race_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)

	logger := zap.NewNop()
	const n = 8
	results := make([]bool, n)
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			tx, err := db.BeginTx(context.Background(), nil)
			if err != nil {
				t.Errorf("begin tx: %v", err)
				return
			}
			defer tx.Rollback()

			repo := NewRestaurantRepository(tx, logger)
			created, err := repo.GetOrCreate(context.Background(), restaurantID)
			if err != nil {
				t.Errorf("goroutine %d GetOrCreate: %v", idx, err)
				return
			}
			results[idx] = created
			if err := tx.Commit(); err != nil {
				t.Errorf("goroutine %d commit: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for _, c := range results {
		if c {
			createdCount++
		}
	}
	if createdCount != 1 {
		t.Errorf("expected exactly 1 goroutine to create the restaurant, got %d", createdCount)
	}
}

func TestRestaurantRepository_ListActiveIDs_ExcludesInactive(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	activeID := "res_active_" + time.Now().Format("20060102150405.000")
	inactiveID := "res_inactive_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, activeID)
	defer cleanupRestaurant(t, db, inactiveID)

	seedRestaurant(t, db, activeID)
	if _, err := db.Exec(`INSERT INTO restaurants (id, name, is_active) VALUES ($1, $1, false)`, inactiveID); err != nil {
		t.Fatalf("seed inactive restaurant: %v", err)
	}

	repo := NewRestaurantRepository(db, zap.NewNop())
	ids, err := repo.ListActiveIDs(context.Background())
	if err != nil {
		t.Fatalf("ListActiveIDs: %v", err)
	}

	var foundActive, foundInactive bool
	for _, id := range ids {
		if id == activeID {
			foundActive = true
		}
		if id == inactiveID {
			foundInactive = true
		}
	}
	if !foundActive {
		t.Error("expected active restaurant to be listed")
	}
	if foundInactive {
		t.Error("expected inactive restaurant to be excluded")
	}
}
