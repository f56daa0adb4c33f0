package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/internal/service"
	"github.com/restaurantledger/settlement/shared/types"
	"go.uber.org/zap"
)

func TestBalanceHandler_GetBalance_DefaultsCurrencyAndSumsEntries(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_handler_balance_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	ledgerRepo := repository.NewLedgerRepository(db)
	past := time.Now().UTC().Add(-time.Hour)
	if _, err := ledgerRepo.Insert(context.Background(), types.LedgerEntry{
		RestaurantID: restaurantID, AmountCents: 12000, Currency: "PEN",
		EntryType: types.EntryTypeSale, AvailableAt: &past,
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	h := NewBalanceHandler(service.NewBalanceCalculator(ledgerRepo), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/restaurants/"+restaurantID+"/balance", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("restaurant_id", restaurantID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.GetBalance(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var bal types.RestaurantBalance
	if err := json.Unmarshal(w.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if bal.Currency != "PEN" {
		t.Errorf("expected default currency PEN, got %q", bal.Currency)
	}
	if bal.AvailableCents != 12000 {
		t.Errorf("expected available_cents 12000, got %d", bal.AvailableCents)
	}
}
