package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantledger/settlement/internal/service"
	"go.uber.org/zap"
)

// BalanceHandler serves the restaurant balance read endpoint.
type BalanceHandler struct {
	calculator *service.BalanceCalculator
	logger     *zap.Logger
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(calculator *service.BalanceCalculator, logger *zap.Logger) *BalanceHandler {
	return &BalanceHandler{calculator: calculator, logger: logger}
}

// GetBalance handles GET /v1/restaurants/{restaurant_id}/balance.
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurant_id")
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = "PEN"
	}

	bal, err := h.calculator.GetBalance(r.Context(), restaurantID, currency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, bal)
}
