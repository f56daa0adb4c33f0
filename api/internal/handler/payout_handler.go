package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantledger/settlement/api/internal/taskqueue"
	"github.com/restaurantledger/settlement/internal/apperr"
	"github.com/restaurantledger/settlement/internal/repository"
	"github.com/restaurantledger/settlement/internal/service"
	"go.uber.org/zap"
)

// PayoutHandler serves the payout-run, payout-get, and single-restaurant
// admin generate endpoints.
type PayoutHandler struct {
	generator *service.PayoutGenerator
	payoutRepo *repository.PayoutRepository
	queue      *taskqueue.Queue
	logger     *zap.Logger
}

// NewPayoutHandler creates a new payout handler. payoutRepo is bound
// against the shared *sql.DB for standalone reads.
func NewPayoutHandler(generator *service.PayoutGenerator, payoutRepo *repository.PayoutRepository, queue *taskqueue.Queue, logger *zap.Logger) *PayoutHandler {
	return &PayoutHandler{generator: generator, payoutRepo: payoutRepo, queue: queue, logger: logger}
}

type payoutRunRequest struct {
	Currency  string `json:"currency"`
	AsOf      string `json:"as_of"`
	MinAmount int64  `json:"min_amount"`
}

// RunBatch handles POST /v1/payouts/run. It validates the request,
// schedules the batch generator as a background task, and returns 202
// immediately — the work runs independently of this request's lifetime.
func (h *PayoutHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req payoutRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, apperr.Validation("malformed request body", nil))
		return
	}
	if req.Currency == "" {
		req.Currency = "PEN"
	}
	if req.AsOf == "" {
		writeError(w, r, h.logger, apperr.Validation("as_of is required", nil))
		return
	}
	asOf, err := time.Parse("2006-01-02", req.AsOf)
	if err != nil {
		writeError(w, r, h.logger, apperr.Validation("as_of must be YYYY-MM-DD", map[string]any{"as_of": req.AsOf}))
		return
	}
	if req.MinAmount <= 0 {
		req.MinAmount = 5000
	}

	currency, minAmount := req.Currency, req.MinAmount
	h.queue.Submit(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		count, err := h.generator.GenerateBatch(ctx, currency, asOf, minAmount)
		if err != nil {
			h.logger.Error("payout batch run failed", zap.Error(err), zap.String("currency", currency), zap.Time("as_of", asOf))
			return
		}
		h.logger.Info("payout batch run completed", zap.Int("payouts_created", count), zap.String("currency", currency), zap.Time("as_of", asOf))
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":    "payout batch run scheduled",
		"currency":   currency,
		"as_of":      req.AsOf,
		"min_amount": minAmount,
	})
}

// GetPayout handles GET /v1/payouts/{id}.
func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, h.logger, apperr.Validation("id must be numeric", map[string]any{"id": chi.URLParam(r, "id")}))
		return
	}

	payout, err := h.payoutRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, apperr.System(err.Error(), "payout_lookup"))
		return
	}
	if payout == nil {
		writeError(w, r, h.logger, apperr.NotFound("payout not found", map[string]any{"id": id}))
		return
	}

	writeJSON(w, http.StatusOK, payout)
}

// GenerateSingle handles POST /v1/payouts/{restaurant_id}/generate, the
// admin/legacy per-restaurant path.
func (h *PayoutHandler) GenerateSingle(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurant_id")
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = "PEN"
	}

	payout, err := h.generator.GenerateSingle(r.Context(), restaurantID, currency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, payout)
}
