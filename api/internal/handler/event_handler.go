package handler

import (
	"encoding/json"
	"net/http"

	"github.com/restaurantledger/settlement/internal/apperr"
	"github.com/restaurantledger/settlement/internal/service"
	"github.com/restaurantledger/settlement/shared/types"
	"go.uber.org/zap"
)

// EventHandler serves the processor event ingestion endpoint.
type EventHandler struct {
	processor *service.EventProcessor
	logger    *zap.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(processor *service.EventProcessor, logger *zap.Logger) *EventHandler {
	return &EventHandler{processor: processor, logger: logger}
}

// CreateEvent handles POST /v1/processor/events.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req types.ProcessorEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, apperr.Validation("malformed request body", nil))
		return
	}
	if req.EventID == "" || len(req.EventID) > 50 {
		writeError(w, r, h.logger, apperr.Validation("event_id must be 1..50 characters", map[string]any{"event_id": req.EventID}))
		return
	}
	if req.Currency == "" {
		req.Currency = "PEN"
	}

	event, isNew, err := h.processor.Process(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := types.ProcessorEventResponse{
		ID:           event.ID,
		EventID:      event.EventID,
		EventType:    event.EventType,
		OccurredAt:   event.OccurredAt,
		RestaurantID: event.RestaurantID,
		Currency:     event.Currency,
		AmountCents:  event.AmountCents,
		FeeCents:     event.FeeCents,
		CreatedAt:    event.CreatedAt,
		Idempotent:   !isNew,
	}

	status := http.StatusCreated
	if !isNew {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}
