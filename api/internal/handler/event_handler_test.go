package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/restaurantledger/settlement/internal/service"
	"go.uber.org/zap"
)

func TestEventHandler_CreateEvent_MalformedBodyReturns422(t *testing.T) {
	h := NewEventHandler(service.NewEventProcessor(nil, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/processor/events", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.CreateEvent(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestEventHandler_CreateEvent_MissingEventIDReturns422(t *testing.T) {
	h := NewEventHandler(service.NewEventProcessor(nil, zap.NewNop()), zap.NewNop())

	body := `{"event_type":"charge_succeeded","restaurant_id":"res_x","amount_cents":100}`
	req := httptest.NewRequest(http.MethodPost, "/v1/processor/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateEvent(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for missing event_id, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Errorf("expected VALIDATION_ERROR in body, got %s", w.Body.String())
	}
}

func TestEventHandler_CreateEvent_InvalidEventTypeReturns422(t *testing.T) {
	h := NewEventHandler(service.NewEventProcessor(nil, zap.NewNop()), zap.NewNop())

	body := `{"event_id":"evt_1","event_type":"not_a_type","restaurant_id":"res_x","amount_cents":100}`
	req := httptest.NewRequest(http.MethodPost, "/v1/processor/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateEvent(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for invalid event type, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "EVENT_INVALID_TYPE") {
		t.Errorf("expected EVENT_INVALID_TYPE in body, got %s", w.Body.String())
	}
}

func TestEventHandler_CreateEvent_CheckConstraintViolationReturns409Integrity(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_handler_integrity_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	h := NewEventHandler(service.NewEventProcessor(db, zap.NewNop()), zap.NewNop())

	// fee_cents is never validated before the insert, so a negative value
	// reaches Postgres and trips the positive_fee check constraint, which
	// must surface as a reclassified 409 rather than a 500.
	body := `{"event_id":"evt_handler_integrity","event_type":"charge_succeeded","restaurant_id":"` + restaurantID + `","amount_cents":100,"fee_cents":-5}`
	req := httptest.NewRequest(http.MethodPost, "/v1/processor/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateEvent(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "INTEGRITY_ERROR") {
		t.Errorf("expected INTEGRITY_ERROR in body, got %s", w.Body.String())
	}
}
