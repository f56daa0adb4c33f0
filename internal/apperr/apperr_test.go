package apperr

import (
	"errors"
	"testing"
)

func TestValidation(t *testing.T) {
	err := Validation("bad amount", map[string]any{"field": "amount_cents"})
	if err.Code() != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", err.Code())
	}
	if err.Status() != 422 {
		t.Errorf("expected 422, got %d", err.Status())
	}
	if err.Details()["field"] != "amount_cents" {
		t.Errorf("expected field detail to survive, got %v", err.Details())
	}
}

func TestRestaurantNotFound(t *testing.T) {
	err := RestaurantNotFound("res_123")
	if err.Code() != "RESTAURANT_NOT_FOUND" {
		t.Errorf("expected RESTAURANT_NOT_FOUND, got %s", err.Code())
	}
	if err.Status() != 404 {
		t.Errorf("expected 404, got %d", err.Status())
	}
	if err.Details()["restaurant_id"] != "res_123" {
		t.Errorf("expected restaurant_id detail, got %v", err.Details())
	}
}

func TestInsufficientBalance(t *testing.T) {
	err := InsufficientBalance("res_1", 500, 10000)
	if err.Status() != 409 {
		t.Errorf("expected 409, got %d", err.Status())
	}
	if err.Details()["available_cents"] != int64(500) {
		t.Errorf("expected available_cents=500, got %v", err.Details()["available_cents"])
	}
}

func TestPendingPayout(t *testing.T) {
	err := PendingPayout("res_2")
	if err.Code() != "PAYOUT_ALREADY_PENDING" {
		t.Errorf("expected PAYOUT_ALREADY_PENDING, got %s", err.Code())
	}
}

func TestBusinessRule_DefaultsCode(t *testing.T) {
	err := BusinessRule("", "something went wrong", nil)
	if err.Code() != "BUSINESS_RULE_VIOLATION" {
		t.Errorf("expected default code, got %s", err.Code())
	}

	custom := BusinessRule("PAYOUT_ALREADY_PENDING", "explicit code kept", nil)
	if custom.Code() != "PAYOUT_ALREADY_PENDING" {
		t.Errorf("expected explicit code to be kept, got %s", custom.Code())
	}
}

func TestSystem_OperationSetsDatabaseErrorCode(t *testing.T) {
	plain := System("boom", "")
	if plain.Code() != "SYSTEM_ERROR" {
		t.Errorf("expected SYSTEM_ERROR with no operation, got %s", plain.Code())
	}
	if plain.Details() != nil {
		t.Errorf("expected nil details with no operation, got %v", plain.Details())
	}

	withOp := System("insert failed", "ledger_insert")
	if withOp.Code() != "DATABASE_ERROR" {
		t.Errorf("expected DATABASE_ERROR when operation is set, got %s", withOp.Code())
	}
	if withOp.Details()["operation"] != "ledger_insert" {
		t.Errorf("expected operation detail, got %v", withOp.Details())
	}
}

func TestAs(t *testing.T) {
	wrapped, ok := As(Validation("x", nil))
	if !ok || wrapped == nil {
		t.Fatal("expected ok=true for an *Error")
	}

	_, ok = As(errors.New("plain error"))
	if ok {
		t.Error("expected ok=false for a non-apperr error")
	}
}

func TestErrorSatisfiesErrorInterface(t *testing.T) {
	var err error = Integrity("duplicate key")
	if err.Error() != "duplicate key" {
		t.Errorf("expected Error() to return message, got %s", err.Error())
	}
}
