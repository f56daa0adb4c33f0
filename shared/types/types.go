// Package types holds the wire and persistence shapes shared by the api,
// worker, publisher, and ledgerctl binaries.
package types

import (
	"encoding/json"
	"time"
)

// EventType is the kind of processor webhook observation.
type EventType string

const (
	EventTypeChargeSucceeded EventType = "charge_succeeded"
	EventTypeRefundSucceeded EventType = "refund_succeeded"
	EventTypePayoutPaid      EventType = "payout_paid"
)

// Valid reports whether t is one of the recognized processor event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeChargeSucceeded, EventTypeRefundSucceeded, EventTypePayoutPaid:
		return true
	default:
		return false
	}
}

// EntryType is the kind of ledger posting.
type EntryType string

const (
	EntryTypeSale          EntryType = "sale"
	EntryTypeCommission    EntryType = "commission"
	EntryTypeRefund        EntryType = "refund"
	EntryTypePayoutReserve EntryType = "payout_reserve"
)

// PayoutStatus is the payout lifecycle state.
type PayoutStatus string

const (
	PayoutStatusCreated    PayoutStatus = "created"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Terminal reports whether the status admits no further transition.
func (s PayoutStatus) Terminal() bool {
	return s == PayoutStatusPaid || s == PayoutStatusFailed
}

// PayoutItemType is the breakdown line kind on a payout.
type PayoutItemType string

const (
	PayoutItemNetSales PayoutItemType = "net_sales"
	PayoutItemFees     PayoutItemType = "fees"
	PayoutItemRefunds  PayoutItemType = "refunds"
)

// Restaurant is the tenant a ledger is scoped to.
type Restaurant struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	IsActive  bool            `json:"is_active"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProcessorEvent is an append-only webhook observation.
type ProcessorEvent struct {
	ID           int64           `json:"id"`
	EventID      string          `json:"event_id"`
	EventType    EventType       `json:"event_type"`
	OccurredAt   time.Time       `json:"occurred_at"`
	RestaurantID string          `json:"restaurant_id"`
	Currency     string          `json:"currency"`
	AmountCents  int64           `json:"amount_cents"`
	FeeCents     int64           `json:"fee_cents"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LedgerEntry is an immutable, signed ledger posting.
type LedgerEntry struct {
	ID              int64      `json:"id"`
	RestaurantID    string     `json:"restaurant_id"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	EntryType       EntryType  `json:"entry_type"`
	Description     string     `json:"description,omitempty"`
	RelatedEventID  *string    `json:"related_event_id,omitempty"`
	RelatedPayoutID *int64     `json:"related_payout_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	AvailableAt     *time.Time `json:"available_at,omitempty"`
}

// Payout is a materialized settlement record.
type Payout struct {
	ID             int64           `json:"id"`
	RestaurantID   string          `json:"restaurant_id"`
	AmountCents    int64           `json:"amount_cents"`
	Currency       string          `json:"currency"`
	AsOf           time.Time       `json:"as_of"`
	Status         PayoutStatus    `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	FailureReason  *string         `json:"failure_reason,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	Items          []PayoutItem    `json:"items,omitempty"`
}

// PayoutItem is one breakdown line of a Payout.
type PayoutItem struct {
	ID          int64          `json:"id"`
	PayoutID    int64          `json:"payout_id"`
	ItemType    PayoutItemType `json:"item_type"`
	AmountCents int64          `json:"amount_cents"`
}

// RestaurantBalance is the derived read model for a (restaurant, currency) pair.
type RestaurantBalance struct {
	RestaurantID  string     `json:"restaurant_id"`
	Currency      string     `json:"currency"`
	AvailableCents int64     `json:"available_cents"`
	PendingCents  int64      `json:"pending_cents"`
	TotalCents    int64      `json:"total_cents"`
	LastEventAt   *time.Time `json:"last_event_at"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// ProcessorEventRequest is the wire shape for POST /v1/processor/events.
type ProcessorEventRequest struct {
	EventID      string          `json:"event_id"`
	EventType    EventType       `json:"event_type"`
	OccurredAt   time.Time       `json:"occurred_at"`
	RestaurantID string          `json:"restaurant_id"`
	Currency     string          `json:"currency"`
	AmountCents  int64           `json:"amount_cents"`
	FeeCents     int64           `json:"fee_cents"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// ProcessorEventResponse is the wire shape returned by event ingestion.
type ProcessorEventResponse struct {
	ID           int64           `json:"id"`
	EventID      string          `json:"event_id"`
	EventType    EventType       `json:"event_type"`
	OccurredAt   time.Time       `json:"occurred_at"`
	RestaurantID string          `json:"restaurant_id"`
	Currency     string          `json:"currency"`
	AmountCents  int64           `json:"amount_cents"`
	FeeCents     int64           `json:"fee_cents"`
	CreatedAt    time.Time       `json:"created_at"`
	Idempotent   bool            `json:"idempotent"`
	Meta         map[string]any  `json:"meta,omitempty"`
}

// PayoutRunRequest is the wire shape for POST /v1/payouts/run.
type PayoutRunRequest struct {
	Currency  string    `json:"currency"`
	AsOf      time.Time `json:"as_of"`
	MinAmount int64     `json:"min_amount"`
}

// LedgerPostingEvent is the payload fanned out through the ledger_outbox /
// Kafka pipeline after an event-processing transaction commits.
type LedgerPostingEvent struct {
	EventID      string          `json:"event_id"`
	RestaurantID string          `json:"restaurant_id"`
	Currency     string          `json:"currency"`
	Entries      []LedgerEntry   `json:"entries"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
