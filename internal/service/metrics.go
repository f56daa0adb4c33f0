package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_total",
			Help: "Total processor events ingested",
		},
		[]string{"event_type"},
	)

	ledgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Total ledger entries created",
		},
		[]string{"entry_type"},
	)

	balanceTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "balance_total",
			Help: "Most recently computed available balance, per restaurant and currency",
		},
		[]string{"restaurant_id", "currency"},
	)

	payoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payouts_total",
			Help: "Total payouts generated, by status",
		},
		[]string{"status"},
	)
)

// RecordEvent increments the events counter for the given event type.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordLedgerEntry increments the ledger entries counter for entryType.
func RecordLedgerEntry(entryType string) {
	ledgerEntriesTotal.WithLabelValues(entryType).Inc()
}

// RecordBalance sets the balance gauge for a restaurant/currency pair.
func RecordBalance(restaurantID, currency string, availableCents int64) {
	balanceTotal.WithLabelValues(restaurantID, currency).Set(float64(availableCents))
}

// RecordPayout increments the payouts counter for the given status.
func RecordPayout(status string) {
	payoutsTotal.WithLabelValues(status).Inc()
}
