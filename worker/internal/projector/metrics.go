package projector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetryCounter tracks consumer retry attempts by restaurant id.
	RetryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_activity_consumer_retries_total",
			Help: "Total retry attempts processing ledger posting events",
		},
		[]string{"restaurant_id"},
	)

	// DLQMessagesTotal counts messages that exhausted retries and were
	// routed to the dead-letter topic.
	DLQMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_activity_dlq_messages_total",
			Help: "Total ledger posting messages sent to the DLQ",
		},
	)

	projectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_activity_projected_total",
			Help: "Total restaurant_activity rows upserted from the ledger posting feed",
		},
		[]string{"currency"},
	)
)
