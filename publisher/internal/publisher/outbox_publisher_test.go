package publisher

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// publishBatch's write side needs a live broker to succeed; this exercises
// the failure path, which is reachable with an unreachable Kafka address and
// is exactly what the poll loop hits whenever Kafka is briefly unavailable.
func TestOutboxPublisher_PublishBatch_FailureLeavesRowPendingWithRecordedError(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	restaurantID := "res_pub_" + time.Now().Format("20060102150405.000")
	defer cleanupRestaurant(t, db, restaurantID)
	seedRestaurant(t, db, restaurantID)

	var outboxID int64
	if err := db.QueryRow(`
		INSERT INTO ledger_outbox (event_type, restaurant_id, payload)
		VALUES ('ledger.posting', $1, '{"event_id":"evt_pub"}')
		RETURNING id
	`, restaurantID).Scan(&outboxID); err != nil {
		t.Fatalf("seed outbox row: %v", err)
	}

	p := NewOutboxPublisher(db, "127.0.0.1:1", "ledger.postings", 10, time.Second, zap.NewNop())
	defer p.Close()

	if err := p.publishBatch(context.Background()); err != nil {
		t.Fatalf("publishBatch: %v", err)
	}

	var status string
	var attempts int
	if err := db.QueryRow(`SELECT status, publish_attempts FROM ledger_outbox WHERE id = $1`, outboxID).
		Scan(&status, &attempts); err != nil {
		t.Fatalf("read back outbox row: %v", err)
	}
	if status != "PENDING" {
		t.Errorf("expected row to remain PENDING after a failed publish, got %s", status)
	}
	if attempts != 1 {
		t.Errorf("expected publish_attempts=1, got %d", attempts)
	}
}

func TestOutboxPublisher_PublishBatch_NoRowsIsNoOp(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	p := NewOutboxPublisher(db, "127.0.0.1:1", "ledger.postings", 10, time.Second, zap.NewNop())
	defer p.Close()

	if err := p.publishBatch(context.Background()); err != nil {
		t.Fatalf("publishBatch with no pending rows: %v", err)
	}
}
