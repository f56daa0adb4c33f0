package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/restaurantledger/settlement/internal/repository"
	"go.uber.org/zap"
)

// OutboxPublisher polls ledger_outbox for pending rows and publishes each
// to Kafka, marking it published on success. Publish failures are left
// PENDING and retried on the next poll tick; they never touch the ledger
// tables themselves.
type OutboxPublisher struct {
	db           repository.Querier
	outboxRepo   *repository.OutboxRepository
	writer       *kafka.Writer
	logger       *zap.Logger
	batchSize    int
	pollInterval time.Duration
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(
	db repository.Querier,
	kafkaBrokers string,
	topic string,
	batchSize int,
	pollInterval time.Duration,
	logger *zap.Logger,
) *OutboxPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(kafkaBrokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        false,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}

	return &OutboxPublisher{
		db:           db,
		outboxRepo:   repository.NewOutboxRepository(db),
		writer:       writer,
		logger:       logger,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// Start runs the poll loop until ctx is cancelled.
func (p *OutboxPublisher) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.Info("outbox publisher started", zap.Int("batch_size", p.batchSize), zap.Duration("poll_interval", p.pollInterval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopping...")
			return nil
		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Error("failed to publish outbox batch", zap.Error(err))
			}
		}
	}
}

func (p *OutboxPublisher) publishBatch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := p.outboxRepo.ClaimPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("claim pending outbox rows: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	p.logger.Debug("publishing outbox batch", zap.Int("count", len(rows)))

	for _, row := range rows {
		if err := p.publishOne(ctx, row); err != nil {
			if markErr := p.outboxRepo.RecordError(ctx, row.ID, err.Error()); markErr != nil {
				p.logger.Error("failed to record outbox publish error", zap.Int64("outbox_id", row.ID), zap.Error(markErr))
			}
			continue
		}
		if err := p.outboxRepo.MarkPublished(ctx, row.ID); err != nil {
			p.logger.Error("failed to mark outbox row published", zap.Int64("outbox_id", row.ID), zap.Error(err))
		}
	}
	return nil
}

func (p *OutboxPublisher) publishOne(ctx context.Context, row repository.OutboxRow) error {
	message := kafka.Message{
		Key:   []byte(row.RestaurantID),
		Value: row.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(row.EventType)},
			{Key: "restaurant_id", Value: []byte(row.RestaurantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	p.logger.Info("outbox row published", zap.Int64("outbox_id", row.ID), zap.String("event_type", row.EventType), zap.String("restaurant_id", row.RestaurantID))
	return nil
}

// Close releases the Kafka writer.
func (p *OutboxPublisher) Close() error {
	return p.writer.Close()
}
