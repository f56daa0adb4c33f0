package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/restaurantledger/settlement/shared/types"
	"github.com/restaurantledger/settlement/worker/internal/projector"
	"go.uber.org/zap"
)

// KafkaConsumer consumes ledger posting events and drives the activity
// projector, retrying transient failures and routing exhausted messages
// to a dead-letter topic.
type KafkaConsumer struct {
	reader       *kafka.Reader
	projector    *projector.ActivityProjector
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
	dlqWriter    *kafka.Writer
}

// NewKafkaConsumer creates a new Kafka consumer bound to the ledger
// postings topic.
func NewKafkaConsumer(
	brokers string,
	topic string,
	consumerGroup string,
	dlqTopic string,
	maxRetries int,
	retryBackoff time.Duration,
	activityProjector *projector.ActivityProjector,
	logger *zap.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{brokers},
		Topic:    topic,
		GroupID:  consumerGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		MaxWait:  1 * time.Second,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		Async:        false,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}

	return &KafkaConsumer{
		reader:       reader,
		projector:    activityProjector,
		logger:       logger,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		dlqWriter:    dlqWriter,
	}
}

// Start consumes messages until ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("kafka consumer started",
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group", c.reader.Config().GroupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping...")
			return nil
		default:
			if err := c.processMessage(ctx); err != nil {
				c.logger.Error("failed to process message", zap.Error(err))
			}
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	var posting types.LedgerPostingEvent
	if err := json.Unmarshal(msg.Value, &posting); err != nil {
		c.logger.Error("failed to unmarshal ledger posting event", zap.Error(err), zap.ByteString("value", msg.Value))
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit invalid message", zap.Error(err))
		}
		return err
	}

	var lastErr error
	shouldRetry := true

	for attempt := 0; attempt < c.maxRetries && shouldRetry; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.retryBackoff
			projector.RetryCounter.WithLabelValues(posting.RestaurantID).Inc()
			c.logger.Info("retrying ledger posting projection",
				zap.String("event_id", posting.EventID), zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff))
			time.Sleep(backoff)
		}

		shouldRetry, lastErr = c.projector.Project(ctx, posting)
		if !shouldRetry {
			break
		}
	}

	if shouldRetry && lastErr != nil {
		c.logger.Error("ledger posting failed after max retries, sending to DLQ",
			zap.String("event_id", posting.EventID), zap.Int("attempts", c.maxRetries), zap.Error(lastErr))

		projector.DLQMessagesTotal.Inc()
		if err := c.sendToDLQ(ctx, msg, posting, lastErr); err != nil {
			c.logger.Error("failed to send to DLQ", zap.Error(err))
			return err
		}
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

func (c *KafkaConsumer) sendToDLQ(ctx context.Context, originalMsg kafka.Message, posting types.LedgerPostingEvent, err error) error {
	dlqMessage := kafka.Message{
		Key:   originalMsg.Key,
		Value: originalMsg.Value,
		Headers: append(originalMsg.Headers,
			kafka.Header{Key: "dlq_reason", Value: []byte(err.Error())},
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", originalMsg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", originalMsg.Offset))},
		),
	}

	if err := c.dlqWriter.WriteMessages(ctx, dlqMessage); err != nil {
		return fmt.Errorf("write to DLQ: %w", err)
	}

	c.logger.Info("message sent to DLQ", zap.String("event_id", posting.EventID), zap.String("reason", err.Error()))
	return nil
}

// Close releases the reader and DLQ writer.
func (c *KafkaConsumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}
	return c.dlqWriter.Close()
}
