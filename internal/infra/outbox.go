package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/attaboy/playerdata/internal/domain"
)

// OutboxSource is the outbox side of a store.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRow, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

// Publisher delivers one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller relays outbox events to Kafka.
type OutboxPoller struct {
	source    OutboxSource
	producer  Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller. Non-positive interval or
// batchSize fall back to 500ms and 100.
func NewOutboxPoller(source OutboxSource, producer Publisher, logger *slog.Logger, interval time.Duration, batchSize int) *OutboxPoller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		source:    source,
		producer:  producer,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// envelope is the Kafka message value.
type envelope struct {
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Start runs the poller in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	go p.Run(ctx)
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// Poll relays one batch and returns how many events were published. A
// publish failure ends the batch so later events of the same player are
// not sent ahead of it.
func (p *OutboxPoller) Poll(ctx context.Context) (int, error) {
	rows, err := p.source.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(rows))
	var publishErr error
	for _, row := range rows {
		msg, err := json.Marshal(envelope{
			EventID:       row.EventID.String(),
			AggregateType: string(row.AggregateType),
			AggregateID:   row.AggregateID,
			EventType:     string(row.EventType),
			Payload:       row.Payload,
			OccurredAt:    row.OccurredAt,
		})
		if err != nil {
			publishErr = fmt.Errorf("encode event %s: %w", row.EventID, err)
			break
		}
		if err := p.producer.Publish(ctx, row.Topic(), []byte(row.PartitionKey), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", row.EventID, "error", err)
			publishErr = fmt.Errorf("publish event %s: %w", row.EventID, err)
			break
		}
		published = append(published, row.SeqID)
	}

	if len(published) > 0 {
		if err := p.source.MarkPublished(ctx, published); err != nil {
			return 0, fmt.Errorf("mark published: %w", err)
		}
	}

	p.logger.Debug("outbox poll complete", "published", len(published))
	return len(published), publishErr
}
