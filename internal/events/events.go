package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for the two event kinds.
const (
	RoutingKeyIngestionCompleted = "ingestion.completed"
	RoutingKeyBlobOrphaned       = "blob.orphaned"
)

// IngestionCompleted is emitted after a pipeline run reaches Done.
type IngestionCompleted struct {
	PatientID  string    `json:"patient_id"`
	Operation  string    `json:"operation"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BlobOrphaned is emitted when a pipeline run aborts after staging objects
// that no record references. Consumers can garbage-collect the keys.
type BlobOrphaned struct {
	PatientID  string    `json:"patient_id"`
	ObjectKeys []string  `json:"object_keys"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the narrow surface the ingestion pipeline publishes through.
type Publisher interface {
	PublishIngestionCompleted(ctx context.Context, event IngestionCompleted)
	PublishBlobOrphaned(ctx context.Context, event BlobOrphaned)
}

// PublishIngestionCompleted publishes the event; failures are logged, not
// returned.
func (p *RabbitPublisher) PublishIngestionCompleted(ctx context.Context, event IngestionCompleted) {
	p.publish(ctx, RoutingKeyIngestionCompleted, event)
}

// PublishBlobOrphaned publishes the event; failures are logged, not
// returned.
func (p *RabbitPublisher) PublishBlobOrphaned(ctx context.Context, event BlobOrphaned) {
	p.publish(ctx, RoutingKeyBlobOrphaned, event)
}

func (p *RabbitPublisher) publish(ctx context.Context, routingKey string, event interface{}) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", err, map[string]interface{}{
			"routing_key": routingKey,
		})
		return
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx,
		p.cfg.Channel.ExchangeName,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType: p.cfg.Channel.ContentType,
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("failed to publish event", err, map[string]interface{}{
			"routing_key": routingKey,
			"exchange":    p.cfg.Channel.ExchangeName,
		})
	}
}

// NopPublisher satisfies Publisher without a broker. Wired when event
// publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishIngestionCompleted(context.Context, IngestionCompleted) {}

func (NopPublisher) PublishBlobOrphaned(context.Context, BlobOrphaned) {}
