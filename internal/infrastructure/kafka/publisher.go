package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/pkg/events"
	pkgkafka "github.com/nader8687/company-risk-score-calculator/pkg/kafka"
)

// Message header keys carried on every published event.
const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderAggregateID   = "aggregate_id"
	HeaderAggregateType = "aggregate_type"
)

// MessageProducer sends messages to a topic. *pkgkafka.Producer implements it.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Publisher implements port.EventPublisher using Kafka. Messages are keyed
// by aggregate id so the events of one ranking run stay ordered.
type Publisher struct {
	producer MessageProducer
	logger   *slog.Logger
	topic    string
}

var _ port.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka event publisher.
func NewPublisher(producer MessageProducer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka.
func (p *Publisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	entries, err := events.NewOutboxEntries(domainEvents...)
	if err != nil {
		return err
	}
	return p.PublishEntries(ctx, entries)
}

// PublishEntries sends already-serialized events, such as rows drained from
// the outbox, to Kafka.
func (p *Publisher) PublishEntries(ctx context.Context, entries []events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, e := range entries {
		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_type", e.EventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(e.Payload)),
		)
		messages = append(messages, Message(e))
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}

	return nil
}

// Message converts an outbox entry into its Kafka message.
func Message(e events.OutboxEntry) pkgkafka.Message {
	return pkgkafka.Message{
		Key:   []byte(e.AggregateID.String()),
		Value: e.Payload,
		Headers: map[string]string{
			HeaderEventID:       e.ID.String(),
			HeaderEventType:     e.EventType,
			HeaderAggregateID:   e.AggregateID.String(),
			HeaderAggregateType: e.AggregateType,
		},
	}
}
