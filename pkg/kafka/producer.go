package kafka

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Message is a transport-neutral Kafka record.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer publishes to any number of topics over one shared transport.
// Writers are opened on first use and keyed by topic.
type Producer struct {
	brokers   []string
	transport *kafkago.Transport

	mu      sync.Mutex
	writers map[string]*kafkago.Writer
}

// NewProducer builds a Producer; no connection is made until Publish.
func NewProducer(cfg Config) (*Producer, error) {
	mechanism, err := cfg.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &Producer{
		brokers:   cfg.Brokers,
		transport: &kafkago.Transport{TLS: cfg.tlsConfig(), SASL: mechanism},
		writers:   map[string]*kafkago.Writer{},
	}, nil
}

// Publish writes messages to topic as one batch. Messages sharing a key
// land on the same partition.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	if err := p.writer(topic).WriteMessages(ctx, toKafkaMessages(messages)...); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", topic, err)
	}
	return nil
}

// Topics lists the topics with an open writer, sorted.
func (p *Producer) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Sorted(maps.Keys(p.writers))
}

// Close flushes and closes every writer. The Producer may be reused
// afterwards; writers are reopened on demand.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: close writer %s: %w", topic, err))
		}
	}
	clear(p.writers)
	return errors.Join(errs...)
}

func (p *Producer) writer(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = &kafkago.Writer{
			Addr:                   kafkago.TCP(p.brokers...),
			Topic:                  topic,
			Transport:              p.transport,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireAll,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		}
		p.writers[topic] = w
	}
	return w
}

// toKafkaMessages converts messages, emitting headers in key order.
func toKafkaMessages(messages []Message) []kafkago.Message {
	out := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		out[i] = kafkago.Message{Key: m.Key, Value: m.Value}
		for _, k := range slices.Sorted(maps.Keys(m.Headers)) {
			out[i].Headers = append(out[i].Headers, kafkago.Header{Key: k, Value: []byte(m.Headers[k])})
		}
	}
	return out
}
