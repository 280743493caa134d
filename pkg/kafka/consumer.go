package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
)

// DefaultHandlerRetries bounds how often a failing message is redelivered
// to the handler before it is skipped.
const DefaultHandlerRetries = 3

// Handler processes a consumed Kafka message. Returning an error wrapped
// with backoff.Permanent skips the remaining retries.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads one topic as a member of a consumer group.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	logger  *slog.Logger

	retries      uint64
	retryBackoff time.Duration
}

// NewConsumer creates a Consumer for topic in cfg.ConsumerGroup.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if topic == "" {
		return nil, errors.New("kafka: consumer topic is required")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("kafka: consumer group is required")
	}

	readerCfg := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	}
	if cfg.TLS || cfg.SASLEnabled {
		mechanism, err := cfg.saslMechanism()
		if err != nil {
			return nil, err
		}
		readerCfg.Dialer = &kafkago.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			TLS:           cfg.tlsConfig(),
			SASLMechanism: mechanism,
		}
	}

	return &Consumer{
		reader:       kafkago.NewReader(readerCfg),
		handler:      handler,
		logger:       logger.With("topic", topic, "group", cfg.ConsumerGroup),
		retries:      DefaultHandlerRetries,
		retryBackoff: 200 * time.Millisecond,
	}, nil
}

// Start consumes until ctx is canceled. A message is committed once the
// handler succeeds or its retries are exhausted, so a poison message
// cannot stall the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return nil
			}
			return fmt.Errorf("kafka: fetch message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("skipping message after handler failure",
				"partition", m.Partition, "offset", m.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	msg := toMessage(m)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBackoff

	return backoff.RetryNotify(
		func() error { return c.handler(ctx, msg) },
		backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx),
		func(err error, wait time.Duration) {
			c.logger.Warn("handler failed, retrying", "offset", m.Offset, "retry_in", wait, "error", err)
		},
	)
}

func toMessage(m kafkago.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{Key: m.Key, Value: m.Value, Headers: headers}
}

// Close leaves the consumer group and closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("kafka: close reader: %w", err)
	}
	return nil
}
