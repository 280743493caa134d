package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka:9092"}, ParseBrokers("kafka:9092"))
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092 , ,b:9092,"))
	assert.Empty(t, ParseBrokers(""))
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, p.brokers)
	assert.Empty(t, p.Topics())
	assert.Nil(t, p.transport.TLS)
	assert.Nil(t, p.transport.SASL)
}

func TestProducer_WriterIsReusedPerTopic(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"kafka:9092"}})
	require.NoError(t, err)

	first := p.writer("risk.events")
	second := p.writer("risk.events")
	other := p.writer("risk.commands")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, "risk.events", first.Topic)
	assert.Equal(t, []string{"risk.commands", "risk.events"}, p.Topics())
	require.NoError(t, p.Close())
	assert.Empty(t, p.Topics())
}

func TestConfig_SASLMechanism(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		m, err := Config{SASLMechanism: "PLAIN"}.saslMechanism()
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("plain", func(t *testing.T) {
		m, err := Config{SASLEnabled: true, SASLUsername: "u", SASLPassword: "p"}.saslMechanism()
		require.NoError(t, err)
		assert.Equal(t, plain.Mechanism{Username: "u", Password: "p"}, m)
	})

	t.Run("scram", func(t *testing.T) {
		m, err := Config{SASLEnabled: true, SASLMechanism: "scram-sha-512", SASLUsername: "u", SASLPassword: "p"}.saslMechanism()
		require.NoError(t, err)
		assert.Equal(t, "SCRAM-SHA-512", m.Name())
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Config{SASLEnabled: true, SASLMechanism: "GSSAPI"}.saslMechanism()
		assert.Error(t, err)
	})
}

func TestConfig_TLS(t *testing.T) {
	assert.Nil(t, Config{}.tlsConfig())
	assert.NotNil(t, Config{TLS: true}.tlsConfig())
}

func TestNewConsumer_RequiresTopicAndGroup(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	noop := func(context.Context, Message) error { return nil }

	_, err := NewConsumer(Config{Brokers: []string{"kafka:9092"}, ConsumerGroup: "g"}, "", noop, logger)
	assert.Error(t, err)

	_, err = NewConsumer(Config{Brokers: []string{"kafka:9092"}}, "risk.commands", noop, logger)
	assert.Error(t, err)

	c, err := NewConsumer(Config{Brokers: []string{"kafka:9092"}, ConsumerGroup: "g"}, "risk.commands", noop, logger)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestToKafkaMessages(t *testing.T) {
	out := toKafkaMessages([]Message{{
		Key:     []byte("run-1"),
		Value:   []byte("{}"),
		Headers: map[string]string{"event_type": "risk.company.high_risk", "aggregate_type": "RankingRun"},
	}})

	require.Len(t, out, 1)
	assert.Equal(t, []byte("run-1"), out[0].Key)
	assert.Equal(t, []kafkago.Header{
		{Key: "aggregate_type", Value: []byte("RankingRun")},
		{Key: "event_type", Value: []byte("risk.company.high_risk")},
	}, out[0].Headers)
}

func TestToMessage(t *testing.T) {
	msg := toMessage(kafkago.Message{
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: []kafkago.Header{{Key: "event_type", Value: []byte("risk.ranking.completed")}},
	})

	assert.Equal(t, []byte("k"), msg.Key)
	assert.Equal(t, []byte("v"), msg.Value)
	assert.Equal(t, map[string]string{"event_type": "risk.ranking.completed"}, msg.Headers)
}

func TestConsumer_HandleRetries(t *testing.T) {
	newConsumer := func(h Handler) *Consumer {
		return &Consumer{
			handler:      h,
			logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
			retries:      2,
			retryBackoff: time.Millisecond,
		}
	}

	t.Run("recovers", func(t *testing.T) {
		calls := 0
		c := newConsumer(func(context.Context, Message) error {
			calls++
			if calls < 2 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, c.handle(context.Background(), kafkago.Message{}))
		assert.Equal(t, 2, calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		calls := 0
		c := newConsumer(func(context.Context, Message) error {
			calls++
			return errors.New("down")
		})
		assert.Error(t, c.handle(context.Background(), kafkago.Message{}))
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent", func(t *testing.T) {
		calls := 0
		c := newConsumer(func(context.Context, Message) error {
			calls++
			return backoff.Permanent(errors.New("bad payload"))
		})
		assert.Error(t, c.handle(context.Background(), kafkago.Message{}))
		assert.Equal(t, 1, calls)
	})
}
