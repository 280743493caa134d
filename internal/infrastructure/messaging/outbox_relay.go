package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

// DefaultRelayBatch is the number of outbox rows drained per tick.
const DefaultRelayBatch = 100

// EntryPublisher sends serialized events. *kafka.Publisher implements it.
type EntryPublisher interface {
	PublishEntries(ctx context.Context, entries []events.OutboxEntry) error
}

// OutboxRelay moves committed outbox rows to the message broker. Delivery
// is at-least-once: a row is marked only after the broker accepted it.
type OutboxRelay struct {
	outbox    events.OutboxRepository
	publisher EntryPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxRelay creates a new OutboxRelay.
func NewOutboxRelay(outbox events.OutboxRepository, publisher EntryPublisher, interval time.Duration, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: DefaultRelayBatch,
	}
}

// RelayOnce drains one batch and reports how many entries were published.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.PublishEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("relay outbox: %w", err)
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}

	return len(entries), nil
}

// Run relays on every tick until ctx is canceled. A full batch is followed
// immediately by another drain.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
		}

		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Error("outbox relay failed", "error", err)
				break
			}
			if n > 0 {
				r.logger.Debug("outbox relayed", "events", n)
			}
			if n < r.batchSize {
				break
			}
		}
	}
}
