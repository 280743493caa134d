package bootstrap

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

// retryingPublisher retries a failed publish with exponential backoff until
// the retry budget or ctx runs out.
type retryingPublisher struct {
	next port.EventPublisher
}

func (p *retryingPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	return backoff.Retry(func() error {
		return p.next.Publish(ctx, evts...)
	}, retryPolicy(ctx))
}
