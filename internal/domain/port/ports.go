package port

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

// ErrNotFound is returned by repositories when a lookup has no result.
var ErrNotFound = errors.New("not found")

// CompanySource is the read-only record source consulted by the use cases.
type CompanySource interface {
	// Records returns every record in source order.
	Records() []model.CompanyRecord

	// Lookup returns the first record with the given business name.
	Lookup(businessName string) (model.CompanyRecord, bool)

	// Names returns business names in source order, without duplicates.
	Names() []string

	// DistinctValues returns the distinct non-blank values of a column in
	// first-appearance order.
	DistinctValues(column string) []string
}

// RankingRepository defines the persistence port for ranking runs.
type RankingRepository interface {
	// Save persists a ranking run, its entries and its pending events.
	Save(ctx context.Context, run *model.RankingRun) error

	// FindByID retrieves a run with up to limit of its top entries.
	FindByID(ctx context.Context, id uuid.UUID, limit int) (*model.RankingRun, error)

	// Latest retrieves the most recently completed run with up to limit entries.
	Latest(ctx context.Context, limit int) (*model.RankingRun, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
