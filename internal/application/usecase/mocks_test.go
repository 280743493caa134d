package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

// --- Mock implementations ---

type mockSource struct {
	records []model.CompanyRecord
}

func (m *mockSource) Records() []model.CompanyRecord { return m.records }

func (m *mockSource) Lookup(name string) (model.CompanyRecord, bool) {
	for _, r := range m.records {
		if r.BusinessName == name {
			return r, true
		}
	}
	return model.CompanyRecord{}, false
}

func (m *mockSource) Names() []string {
	var names []string
	for _, r := range m.records {
		names = append(names, r.BusinessName)
	}
	return names
}

func (m *mockSource) DistinctValues(column string) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range m.records {
		v := r.Fields()[column]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

type mockRankingRepository struct {
	saved      *model.RankingRun
	saveFunc   func(ctx context.Context, run *model.RankingRun) error
	findFunc   func(ctx context.Context, id uuid.UUID, limit int) (*model.RankingRun, error)
	latestFunc func(ctx context.Context, limit int) (*model.RankingRun, error)
}

func (m *mockRankingRepository) Save(ctx context.Context, run *model.RankingRun) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, run)
	}
	m.saved = run
	run.ClearEvents()
	return nil
}

func (m *mockRankingRepository) FindByID(ctx context.Context, id uuid.UUID, limit int) (*model.RankingRun, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id, limit)
	}
	return nil, port.ErrNotFound
}

func (m *mockRankingRepository) Latest(ctx context.Context, limit int) (*model.RankingRun, error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx, limit)
	}
	return nil, port.ErrNotFound
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type mockExporter struct {
	exported []service.RankedResult
	err      error
}

func (m *mockExporter) Export(_ context.Context, results []service.RankedResult) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.exported = results
	return "/tmp/ranking.csv", nil
}

// failingScorer delegates to next except for the company named failOn.
type failingScorer struct {
	next   service.Scorer
	failOn string
}

func (s failingScorer) Aggregate(rec model.CompanyRecord, w valueobject.WeightVector) (model.ScoreBreakdown, error) {
	if rec.BusinessName == s.failOn {
		return model.ScoreBreakdown{}, errors.New("scorer unavailable")
	}
	return s.next.Aggregate(rec, w)
}

func testRecords() []model.CompanyRecord {
	return []model.CompanyRecord{
		{
			BusinessName:       "Acme Trading",
			EconomicDepartment: model.StringPtr("Abu Dhabi"),
			Status:             model.StringPtr("Active"),
			WPS:                model.StringPtr("Yes"),
			Email:              model.StringPtr("info@acme.ae"),
			IsBranch:           "No",
		},
		{
			BusinessName: "Beta Foods",
			Status:       model.StringPtr("Inactive"),
			IsBranch:     "Yes",
		},
		{
			BusinessName:       "Gamma Logistics",
			EconomicDepartment: model.StringPtr("Abu Dhabi"),
			Status:             model.StringPtr("Active"),
			WebsiteURL:         model.StringPtr("www.gamma.ae"),
		},
	}
}
