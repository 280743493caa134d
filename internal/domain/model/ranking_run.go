package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/event"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

// RankingEntry is one company's place in a ranking run.
type RankingEntry struct {
	Rank         int
	Index        int
	BusinessName string
	Breakdown    ScoreBreakdown
}

// IsHighRisk reports whether the company was penalised for an inactive
// registration status.
func (e RankingEntry) IsHighRisk() bool {
	return e.Breakdown.Raw[valueobject.FactorStatus] < 0
}

// RankingRun is the aggregate root for one batch ranking of a dataset.
type RankingRun struct {
	events.EventCollector

	startedAt    time.Time
	completedAt  time.Time
	rulesVersion string
	weights      valueobject.WeightVector
	entries      []RankingEntry
	id           uuid.UUID
}

// NewRankingRun records a completed ranking and raises its domain events:
// one RankingCompleted plus a HighRiskCompanyDetected per penalised entry.
// Entries must already be in rank order.
func NewRankingRun(
	rulesVersion string,
	weights valueobject.WeightVector,
	entries []RankingEntry,
	startedAt, completedAt time.Time,
) (*RankingRun, error) {
	if rulesVersion == "" {
		return nil, errors.New("rules version is required")
	}
	if completedAt.Before(startedAt) {
		return nil, fmt.Errorf("completion %s precedes start %s", completedAt, startedAt)
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			return nil, fmt.Errorf("entry %d has rank %d", i, e.Rank)
		}
	}

	r := &RankingRun{
		id:           uuid.New(),
		rulesVersion: rulesVersion,
		weights:      weights.Clone(),
		entries:      entries,
		startedAt:    startedAt.UTC(),
		completedAt:  completedAt.UTC(),
	}

	highRisk := 0
	for _, e := range entries {
		if !e.IsHighRisk() {
			continue
		}
		highRisk++
		r.Record(event.NewHighRiskCompanyDetected(
			r.id, e.BusinessName, e.Rank,
			e.Breakdown.Total, e.Breakdown.Raw[valueobject.FactorStatus],
			r.completedAt,
		))
	}

	var topName string
	var topScore float64
	if len(entries) > 0 {
		topName = entries[0].BusinessName
		topScore = entries[0].Breakdown.Total
	}
	r.Record(event.NewRankingCompleted(
		r.id, rulesVersion, len(entries), highRisk,
		topName, topScore, r.Duration(), r.completedAt,
	))

	return r, nil
}

// ReconstructRankingRun rebuilds a RankingRun from persisted data (no validation, no events).
func ReconstructRankingRun(
	id uuid.UUID,
	rulesVersion string,
	weights valueobject.WeightVector,
	entries []RankingEntry,
	startedAt, completedAt time.Time,
) *RankingRun {
	return &RankingRun{
		id:           id,
		rulesVersion: rulesVersion,
		weights:      weights,
		entries:      entries,
		startedAt:    startedAt,
		completedAt:  completedAt,
	}
}

func (r *RankingRun) ID() uuid.UUID                     { return r.id }
func (r *RankingRun) RulesVersion() string              { return r.rulesVersion }
func (r *RankingRun) Weights() valueobject.WeightVector { return r.weights.Clone() }
func (r *RankingRun) Entries() []RankingEntry           { return r.entries }
func (r *RankingRun) StartedAt() time.Time              { return r.startedAt }
func (r *RankingRun) CompletedAt() time.Time            { return r.completedAt }

// Duration is the wall time of the run.
func (r *RankingRun) Duration() time.Duration {
	return r.completedAt.Sub(r.startedAt)
}

// HighRiskCount counts the entries penalised for inactive status.
func (r *RankingRun) HighRiskCount() int {
	n := 0
	for _, e := range r.entries {
		if e.IsHighRisk() {
			n++
		}
	}
	return n
}
