package usecase

import (
	"context"
	"fmt"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
)

// ScoreCompany is the use case for interactively scoring one dataset company
// with user-edited attributes and weights.
type ScoreCompany struct {
	source     port.CompanySource
	aggregator *service.RiskAggregator
	metrics    *observability.ScoringMetrics
}

// NewScoreCompany creates a new ScoreCompany use case. metrics may be nil.
func NewScoreCompany(
	source port.CompanySource,
	aggregator *service.RiskAggregator,
	metrics *observability.ScoringMetrics,
) *ScoreCompany {
	return &ScoreCompany{
		source:     source,
		aggregator: aggregator,
		metrics:    metrics,
	}
}

// Execute looks the company up, applies overrides and weights, and returns
// the breakdown. A weight vector lacking a factor is rejected with a
// *service.ConfigurationError rather than defaulted.
func (uc *ScoreCompany) Execute(_ context.Context, req dto.ScoreCompanyRequest) (dto.ScoreResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ScoreResponse{}, err
	}

	record, ok := uc.source.Lookup(req.BusinessName)
	if !ok {
		return dto.ScoreResponse{}, fmt.Errorf("company %q: %w", req.BusinessName, port.ErrNotFound)
	}
	record = record.WithOverrides(req.Overrides)

	return score(uc.aggregator, uc.metrics, record, req.Weights, req.Detailed)
}

// ScoreRecord is the use case for scoring a caller-supplied record.
type ScoreRecord struct {
	aggregator *service.RiskAggregator
	metrics    *observability.ScoringMetrics
}

// NewScoreRecord creates a new ScoreRecord use case. metrics may be nil.
func NewScoreRecord(aggregator *service.RiskAggregator, metrics *observability.ScoringMetrics) *ScoreRecord {
	return &ScoreRecord{aggregator: aggregator, metrics: metrics}
}

// Execute scores the record with the given weights.
func (uc *ScoreRecord) Execute(_ context.Context, req dto.ScoreRecordRequest) (dto.ScoreResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.ScoreResponse{}, err
	}
	return score(uc.aggregator, uc.metrics, req.Record.ToModel(), req.Weights, req.Detailed)
}

func score(
	aggregator *service.RiskAggregator,
	metrics *observability.ScoringMetrics,
	record model.CompanyRecord,
	rawWeights map[string]float64,
	detailed bool,
) (dto.ScoreResponse, error) {
	weights, err := valueobject.WeightVectorFromMap(rawWeights)
	if err != nil {
		return dto.ScoreResponse{}, fmt.Errorf("%w: %w", dto.ErrInvalidRequest, err)
	}

	breakdown, err := aggregator.Aggregate(record, weights)
	if err != nil {
		return dto.ScoreResponse{}, fmt.Errorf("failed to score %q: %w", record.BusinessName, err)
	}
	metrics.ObserveScore(observability.ModeInteractive, breakdown.Total)

	return dto.NewScoreResponse(record.BusinessName, aggregator.RulesVersion(), breakdown, detailed), nil
}
