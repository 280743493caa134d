package service

import (
	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
)

// Scorer defines how a single company record is turned into a breakdown.
// RiskAggregator is the production implementation; the batch evaluator
// depends only on this interface.
type Scorer interface {
	Aggregate(record model.CompanyRecord, weights valueobject.WeightVector) (model.ScoreBreakdown, error)
}

var _ Scorer = (*RiskAggregator)(nil)
