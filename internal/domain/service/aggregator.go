package service

import (
	"errors"
	"fmt"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
)

// ErrMissingWeight is returned when a weight vector lacks a factor.
var ErrMissingWeight = errors.New("missing weight")

// ConfigurationError reports a weight vector that cannot be applied.
type ConfigurationError struct {
	Factor valueobject.Factor
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: factor %q: %v", e.Factor.String(), e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RiskAggregator turns a company record into a weighted score breakdown.
type RiskAggregator struct {
	scorer *FactorScorer
}

// NewRiskAggregator creates a new RiskAggregator. A nil scorer uses the
// embedded rule tables.
func NewRiskAggregator(scorer *FactorScorer) *RiskAggregator {
	if scorer == nil {
		scorer = defaultScorer
	}
	return &RiskAggregator{scorer: scorer}
}

// RulesVersion identifies the rule tables the aggregator scores with.
func (a *RiskAggregator) RulesVersion() string {
	return a.scorer.Rules().Version()
}

// RawScores evaluates every factor for record without weighting.
func (a *RiskAggregator) RawScores(record model.CompanyRecord) map[valueobject.Factor]float64 {
	s := a.scorer
	return map[valueobject.Factor]float64{
		valueobject.FactorEconomicZone:     s.EconomicZone(record.EconomicDepartment),
		valueobject.FactorDateOfOperations: s.DateOfOperations(record.EstDate, record.ExpiryDate),
		valueobject.FactorStatus:           s.Status(record.Status),
		valueobject.FactorLegalType:        s.LegalType(record.LegalType),
		valueobject.FactorWPS:              s.WPS(record.WPS),
		valueobject.FactorVisaNumber:       s.VisaNumber(record.VisaApproved, record.VisaCancelled),
		valueobject.FactorVisaRatio:        s.VisaRatio(record.VisaApproved, record.VisaCancelled, record.VisaRequested, record.VisaUsed),
		valueobject.FactorPhone:            s.Phone(record.PhoneNo, record.MobileNo),
		valueobject.FactorWebsite:          s.Website(record.WebsiteURL),
		valueobject.FactorEmail:            s.Email(record.Email),
		valueobject.FactorBranch:           s.Branch(record.IsBranch),
	}
}

// Aggregate scores record and applies weights. Weights are used as given,
// without range checks, but every factor must have one.
func (a *RiskAggregator) Aggregate(record model.CompanyRecord, weights valueobject.WeightVector) (model.ScoreBreakdown, error) {
	if missing := weights.Missing(); len(missing) > 0 {
		return model.ScoreBreakdown{}, &ConfigurationError{Factor: missing[0], Err: ErrMissingWeight}
	}
	return model.NewScoreBreakdown(a.RawScores(record), weights), nil
}
