package dto

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// Validate checks a request struct against its validate tags.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// CompanyRecordInput is an ad-hoc company record supplied by a caller.
type CompanyRecordInput struct {
	model.CompanyOverrides
	BusinessName string `json:"business_name_english"`
}

// ToModel converts the input to a domain record. Absent attributes stay nil.
func (in CompanyRecordInput) ToModel() model.CompanyRecord {
	return model.CompanyRecord{BusinessName: in.BusinessName}.WithOverrides(in.CompanyOverrides)
}

// ScoreCompanyRequest scores a dataset company after applying overrides.
type ScoreCompanyRequest struct {
	Weights      map[string]float64     `json:"weights" validate:"required,dive,gte=0,lte=1"`
	Overrides    model.CompanyOverrides `json:"overrides"`
	BusinessName string                 `json:"business_name" validate:"required"`
	Detailed     bool                   `json:"detailed"`
}

// ScoreRecordRequest scores a record that is not in the dataset.
type ScoreRecordRequest struct {
	Weights  map[string]float64 `json:"weights" validate:"required,dive,gte=0,lte=1"`
	Record   CompanyRecordInput `json:"record"`
	Detailed bool               `json:"detailed"`
}

// ScoreResponse is a company's score breakdown.
type ScoreResponse struct {
	Scores       map[string]float64 `json:"scores"`
	BusinessName string             `json:"business_name"`
	RulesVersion string             `json:"rules_version"`
	Total        float64            `json:"total"`
}

// NewScoreResponse renders a breakdown in plain or detailed form.
func NewScoreResponse(businessName, rulesVersion string, b model.ScoreBreakdown, detailed bool) ScoreResponse {
	return ScoreResponse{
		BusinessName: businessName,
		RulesVersion: rulesVersion,
		Total:        b.Total,
		Scores:       b.Map(detailed),
	}
}

// ListCompaniesResponse lists selectable companies and attribute values.
type ListCompaniesResponse struct {
	Options   map[string][]string `json:"options"`
	Companies []string            `json:"companies"`
}

// RankRequest starts a batch ranking of the dataset.
type RankRequest struct {
	// Weights defaults to the standard weight vector when empty.
	Weights     map[string]float64 `json:"weights,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
	RequestedBy string             `json:"requested_by,omitempty"`
	// Top limits the entries echoed in the response.
	Top int `json:"top" validate:"gte=0,lte=1000"`
}

// RankedCompany is one entry of a ranking.
type RankedCompany struct {
	Scores       map[string]float64 `json:"scores"`
	BusinessName string             `json:"business_name"`
	Rank         int                `json:"rank"`
	Total        float64            `json:"total"`
	HighRisk     bool               `json:"high_risk"`
}

// RankResponse summarizes a completed ranking run.
type RankResponse struct {
	CompletedAt  time.Time       `json:"completed_at"`
	Top          []RankedCompany `json:"top"`
	RunID        uuid.UUID       `json:"run_id"`
	RulesVersion string          `json:"rules_version"`
	ExportPath   string          `json:"export_path,omitempty"`
	Companies    int             `json:"companies"`
	HighRisk     int             `json:"high_risk"`
	DurationMS   int64           `json:"duration_ms"`
	Persisted    bool            `json:"persisted"`
}

// GetRankingRequest fetches a stored run. A nil RunID selects the latest.
type GetRankingRequest struct {
	RunID uuid.UUID `json:"run_id"`
	Limit int       `json:"limit" validate:"gte=0,lte=10000"`
}

// RankingResponse is a stored ranking run.
type RankingResponse struct {
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  time.Time          `json:"completed_at"`
	Weights      map[string]float64 `json:"weights"`
	Entries      []RankedCompany    `json:"entries"`
	RunID        uuid.UUID          `json:"run_id"`
	RulesVersion string             `json:"rules_version"`
	HighRisk     int                `json:"high_risk"`
}

// FromRankedResult maps a batch evaluation result.
func FromRankedResult(r service.RankedResult) RankedCompany {
	return RankedCompany{
		Rank:         r.Rank,
		BusinessName: r.Record.BusinessName,
		Total:        r.Breakdown.Total,
		HighRisk:     model.RankingEntry{Breakdown: r.Breakdown}.IsHighRisk(),
		Scores:       r.Breakdown.Map(false),
	}
}

// FromRankingEntry maps a stored ranking entry.
func FromRankingEntry(e model.RankingEntry) RankedCompany {
	return RankedCompany{
		Rank:         e.Rank,
		BusinessName: e.BusinessName,
		Total:        e.Breakdown.Total,
		HighRisk:     e.IsHighRisk(),
		Scores:       e.Breakdown.Map(false),
	}
}

// FromRankingRun maps a stored ranking run.
func FromRankingRun(run *model.RankingRun) RankingResponse {
	entries := make([]RankedCompany, 0, len(run.Entries()))
	for _, e := range run.Entries() {
		entries = append(entries, FromRankingEntry(e))
	}
	return RankingResponse{
		RunID:        run.ID(),
		RulesVersion: run.RulesVersion(),
		Weights:      run.Weights().ToMap(),
		StartedAt:    run.StartedAt(),
		CompletedAt:  run.CompletedAt(),
		HighRisk:     run.HighRiskCount(),
		Entries:      entries,
	}
}
