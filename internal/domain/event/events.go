package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/pkg/events"
)

const (
	// EventTypeRankingCompleted is emitted when a batch ranking run finishes.
	EventTypeRankingCompleted = "risk.ranking.completed"

	// EventTypeHighRiskCompany is emitted for each ranked company whose
	// registration status carries the inactive penalty.
	EventTypeHighRiskCompany = "risk.company.high_risk"

	// AggregateTypeRankingRun names the aggregate that raises these events.
	AggregateTypeRankingRun = "RankingRun"
)

// RankingCompleted is published when a ranking run has scored every company.
type RankingCompleted struct {
	events.BaseEvent
	RunID         uuid.UUID `json:"run_id"`
	RulesVersion  string    `json:"rules_version"`
	Companies     int       `json:"companies"`
	HighRisk      int       `json:"high_risk"`
	TopCompany    string    `json:"top_company,omitempty"`
	TopScore      float64   `json:"top_score"`
	DurationMilli int64     `json:"duration_ms"`
	CompletedAt   time.Time `json:"completed_at"`
}

// NewRankingCompleted creates a RankingCompleted event.
func NewRankingCompleted(
	runID uuid.UUID,
	rulesVersion string,
	companies, highRisk int,
	topCompany string,
	topScore float64,
	duration time.Duration,
	completedAt time.Time,
) RankingCompleted {
	return RankingCompleted{
		BaseEvent:     events.NewBaseEventAt(EventTypeRankingCompleted, runID, AggregateTypeRankingRun, completedAt),
		RunID:         runID,
		RulesVersion:  rulesVersion,
		Companies:     companies,
		HighRisk:      highRisk,
		TopCompany:    topCompany,
		TopScore:      topScore,
		DurationMilli: duration.Milliseconds(),
		CompletedAt:   completedAt,
	}
}

// HighRiskCompanyDetected flags a company ranked with an inactive status.
type HighRiskCompanyDetected struct {
	events.BaseEvent
	RunID        uuid.UUID `json:"run_id"`
	BusinessName string    `json:"business_name"`
	Rank         int       `json:"rank"`
	Total        float64   `json:"total"`
	StatusScore  float64   `json:"status_score"`
	DetectedAt   time.Time `json:"detected_at"`
}

// NewHighRiskCompanyDetected creates a HighRiskCompanyDetected event.
func NewHighRiskCompanyDetected(
	runID uuid.UUID,
	businessName string,
	rank int,
	total, statusScore float64,
	detectedAt time.Time,
) HighRiskCompanyDetected {
	return HighRiskCompanyDetected{
		BaseEvent:    events.NewBaseEventAt(EventTypeHighRiskCompany, runID, AggregateTypeRankingRun, detectedAt),
		RunID:        runID,
		BusinessName: businessName,
		Rank:         rank,
		Total:        total,
		StatusScore:  statusScore,
		DetectedAt:   detectedAt,
	}
}
