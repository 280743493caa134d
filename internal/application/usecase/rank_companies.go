package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
)

// ErrRankingInProgress is returned when a ranking is requested while
// another one is still running.
var ErrRankingInProgress = errors.New("ranking already in progress")

// ResultExporter writes a ranking somewhere durable and reports where.
type ResultExporter interface {
	Export(ctx context.Context, results []service.RankedResult) (string, error)
}

// RankCompaniesOptions configures RankCompanies. Every field is optional.
// Scorer defaults to the use case's aggregator.
type RankCompaniesOptions struct {
	Scorer    service.Scorer
	Repo      port.RankingRepository
	Publisher port.EventPublisher
	Exporter  ResultExporter
	Metrics   *observability.ScoringMetrics
	Batch     service.BatchOptions
}

// RankCompanies is the use case for scoring and ranking the whole dataset.
type RankCompanies struct {
	source     port.CompanySource
	aggregator *service.RiskAggregator
	opts       RankCompaniesOptions
	tracer     trace.Tracer
	logger     *slog.Logger
	running    sync.Mutex
}

// NewRankCompanies creates a new RankCompanies use case.
func NewRankCompanies(
	source port.CompanySource,
	aggregator *service.RiskAggregator,
	opts RankCompaniesOptions,
	logger *slog.Logger,
) *RankCompanies {
	return &RankCompanies{
		source:     source,
		aggregator: aggregator,
		opts:       opts,
		tracer:     observability.Tracer("usecase.RankCompanies"),
		logger:     logger,
	}
}

// Execute evaluates every record, exports the ranking, and records the run.
// With a repository the run and its events are saved together (the events
// leave through the outbox); otherwise events go straight to the publisher.
// Only one ranking runs at a time.
func (uc *RankCompanies) Execute(ctx context.Context, req dto.RankRequest) (dto.RankResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.RankResponse{}, err
	}

	weights := valueobject.DefaultWeights()
	if len(req.Weights) > 0 {
		w, err := valueobject.WeightVectorFromMap(req.Weights)
		if err != nil {
			return dto.RankResponse{}, fmt.Errorf("%w: %w", dto.ErrInvalidRequest, err)
		}
		weights = w
	}

	if !uc.running.TryLock() {
		return dto.RankResponse{}, ErrRankingInProgress
	}
	defer uc.running.Unlock()

	ctx, span := uc.tracer.Start(ctx, "RankCompanies")
	defer span.End()

	records := uc.source.Records()
	span.SetAttributes(
		attribute.Int("risk.companies", len(records)),
		attribute.String("risk.rules_version", uc.aggregator.RulesVersion()),
	)

	startedAt := time.Now()
	var scorer service.Scorer = uc.aggregator
	if uc.opts.Scorer != nil {
		scorer = uc.opts.Scorer
	}
	evaluator := service.NewBatchEvaluator(scorer, uc.opts.Batch)
	results, err := evaluator.Evaluate(ctx, records, weights)
	completedAt := time.Now()
	elapsed := completedAt.Sub(startedAt)

	uc.opts.Metrics.ObserveBatch(elapsed, err != nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		attrs := []any{
			"error", err,
			"scored", len(results),
			"companies", len(records),
			"duration", elapsed,
		}
		var taskErr *service.BatchTaskError
		if errors.As(err, &taskErr) {
			attrs = append(attrs, "failed_batch", taskErr.Batch, "failed_index", taskErr.Index, "failed_company", taskErr.BusinessName)
		}
		if path := uc.exportPartial(ctx, results); path != "" {
			attrs = append(attrs, "partial_export_path", path)
		}
		uc.logger.ErrorContext(ctx, "ranking failed", attrs...)
		return dto.RankResponse{}, fmt.Errorf("failed to rank companies: %w", err)
	}
	for _, r := range results {
		uc.opts.Metrics.ObserveScore(observability.ModeBatch, r.Breakdown.Total)
	}

	var exportPath string
	if uc.opts.Exporter != nil {
		if exportPath, err = uc.opts.Exporter.Export(ctx, results); err != nil {
			span.RecordError(err)
			return dto.RankResponse{}, fmt.Errorf("failed to export ranking: %w", err)
		}
	}

	entries := make([]model.RankingEntry, len(results))
	for i, r := range results {
		entries[i] = model.RankingEntry{
			Rank:         r.Rank,
			Index:        r.Index,
			BusinessName: r.Record.BusinessName,
			Breakdown:    r.Breakdown,
		}
	}
	run, err := model.NewRankingRun(uc.aggregator.RulesVersion(), weights, entries, startedAt, completedAt)
	if err != nil {
		return dto.RankResponse{}, fmt.Errorf("failed to record ranking run: %w", err)
	}

	persisted, err := uc.record(ctx, run)
	if err != nil {
		span.RecordError(err)
		return dto.RankResponse{}, err
	}

	uc.logger.InfoContext(ctx, "ranking completed",
		"run_id", run.ID(),
		"companies", len(entries),
		"high_risk", run.HighRiskCount(),
		"duration", elapsed,
		"export_path", exportPath,
		"persisted", persisted,
		"requested_by", req.RequestedBy,
	)

	top := make([]dto.RankedCompany, 0, min(req.Top, len(results)))
	for _, r := range results[:min(req.Top, len(results))] {
		top = append(top, dto.FromRankedResult(r))
	}

	return dto.RankResponse{
		RunID:        run.ID(),
		RulesVersion: run.RulesVersion(),
		Companies:    len(entries),
		HighRisk:     run.HighRiskCount(),
		DurationMS:   elapsed.Milliseconds(),
		CompletedAt:  run.CompletedAt(),
		ExportPath:   exportPath,
		Persisted:    persisted,
		Top:          top,
	}, nil
}

// exportPartial writes the batches that completed before a failure. The
// export outlives a cancelled run. It returns "" when nothing was written.
func (uc *RankCompanies) exportPartial(ctx context.Context, results []service.RankedResult) string {
	if uc.opts.Exporter == nil || len(results) == 0 {
		return ""
	}
	path, err := uc.opts.Exporter.Export(context.WithoutCancel(ctx), results)
	if err != nil {
		uc.logger.WarnContext(ctx, "partial ranking export failed", "error", err, "scored", len(results))
		return ""
	}
	return path
}

func (uc *RankCompanies) record(ctx context.Context, run *model.RankingRun) (bool, error) {
	if uc.opts.Repo != nil {
		if err := uc.opts.Repo.Save(ctx, run); err != nil {
			return false, fmt.Errorf("failed to save ranking run: %w", err)
		}
		return true, nil
	}

	if uc.opts.Publisher != nil {
		if evts := run.ClearEvents(); len(evts) > 0 {
			if err := uc.opts.Publisher.Publish(ctx, evts...); err != nil {
				return false, fmt.Errorf("failed to publish events: %w", err)
			}
		}
	}
	return false, nil
}
