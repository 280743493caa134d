// Package scheduler re-ranks the dataset on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
)

// Ranker runs a batch ranking. *usecase.RankCompanies implements it.
type Ranker interface {
	Execute(ctx context.Context, req dto.RankRequest) (dto.RankResponse, error)
}

// RankingScheduler triggers rankings on a cron schedule. Runs that would
// overlap a ranking still in progress are skipped.
type RankingScheduler struct {
	cron   *cron.Cron
	ranker Ranker
	runs   metric.Int64Counter
	logger *slog.Logger
	ctx    context.Context
}

// New creates a scheduler for spec, a standard five-field cron expression
// or a descriptor such as "@daily". meter may be nil.
func New(spec string, ranker Ranker, meter metric.Meter, logger *slog.Logger) (*RankingScheduler, error) {
	s := &RankingScheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ranker: ranker,
		logger: logger,
		ctx:    context.Background(),
	}

	if meter != nil {
		runs, err := meter.Int64Counter("risk.scheduled_rankings",
			metric.WithDescription("Scheduled ranking runs by outcome."),
		)
		if err != nil {
			return nil, fmt.Errorf("scheduler: create counter: %w", err)
		}
		s.runs = runs
	}

	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running the schedule until ctx is canceled or Stop is called.
func (s *RankingScheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("ranking scheduler started", "next_run", s.cron.Entries()[0].Next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the schedule and waits for a running ranking to finish.
func (s *RankingScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs one scheduled ranking.
func (s *RankingScheduler) RunOnce() {
	resp, err := s.ranker.Execute(s.ctx, dto.RankRequest{RequestedBy: "scheduler"})

	outcome := "success"
	switch {
	case errors.Is(err, usecase.ErrRankingInProgress):
		outcome = "skipped"
		s.logger.Warn("scheduled ranking skipped, another ranking is running")
	case err != nil:
		outcome = "failure"
		s.logger.Error("scheduled ranking failed", "error", err)
	default:
		s.logger.Info("scheduled ranking completed",
			"run_id", resp.RunID,
			"companies", resp.Companies,
			"duration_ms", resp.DurationMS,
		)
	}

	if s.runs != nil {
		s.runs.Add(s.ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
