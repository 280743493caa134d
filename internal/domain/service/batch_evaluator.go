package service

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
)

// DefaultBatchCount is the number of batches a dataset is split into when
// no explicit batch size is configured.
const DefaultBatchCount = 8

// BatchOptions tunes the partitioning of a batch run.
type BatchOptions struct {
	// BatchSize is the number of records per batch. Zero derives it from
	// BatchCount.
	BatchSize int
	// BatchCount is the divisor used to derive BatchSize. Zero means
	// DefaultBatchCount.
	BatchCount int
	// Workers bounds the concurrent scoring tasks. Zero means GOMAXPROCS.
	Workers int
}

// RankedResult pairs a record with its breakdown and its place in the ranking.
type RankedResult struct {
	Rank      int
	Index     int
	Record    model.CompanyRecord
	Breakdown model.ScoreBreakdown
}

// BatchTaskError reports the record whose scoring aborted a batch.
type BatchTaskError struct {
	Batch        int
	Index        int
	BusinessName string
	Err          error
}

func (e *BatchTaskError) Error() string {
	return fmt.Sprintf("batch %d: record %d (%q): %v", e.Batch, e.Index, e.BusinessName, e.Err)
}

func (e *BatchTaskError) Unwrap() error {
	return e.Err
}

// BatchEvaluator scores many records in contiguous batches. Records within
// a batch are scored concurrently; batches run one after another.
type BatchEvaluator struct {
	scorer Scorer
	opts   BatchOptions
}

// NewBatchEvaluator creates a new BatchEvaluator.
func NewBatchEvaluator(scorer Scorer, opts BatchOptions) *BatchEvaluator {
	if opts.BatchCount <= 0 {
		opts.BatchCount = DefaultBatchCount
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &BatchEvaluator{scorer: scorer, opts: opts}
}

// BatchSize returns the number of records per batch for n records.
func (e *BatchEvaluator) BatchSize(n int) int {
	if e.opts.BatchSize > 0 {
		return e.opts.BatchSize
	}
	size := int(math.RoundToEven(float64(n)/float64(e.opts.BatchCount) + 1))
	if size < 1 {
		size = 1
	}
	return size
}

// Evaluate scores every record and returns them ranked by weighted total,
// highest first. Ties keep input order.
//
// A failing record aborts its batch. The ranked results of the batches that
// completed before it are returned together with a *BatchTaskError.
func (e *BatchEvaluator) Evaluate(ctx context.Context, records []model.CompanyRecord, weights valueobject.WeightVector) ([]RankedResult, error) {
	results := make([]RankedResult, 0, len(records))
	size := e.BatchSize(len(records))

	var runErr error
	for batch, start := 0, 0; start < len(records); batch, start = batch+1, start+size {
		end := min(start+size, len(records))
		scored, err := e.evaluateBatch(ctx, batch, start, records[start:end], weights)
		if err != nil {
			runErr = err
			break
		}
		results = append(results, scored...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Breakdown.TotalWeightAdjusted() > results[j].Breakdown.TotalWeightAdjusted()
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, runErr
}

func (e *BatchEvaluator) evaluateBatch(ctx context.Context, batch, offset int, records []model.CompanyRecord, weights valueobject.WeightVector) ([]RankedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch %d not started: %w", batch, err)
	}

	out := make([]RankedResult, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := range records {
		g.Go(func() (err error) {
			rec := records[i]
			taskErr := func(cause error) error {
				return &BatchTaskError{Batch: batch, Index: offset + i, BusinessName: rec.BusinessName, Err: cause}
			}
			defer func() {
				if r := recover(); r != nil {
					err = taskErr(fmt.Errorf("panic: %v", r))
				}
			}()

			if err := gctx.Err(); err != nil {
				return taskErr(err)
			}
			breakdown, err := e.scorer.Aggregate(rec, weights)
			if err != nil {
				return taskErr(err)
			}
			out[i] = RankedResult{Index: offset + i, Record: rec, Breakdown: breakdown}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
