package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/pkg/events"
	pgpkg "github.com/nader8687/company-risk-score-calculator/pkg/postgres"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	pgpkg.Querier
	pgpkg.TxBeginner
}

// scoreScale is the number of decimal places kept in NUMERIC score columns.
const scoreScale = 4

// RankingRepository implements port.RankingRepository using PostgreSQL.
type RankingRepository struct {
	db DB
}

var _ port.RankingRepository = (*RankingRepository)(nil)

// NewRankingRepository creates a new PostgreSQL-backed ranking repository.
func NewRankingRepository(db DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// Save persists a ranking run with its entries, and writes its pending
// domain events to the outbox in the same transaction. The run's events
// are cleared once the transaction commits.
func (r *RankingRepository) Save(ctx context.Context, run *model.RankingRun) error {
	weights, err := json.Marshal(run.Weights().ToMap())
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	outbox, err := events.NewOutboxEntries(run.Events()...)
	if err != nil {
		return err
	}

	err = pgpkg.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		const insertRunSQL = `
			INSERT INTO ranking_runs (
				id, rules_version, weights, companies, high_risk, started_at, completed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, insertRunSQL,
			run.ID(),
			run.RulesVersion(),
			weights,
			len(run.Entries()),
			run.HighRiskCount(),
			run.StartedAt(),
			run.CompletedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to save ranking run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, e := range run.Entries() {
			row, err := newEntryRow(e)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO ranking_entries (
					run_id, rank, source_index, business_name, total, total_raw, high_risk, breakdown
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				run.ID(), e.Rank, e.Index, e.BusinessName,
				row.total, row.totalRaw, e.IsHighRisk(), row.breakdown,
			)
		}
		for _, o := range outbox {
			batch.Queue(`
				INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				o.ID, o.AggregateID, o.AggregateType, o.EventType, o.Payload, o.CreatedAt,
			)
		}
		if batch.Len() == 0 {
			return nil
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to save ranking row %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close ranking batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	run.ClearEvents()
	return nil
}

// FindByID retrieves a ranking run with its first limit entries. A limit
// of zero or less loads every entry.
func (r *RankingRepository) FindByID(ctx context.Context, id uuid.UUID, limit int) (*model.RankingRun, error) {
	const query = `
		SELECT id, rules_version, weights, started_at, completed_at
		FROM ranking_runs
		WHERE id = $1
	`
	return r.findRun(ctx, limit, query, id)
}

// Latest retrieves the most recently completed ranking run.
func (r *RankingRepository) Latest(ctx context.Context, limit int) (*model.RankingRun, error) {
	const query = `
		SELECT id, rules_version, weights, started_at, completed_at
		FROM ranking_runs
		ORDER BY completed_at DESC
		LIMIT 1
	`
	return r.findRun(ctx, limit, query)
}

func (r *RankingRepository) findRun(ctx context.Context, limit int, query string, args ...any) (*model.RankingRun, error) {
	var (
		id          uuid.UUID
		version     string
		rawWeights  []byte
		startedAt   time.Time
		completedAt time.Time
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(&id, &version, &rawWeights, &startedAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan ranking run: %w", err)
	}

	weights, err := decodeWeights(rawWeights)
	if err != nil {
		return nil, err
	}

	entries, err := r.loadEntries(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	return model.ReconstructRankingRun(id, version, weights, entries, startedAt, completedAt), nil
}

func (r *RankingRepository) loadEntries(ctx context.Context, runID uuid.UUID, limit int) ([]model.RankingEntry, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := r.db.Query(ctx, `
		SELECT rank, source_index, business_name, breakdown
		FROM ranking_entries
		WHERE run_id = $1
		ORDER BY rank
		LIMIT $2`,
		runID, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.RankingEntry, 0)
	for rows.Next() {
		var (
			e         model.RankingEntry
			breakdown []byte
		)
		if err := rows.Scan(&e.Rank, &e.Index, &e.BusinessName, &breakdown); err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		if e.Breakdown, err = decodeBreakdown(breakdown); err != nil {
			return nil, fmt.Errorf("ranking entry %d: %w", e.Rank, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ranking entries: %w", err)
	}

	return entries, nil
}

// entryRow is the column encoding of a RankingEntry.
type entryRow struct {
	total     decimal.Decimal
	totalRaw  decimal.Decimal
	breakdown []byte
}

func newEntryRow(e model.RankingEntry) (entryRow, error) {
	breakdown, err := json.Marshal(e.Breakdown.Map(true))
	if err != nil {
		return entryRow{}, fmt.Errorf("failed to marshal breakdown of %q: %w", e.BusinessName, err)
	}
	return entryRow{
		total:     decimal.NewFromFloat(e.Breakdown.Total).Round(scoreScale),
		totalRaw:  decimal.NewFromFloat(e.Breakdown.TotalRaw).Round(scoreScale),
		breakdown: breakdown,
	}, nil
}

func decodeBreakdown(data []byte) (model.ScoreBreakdown, error) {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return model.ScoreBreakdown{}, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	return model.ScoreBreakdownFromMap(m)
}

func decodeWeights(data []byte) (valueobject.WeightVector, error) {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	w, err := valueobject.WeightVectorFromMap(m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse weights: %w", err)
	}
	return w, nil
}
