// Package bootstrap assembles the components shared by the riskd service and
// the riskbatch tool from a loaded configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/rules"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/config"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/dataset"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/export"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/kafka"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/postgres"
	"github.com/nader8687/company-risk-score-calculator/migrations"
	pgpkg "github.com/nader8687/company-risk-score-calculator/pkg/postgres"
	pkgkafka "github.com/nader8687/company-risk-score-calculator/pkg/kafka"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
)

// ConsumerGroup is the Kafka consumer group of the ranking request consumer.
const ConsumerGroup = "risk-score-calculator"

// ErrNoData is returned when no data files are configured.
var ErrNoData = errors.New("no data files configured (RISK_DATA_FILES)")

// Retry bounds for connecting to PostgreSQL and publishing to Kafka.
var (
	RetryMaxElapsed = 30 * time.Second
	RetryMaxTries   = uint64(8)
)

// LoadDataset reads and merges the configured CSV files in order.
func LoadDataset(cfg *config.Config, logger *slog.Logger) (*dataset.Dataset, error) {
	if len(cfg.DataFiles) == 0 {
		return nil, ErrNoData
	}
	ds, err := dataset.LoadFiles(cfg.DataFiles, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "files", len(cfg.DataFiles), "companies", ds.Len())
	return ds, nil
}

// NewAggregator builds the aggregator from the configured rule file, or the
// embedded rule set when none is configured.
func NewAggregator(cfg *config.Config, logger *slog.Logger) (*service.RiskAggregator, error) {
	rs := rules.Default()
	if cfg.RulesFile != "" {
		var err error
		if rs, err = rules.LoadFile(cfg.RulesFile); err != nil {
			return nil, err
		}
	}
	logger.Info("scoring rules loaded", "version", rs.Version(), "file", cfg.RulesFile)
	return service.NewRiskAggregator(service.NewFactorScorer(rs)), nil
}

// BatchOptions maps the batch tuning knobs.
func BatchOptions(cfg *config.Config) service.BatchOptions {
	return service.BatchOptions{
		BatchSize:  cfg.BatchSize,
		BatchCount: cfg.BatchCount,
		Workers:    cfg.Workers,
	}
}

// ConnectPostgres opens the pool with exponential backoff and applies the
// embedded migrations.
func ConnectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	op := func() error {
		p, err := pgpkg.NewPool(ctx, pgpkg.Config{URL: cfg.DatabaseURL})
		if err != nil {
			logger.Warn("database not reachable, retrying", "error", err)
			return err
		}
		pool = p
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pgpkg.RunMigrations(cfg.DatabaseURL, migrations.FS); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to database, schema current")
	return pool, nil
}

// NewProducer creates the Kafka producer for the configured brokers.
func NewProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	return pkgkafka.NewProducer(KafkaConfig(cfg))
}

// KafkaConfig maps the broker settings.
func KafkaConfig(cfg *config.Config) pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       pkgkafka.ParseBrokers(cfg.KafkaBroker),
		ConsumerGroup: ConsumerGroup,
	}
}

// Outputs are the optional sinks of a ranking run.
type Outputs struct {
	Pool      *pgxpool.Pool
	Producer  *pkgkafka.Producer
	Publisher *kafka.Publisher
	Options   usecase.RankCompaniesOptions
}

// Close releases the pool and the producer.
func (o *Outputs) Close() error {
	var errs []error
	if o.Producer != nil {
		errs = append(errs, o.Producer.Close())
	}
	if o.Pool != nil {
		o.Pool.Close()
	}
	return errors.Join(errs...)
}

// NewOutputs wires export, persistence and publishing as configured.
// When rankings are persisted, events go through the outbox and the
// returned Publisher feeds the relay; otherwise the use case publishes
// directly.
func NewOutputs(ctx context.Context, cfg *config.Config, metrics *observability.ScoringMetrics, logger *slog.Logger) (*Outputs, error) {
	out := &Outputs{Options: usecase.RankCompaniesOptions{
		Exporter: export.NewFileExporter(cfg.ExportDir),
		Metrics:  metrics,
		Batch:    BatchOptions(cfg),
	}}

	if cfg.PersistRankings {
		pool, err := ConnectPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		out.Pool = pool
		out.Options.Repo = postgres.NewRankingRepository(pool)
	}

	if cfg.PublishEvents {
		producer, err := NewProducer(cfg)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out.Producer = producer
		out.Publisher = kafka.NewPublisher(producer, cfg.KafkaTopic, logger)
		if out.Options.Repo == nil {
			out.Options.Publisher = &retryingPublisher{next: out.Publisher}
		}
	}

	return out, nil
}

func retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = RetryMaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(b, RetryMaxTries), ctx)
}
