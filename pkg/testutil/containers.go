// Package testutil starts throwaway Postgres and Kafka instances for
// integration tests. Containers are terminated through t.Cleanup.
package testutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgpkg "github.com/nader8687/company-risk-score-calculator/pkg/postgres"
)

const (
	postgresImage = "postgres:16-alpine"
	kafkaImage    = "confluentinc/confluent-local:7.6.1"
	stopTimeout   = 10 * time.Second
)

// PostgresContainer is a running database with an open pool.
type PostgresContainer struct {
	Pool *pgxpool.Pool
	DSN  string
}

// NewPostgresContainer starts Postgres and opens a small pool against it.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()

	c, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("risk"),
		postgres.WithUsername("risk"),
		postgres.WithPassword("risk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	terminateOnCleanup(t, c)

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	pool, err := pgpkg.NewPool(ctx, pgpkg.Config{URL: dsn, MaxConns: 4})
	require.NoError(t, err, "open pool")
	// Registered after the container, so it runs first.
	t.Cleanup(pool.Close)

	return &PostgresContainer{Pool: pool, DSN: dsn}
}

// Migrate applies every migration in migrations.
func (pc *PostgresContainer) Migrate(t *testing.T, migrations fs.FS) {
	t.Helper()
	require.NoError(t, pgpkg.RunMigrations(pc.DSN, migrations), "run migrations")
}

// KafkaContainer is a running single-node broker.
type KafkaContainer struct {
	Brokers []string
}

// NewKafkaContainer starts a KRaft-mode Kafka broker.
func NewKafkaContainer(ctx context.Context, t *testing.T) *KafkaContainer {
	t.Helper()

	c, err := kafka.Run(ctx, kafkaImage, kafka.WithClusterID("risk-test"))
	require.NoError(t, err, "start kafka container")
	terminateOnCleanup(t, c)

	brokers, err := c.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")

	return &KafkaContainer{Brokers: brokers}
}

func terminateOnCleanup(t *testing.T, c testcontainers.Container) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
}
