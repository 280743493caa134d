//go:build integration

package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/event"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/config"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/kafka"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/messaging"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/postgres"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
	"github.com/nader8687/company-risk-score-calculator/pkg/testutil"
)

// TestRankingPipeline_Integration ranks a dataset, stores the run, relays the
// outbox and reads the events back from Kafka.
func TestRankingPipeline_Integration(t *testing.T) {
	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t)
	kc := testutil.NewKafkaContainer(ctx, t)
	logger := observability.DiscardLogger()

	dir := t.TempDir()
	data := filepath.Join(dir, "companies.csv")
	require.NoError(t, os.WriteFile(data, []byte(
		"business_name_english,status,wps\nAcme Trading,Active,Yes\nBeta Foods,Inactive,No\n"), 0o600))

	cfg := &config.Config{
		DatabaseURL:     pg.DSN,
		KafkaBroker:     kc.Brokers[0],
		KafkaTopic:      "risk.events.it",
		DataFiles:       []string{data},
		ExportDir:       dir,
		BatchCount:      2,
		PersistRankings: true,
		PublishEvents:   true,
	}

	source, err := LoadDataset(cfg, logger)
	require.NoError(t, err)
	agg, err := NewAggregator(cfg, logger)
	require.NoError(t, err)
	outputs, err := NewOutputs(ctx, cfg, nil, logger)
	require.NoError(t, err)
	defer outputs.Close()

	resp, err := usecase.NewRankCompanies(source, agg, outputs.Options, logger).Execute(ctx, dto.RankRequest{Top: 2})
	require.NoError(t, err)
	require.True(t, resp.Persisted)
	require.Equal(t, 1, resp.HighRisk)

	relay := messaging.NewOutboxRelay(postgres.NewOutboxRepository(outputs.Pool), outputs.Publisher, time.Second, logger)
	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := usecase.NewGetRanking(outputs.Options.Repo).Execute(ctx, dto.GetRankingRequest{RunID: resp.RunID})
	require.NoError(t, err)
	assert.Len(t, stored.Entries, 2)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  kc.Brokers,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var types []string
	for len(types) < 2 {
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err)
		assert.Equal(t, resp.RunID.String(), string(msg.Key))
		for _, h := range msg.Headers {
			if h.Key == kafka.HeaderEventType {
				types = append(types, string(h.Value))
			}
		}
	}
	assert.ElementsMatch(t, []string{event.EventTypeRankingCompleted, event.EventTypeHighRiskCompany}, types)
}
