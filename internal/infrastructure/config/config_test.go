package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "8090", cfg.GRPCPort)
	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, 8, cfg.BatchCount)
	assert.Equal(t, 5*time.Second, cfg.OutboxRelayInterval)
	assert.Empty(t, cfg.DataFiles)
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.AuthEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("GRPC_PORT", "7000")
	t.Setenv("RISK_DATA_FILES", " a.csv, ,b.csv ")
	t.Setenv("RISK_BATCH_SIZE", "25")
	t.Setenv("RISK_WORKERS", "4")
	t.Setenv("RISK_RATE_LIMIT_RPS", "2.5")
	t.Setenv("PERSIST_RANKINGS", "true")
	t.Setenv("OUTBOX_RELAY_INTERVAL", "250ms")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := config.Load()

	assert.Equal(t, ":7000", cfg.GRPCAddress())
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.DataFiles)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
	assert.True(t, cfg.PersistRankings)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxRelayInterval)
	assert.True(t, cfg.AuthEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("RISK_BATCH_COUNT", "many")
	t.Setenv("PUBLISH_EVENTS", "maybe")

	cfg := config.Load()
	assert.Equal(t, 8, cfg.BatchCount)
	assert.False(t, cfg.PublishEvents)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"non-numeric port", func(c *config.Config) { c.HTTPPort = "http" }},
		{"unknown log level", func(c *config.Config) { c.LogLevel = "verbose" }},
		{"zero batch count", func(c *config.Config) { c.BatchCount = 0 }},
		{"persist without database", func(c *config.Config) { c.PersistRankings = true; c.DatabaseURL = "" }},
		{"cert without key", func(c *config.Config) { c.TLSCertFile = "server.crt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
