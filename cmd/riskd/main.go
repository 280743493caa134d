// Command riskd serves interactive scoring and ranking over HTTP and gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/nader8687/company-risk-score-calculator/internal/application/scheduler"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/bootstrap"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/config"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/messaging"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/postgres"
	grpcpresentation "github.com/nader8687/company-risk-score-calculator/internal/presentation/grpc"
	"github.com/nader8687/company-risk-score-calculator/internal/presentation/rest"
	"github.com/nader8687/company-risk-score-calculator/pkg/auth"
	pkgkafka "github.com/nader8687/company-risk-score-calculator/pkg/kafka"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
	pgpkg "github.com/nader8687/company-risk-score-calculator/pkg/postgres"
	"github.com/nader8687/company-risk-score-calculator/pkg/tlsutil"
)

func main() {
	if err := run(); err != nil {
		slog.Error("riskd failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := observability.InitLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info("starting riskd", slog.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: rest.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    !cfg.TLSEnabled(),
		})
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metrics, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: rest.ServiceName})
	if err != nil {
		return err
	}
	defer func() { _ = metrics.Shutdown(context.Background()) }()

	// Initialize domain and data.
	source, err := bootstrap.LoadDataset(cfg, logger)
	if err != nil {
		return err
	}
	aggregator, err := bootstrap.NewAggregator(cfg, logger)
	if err != nil {
		return err
	}

	// Initialize infrastructure adapters.
	outputs, err := bootstrap.NewOutputs(ctx, cfg, metrics.Scoring, logger)
	if err != nil {
		return err
	}
	defer outputs.Close()

	// Initialize use cases.
	scoreCompany := usecase.NewScoreCompany(source, aggregator, metrics.Scoring)
	scoreRecord := usecase.NewScoreRecord(aggregator, metrics.Scoring)
	listCompanies := usecase.NewListCompanies(source)
	rankCompanies := usecase.NewRankCompanies(source, aggregator, outputs.Options, logger)
	getRanking := usecase.NewGetRanking(outputs.Options.Repo)

	var jwtService *auth.JWTService
	if cfg.AuthEnabled() {
		if jwtService, err = auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}); err != nil {
			return err
		}
	} else {
		logger.Warn("JWT_SECRET not set, APIs are unauthenticated")
	}

	var background sync.WaitGroup
	defer func() {
		stop()
		background.Wait()
	}()

	if outputs.Pool != nil && outputs.Publisher != nil {
		relay := messaging.NewOutboxRelay(postgres.NewOutboxRepository(outputs.Pool), outputs.Publisher, cfg.OutboxRelayInterval, logger)
		background.Add(1)
		go func() {
			defer background.Done()
			relay.Run(ctx)
		}()
	}

	if cfg.RankRequestTopic != "" {
		handler := messaging.NewRankRequestHandler(rankCompanies, logger)
		consumer, err := pkgkafka.NewConsumer(bootstrap.KafkaConfig(cfg), cfg.RankRequestTopic, handler.Handle, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		background.Add(1)
		go func() {
			defer background.Done()
			if err := consumer.Start(ctx); err != nil {
				logger.Error("rank request consumer stopped", "error", err)
			}
		}()
	}

	if cfg.RankSchedule != "" {
		sched, err := scheduler.New(cfg.RankSchedule, rankCompanies, metrics.Meter("risk.scheduler"), logger)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Initialize gRPC handler and server.
	grpcHandler := grpcpresentation.NewRiskServiceHandler(scoreCompany, scoreRecord, listCompanies, rankCompanies, getRanking, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddress(), grpcpresentation.ServerOptions{
		JWT:        jwtService,
		CertFile:   cfg.TLSCertFile,
		KeyFile:    cfg.TLSKeyFile,
		Reflection: cfg.Environment == "development",
	}, logger)
	if err != nil {
		return err
	}

	// Initialize HTTP server.
	checks := map[string]rest.Checker{
		"dataset": func(context.Context) error {
			if source.Len() == 0 {
				return errors.New("dataset is empty")
			}
			return nil
		},
	}
	if outputs.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return pgpkg.HealthCheck(ctx, outputs.Pool) }
	}
	riskHandler := rest.NewRiskHandler(scoreCompany, scoreRecord, listCompanies, rankCompanies, getRanking, logger)
	routerCfg := rest.RouterConfig{
		JWT:     jwtService,
		Metrics: metrics.Handler(),
		Logger:  logger,
	}
	if cfg.RateLimitRPS > 0 {
		routerCfg.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      rest.NewRouter(riskHandler, rest.NewHealthHandler(checks, logger), routerCfg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.TLSEnabled() {
		if httpServer.TLSConfig, err = tlsutil.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil {
			return err
		}
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", slog.String("address", cfg.HTTPAddress()), slog.Bool("tls", cfg.TLSEnabled()))
		var err error
		if cfg.TLSEnabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("riskd started",
		slog.String("grpc_address", cfg.GRPCAddress()),
		slog.String("http_address", cfg.HTTPAddress()),
		slog.Int("companies", source.Len()),
		slog.String("rules_version", aggregator.RulesVersion()),
	)

	// Wait for shutdown signal.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case serveErr = <-errCh:
		logger.Error("server error", slog.String("error", serveErr.Error()))
		stop()
	}

	// Graceful shutdown.
	logger.Info("shutting down riskd")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	grpcServer.Stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("riskd stopped")
	return serveErr
}
