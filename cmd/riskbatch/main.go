// Command riskbatch ranks the dataset once and exits. It also issues API
// tokens and development TLS material.
//
//	riskbatch [rank] [-data a.csv,b.csv] [-out dir] [-weights "WPS=0.2,Phone=0"] [-persist] [-publish]
//	riskbatch token -subject ops -roles operator,analyst
//	riskbatch certs -hosts localhost,127.0.0.1 -out ./certs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/bootstrap"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/config"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/messaging"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/postgres"
	"github.com/nader8687/company-risk-score-calculator/pkg/auth"
	"github.com/nader8687/company-risk-score-calculator/pkg/observability"
	"github.com/nader8687/company-risk-score-calculator/pkg/tlsutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("riskbatch failed", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cmd := "rank"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	cfg := config.Load()
	switch cmd {
	case "rank":
		return rank(ctx, cfg, args, stdout)
	case "token":
		return token(cfg, args, stdout)
	case "certs":
		return certs(args, stdout)
	default:
		return fmt.Errorf("unknown command %q (want rank, token or certs)", cmd)
	}
}

func rank(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	data := fs.String("data", strings.Join(cfg.DataFiles, ","), "comma separated CSV files, merged in order")
	fs.StringVar(&cfg.RulesFile, "rules", cfg.RulesFile, "YAML or TOML rule file overriding the embedded rules")
	fs.StringVar(&cfg.ExportDir, "out", cfg.ExportDir, "directory receiving the ranked CSV")
	weightSpec := fs.String("weights", "", `weight overrides, e.g. "WPS=0.2,Visa Ratio=0.5"`)
	top := fs.Int("top", 10, "number of ranked companies to print")
	fs.BoolVar(&cfg.PersistRankings, "persist", cfg.PersistRankings, "store the run in PostgreSQL")
	fs.BoolVar(&cfg.PublishEvents, "publish", cfg.PublishEvents, "publish ranking events to Kafka")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent scoring tasks per batch (0 = GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.DataFiles = splitList(*data)

	logger := observability.InitLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err := cfg.Validate(); err != nil {
		return err
	}

	weights, err := parseWeights(*weightSpec)
	if err != nil {
		return err
	}

	source, err := bootstrap.LoadDataset(cfg, logger)
	if err != nil {
		return err
	}
	aggregator, err := bootstrap.NewAggregator(cfg, logger)
	if err != nil {
		return err
	}

	outputs, err := bootstrap.NewOutputs(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer outputs.Close()

	resp, err := usecase.NewRankCompanies(source, aggregator, outputs.Options, logger).Execute(ctx, dto.RankRequest{
		Weights:     weights.ToMap(),
		RequestedBy: "riskbatch",
		Top:         *top,
	})
	if err != nil {
		return err
	}

	if outputs.Pool != nil && outputs.Publisher != nil {
		if err := drainOutbox(ctx, outputs, logger); err != nil {
			return err
		}
	}

	return printRanking(stdout, resp)
}

// drainOutbox relays the run's events before exiting; a one-shot run has no
// background relay.
func drainOutbox(ctx context.Context, outputs *bootstrap.Outputs, logger *slog.Logger) error {
	relay := messaging.NewOutboxRelay(postgres.NewOutboxRepository(outputs.Pool), outputs.Publisher, time.Second, logger)
	for {
		n, err := relay.RelayOnce(ctx)
		if err != nil {
			return err
		}
		if n < messaging.DefaultRelayBatch {
			return nil
		}
	}
}

// parseWeights applies "Factor=weight" overrides to the default weights.
func parseWeights(spec string) (valueobject.WeightVector, error) {
	weights := valueobject.DefaultWeights()
	for _, pair := range splitList(spec) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("weight %q: want Factor=value", pair)
		}
		f, err := valueobject.FactorFromString(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %q: %w", f.String(), err)
		}
		weights = weights.With(f, w)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return weights, nil
}

func printRanking(w io.Writer, resp dto.RankResponse) error {
	fmt.Fprintf(w, "ranked %d companies in %s (rules %s, %d high risk)\n",
		resp.Companies, time.Duration(resp.DurationMS)*time.Millisecond, resp.RulesVersion, resp.HighRisk)
	if resp.ExportPath != "" {
		fmt.Fprintf(w, "wrote %s\n", resp.ExportPath)
	}
	if resp.Persisted {
		fmt.Fprintf(w, "stored run %s\n", resp.RunID)
	}
	if len(resp.Top) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOMPANY\tTOTAL\tHIGH RISK")
	for _, c := range resp.Top {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", c.Rank, c.BusinessName, strconv.FormatFloat(c.Total, 'f', 2, 64), c.HighRisk)
	}
	return tw.Flush()
}

func token(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", cfg.JWTSecret, "HMAC signing secret (defaults to JWT_SECRET)")
	subject := fs.String("subject", "", "token subject")
	roles := fs.String("roles", auth.RoleAnalyst, "comma separated roles")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("token: -subject is required")
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: *secret, Issuer: cfg.JWTIssuer, Expiration: *ttl})
	if err != nil {
		return err
	}
	signed, err := svc.GenerateToken(*subject, splitList(*roles))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, signed)
	return err
}

func certs(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("certs", flag.ContinueOnError)
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma separated DNS names and IPs")
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	files, err := tlsutil.GenerateSelfSigned(splitList(*hosts), *out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "TLS_CERT_FILE=%s\nTLS_KEY_FILE=%s\nCA=%s\n", files.ServerCert, files.ServerKey, files.CACert)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
