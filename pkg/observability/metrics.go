package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
	// Registry defaults to a fresh registry with process and Go collectors.
	Registry *prometheus.Registry
}

// Metrics bundles the Prometheus registry, the OpenTelemetry meter provider
// exporting into it, and the scoring instruments.
type Metrics struct {
	Registry      *prometheus.Registry
	MeterProvider *sdkmetric.MeterProvider
	Scoring       *ScoringMetrics
}

// InitMetrics initializes the Prometheus registry and the OpenTelemetry
// meter provider bridged into it.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("observability: create prometheus exporter: %w", err)
	}

	scoring, err := NewScoringMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Registry:      reg,
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		Scoring:       scoring,
	}, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Meter returns a named meter from the provider.
func (m *Metrics) Meter(name string) metric.Meter {
	return m.MeterProvider.Meter(name)
}

// Shutdown flushes the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.MeterProvider.Shutdown(ctx)
}

// Scoring modes used as metric labels.
const (
	ModeInteractive = "interactive"
	ModeBatch       = "batch"
)

// ScoringMetrics holds the instruments recorded by the scoring use cases.
type ScoringMetrics struct {
	companiesScored *prometheus.CounterVec
	totalScore      *prometheus.HistogramVec
	batchDuration   prometheus.Histogram
	batchFailures   prometheus.Counter
}

// NewScoringMetrics registers the scoring instruments with reg.
func NewScoringMetrics(reg prometheus.Registerer) (*ScoringMetrics, error) {
	m := &ScoringMetrics{
		companiesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk",
			Name:      "companies_scored_total",
			Help:      "Companies scored, by mode.",
		}, []string{"mode"}),
		totalScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "risk",
			Name:      "total_score",
			Help:      "Weighted total score per scored company.",
			Buckets:   prometheus.LinearBuckets(-20, 5, 12),
		}, []string{"mode"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of batch ranking runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		batchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk",
			Name:      "batch_failures_total",
			Help:      "Batch ranking runs aborted by a failing record.",
		}),
	}

	for _, c := range []prometheus.Collector{m.companiesScored, m.totalScore, m.batchDuration, m.batchFailures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("observability: register scoring metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveScore records one scored company.
func (m *ScoringMetrics) ObserveScore(mode string, total float64) {
	if m == nil {
		return
	}
	m.companiesScored.WithLabelValues(mode).Inc()
	m.totalScore.WithLabelValues(mode).Observe(total)
}

// ObserveBatch records the outcome of a batch run.
func (m *ScoringMetrics) ObserveBatch(elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(elapsed.Seconds())
	if failed {
		m.batchFailures.Inc()
	}
}
