package rest

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/nader8687/company-risk-score-calculator/pkg/auth"
)

// RouterConfig carries the cross-cutting pieces of the HTTP surface.
// JWT and Limiter are optional.
type RouterConfig struct {
	JWT     *auth.JWTService
	Limiter *rate.Limiter
	Metrics http.Handler
	Logger  *slog.Logger
}

// publicPaths are served without authentication or rate limiting.
var publicPaths = []string{"/healthz", "/readyz", "/metrics"}

// NewRouter assembles the HTTP API.
func NewRouter(risk *RiskHandler, health *HealthHandler, cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	operator := func(h http.HandlerFunc) http.Handler {
		if cfg.JWT == nil {
			return h
		}
		return auth.RequireRoleHTTP(h, auth.RoleOperator)
	}

	api.HandleFunc("GET /v1/companies", risk.ListCompanies)
	api.HandleFunc("POST /v1/companies/{name}/score", risk.ScoreCompany)
	api.HandleFunc("POST /v1/score", risk.ScoreRecord)
	api.Handle("POST /v1/rankings", operator(risk.RankCompanies))
	api.HandleFunc("GET /v1/rankings/latest", risk.LatestRanking)
	api.HandleFunc("GET /v1/rankings/{id}", risk.GetRanking)

	var middlewares []func(http.Handler) http.Handler
	if cfg.Limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(cfg.Limiter))
	}
	if cfg.JWT != nil {
		middlewares = append(middlewares, auth.HTTPMiddleware(cfg.JWT, publicPaths))
	}

	root := http.NewServeMux()
	health.RegisterRoutes(root)
	if cfg.Metrics != nil {
		root.Handle("GET /metrics", cfg.Metrics)
	}
	root.Handle("/v1/", Chain(api, middlewares...))

	return LoggingMiddleware(cfg.Logger)(root)
}
