package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	pkgkafka "github.com/nader8687/company-risk-score-calculator/pkg/kafka"
)

// Ranker runs a batch ranking. *usecase.RankCompanies implements it.
type Ranker interface {
	Execute(ctx context.Context, req dto.RankRequest) (dto.RankResponse, error)
}

// RankRequestHandler triggers rankings from messages on a request topic.
// The message value is a JSON dto.RankRequest; an empty value ranks with
// the default weights.
type RankRequestHandler struct {
	ranker Ranker
	logger *slog.Logger
}

// NewRankRequestHandler creates a new RankRequestHandler.
func NewRankRequestHandler(ranker Ranker, logger *slog.Logger) *RankRequestHandler {
	return &RankRequestHandler{ranker: ranker, logger: logger}
}

// Handle is a pkgkafka.Handler. Malformed requests are logged and
// acknowledged; a ranking already in progress absorbs the request.
func (h *RankRequestHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var req dto.RankRequest
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			h.logger.Warn("discarding malformed rank request", "error", err, "key", string(msg.Key))
			return nil
		}
	}
	if req.RequestedBy == "" {
		req.RequestedBy = "kafka"
	}

	resp, err := h.ranker.Execute(ctx, req)
	switch {
	case errors.Is(err, dto.ErrInvalidRequest):
		h.logger.Warn("discarding invalid rank request", "error", err)
		return nil
	case errors.Is(err, usecase.ErrRankingInProgress):
		h.logger.Info("rank request absorbed by running ranking")
		return nil
	case err != nil:
		return fmt.Errorf("rank request: %w", err)
	}

	h.logger.Info("rank request completed", "run_id", resp.RunID, "companies", resp.Companies)
	return nil
}
