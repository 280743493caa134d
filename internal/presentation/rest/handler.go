package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
)

const maxBodyBytes = 1 << 20

// RiskHandler serves the scoring and ranking API.
type RiskHandler struct {
	scoreCompany  *usecase.ScoreCompany
	scoreRecord   *usecase.ScoreRecord
	listCompanies *usecase.ListCompanies
	rankCompanies *usecase.RankCompanies
	getRanking    *usecase.GetRanking
	logger        *slog.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(
	scoreCompany *usecase.ScoreCompany,
	scoreRecord *usecase.ScoreRecord,
	listCompanies *usecase.ListCompanies,
	rankCompanies *usecase.RankCompanies,
	getRanking *usecase.GetRanking,
	logger *slog.Logger,
) *RiskHandler {
	return &RiskHandler{
		scoreCompany:  scoreCompany,
		scoreRecord:   scoreRecord,
		listCompanies: listCompanies,
		rankCompanies: rankCompanies,
		getRanking:    getRanking,
		logger:        logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListCompanies handles GET /v1/companies.
func (h *RiskHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listCompanies.Execute(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ScoreCompany handles POST /v1/companies/{name}/score.
func (h *RiskHandler) ScoreCompany(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreCompanyRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.BusinessName = r.PathValue("name")

	resp, err := h.scoreCompany.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ScoreRecord handles POST /v1/score.
func (h *RiskHandler) ScoreRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.scoreRecord.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RankCompanies handles POST /v1/rankings.
func (h *RiskHandler) RankCompanies(w http.ResponseWriter, r *http.Request) {
	var req dto.RankRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}

	resp, err := h.rankCompanies.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// LatestRanking handles GET /v1/rankings/latest.
func (h *RiskHandler) LatestRanking(w http.ResponseWriter, r *http.Request) {
	h.ranking(w, r, uuid.Nil)
}

// GetRanking handles GET /v1/rankings/{id}.
func (h *RiskHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ranking id"})
		return
	}
	h.ranking(w, r, id)
}

func (h *RiskHandler) ranking(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	req := dto.GetRankingRequest{RunID: id, Limit: 100}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		req.Limit = limit
	}

	resp, err := h.getRanking.Execute(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RiskHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps use case errors onto HTTP statuses.
func (h *RiskHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var cfgErr *service.ConfigurationError

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, dto.ErrInvalidRequest), errors.As(err, &cfgErr):
		code = http.StatusBadRequest
	case errors.Is(err, port.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, usecase.ErrRankingInProgress):
		code = http.StatusConflict
	case errors.Is(err, usecase.ErrRankingsNotStored):
		code = http.StatusNotImplemented
	}

	if code == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, code, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
