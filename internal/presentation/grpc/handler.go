package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/pkg/auth"
)

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	scoreCompany  *usecase.ScoreCompany
	scoreRecord   *usecase.ScoreRecord
	listCompanies *usecase.ListCompanies
	rankCompanies *usecase.RankCompanies
	getRanking    *usecase.GetRanking
	logger        *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(
	scoreCompany *usecase.ScoreCompany,
	scoreRecord *usecase.ScoreRecord,
	listCompanies *usecase.ListCompanies,
	rankCompanies *usecase.RankCompanies,
	getRanking *usecase.GetRanking,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		scoreCompany:  scoreCompany,
		scoreRecord:   scoreRecord,
		listCompanies: listCompanies,
		rankCompanies: rankCompanies,
		getRanking:    getRanking,
		logger:        logger,
	}
}

// ListCompanies lists the dataset's companies and selectable attribute values.
func (h *RiskServiceHandler) ListCompanies(ctx context.Context, _ *ListCompaniesRequest) (*dto.ListCompaniesResponse, error) {
	resp, err := h.listCompanies.Execute(ctx)
	if err != nil {
		return nil, h.toStatus(ctx, "ListCompanies", err)
	}
	return &resp, nil
}

// ScoreCompany scores a dataset company.
func (h *RiskServiceHandler) ScoreCompany(ctx context.Context, req *dto.ScoreCompanyRequest) (*dto.ScoreResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	resp, err := h.scoreCompany.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "ScoreCompany", err)
	}
	return &resp, nil
}

// ScoreRecord scores an ad-hoc record.
func (h *RiskServiceHandler) ScoreRecord(ctx context.Context, req *dto.ScoreRecordRequest) (*dto.ScoreResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	resp, err := h.scoreRecord.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "ScoreRecord", err)
	}
	return &resp, nil
}

// RankCompanies runs a batch ranking. The caller's subject is recorded as the
// requester unless the request names one.
func (h *RiskServiceHandler) RankCompanies(ctx context.Context, req *dto.RankRequest) (*dto.RankResponse, error) {
	if req == nil {
		req = &dto.RankRequest{}
	}
	if req.RequestedBy == "" {
		if claims, ok := auth.ClaimsFromContext(ctx); ok {
			req.RequestedBy = claims.Subject
		}
	}
	resp, err := h.rankCompanies.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "RankCompanies", err)
	}
	return &resp, nil
}

// GetRanking returns a stored ranking run.
func (h *RiskServiceHandler) GetRanking(ctx context.Context, req *dto.GetRankingRequest) (*dto.RankingResponse, error) {
	if req == nil {
		req = &dto.GetRankingRequest{}
	}
	resp, err := h.getRanking.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "GetRanking", err)
	}
	return &resp, nil
}

// toStatus maps use case errors onto gRPC status codes.
func (h *RiskServiceHandler) toStatus(ctx context.Context, method string, err error) error {
	var cfgErr *service.ConfigurationError
	switch {
	case errors.Is(err, dto.ErrInvalidRequest), errors.As(err, &cfgErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, port.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, usecase.ErrRankingInProgress):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, usecase.ErrRankingsNotStored):
		return status.Error(codes.Unimplemented, err.Error())
	}
	h.logger.ErrorContext(ctx, "rpc failed", slog.String("method", method), slog.String("error", err.Error()))
	return status.Error(codes.Internal, "internal error")
}
