package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
)

// ErrRankingsNotStored is returned when ranking persistence is disabled.
var ErrRankingsNotStored = errors.New("ranking persistence is disabled")

// GetRanking is the use case for retrieving a stored ranking run.
type GetRanking struct {
	repo port.RankingRepository
}

// NewGetRanking creates a new GetRanking use case. repo may be nil when
// rankings are not persisted.
func NewGetRanking(repo port.RankingRepository) *GetRanking {
	return &GetRanking{repo: repo}
}

// Execute returns the requested run, or the latest one when no id is given.
func (uc *GetRanking) Execute(ctx context.Context, req dto.GetRankingRequest) (dto.RankingResponse, error) {
	if err := dto.Validate(req); err != nil {
		return dto.RankingResponse{}, err
	}
	if uc.repo == nil {
		return dto.RankingResponse{}, ErrRankingsNotStored
	}

	var (
		run *model.RankingRun
		err error
	)
	if req.RunID == uuid.Nil {
		run, err = uc.repo.Latest(ctx, req.Limit)
	} else {
		run, err = uc.repo.FindByID(ctx, req.RunID, req.Limit)
	}
	if err != nil {
		return dto.RankingResponse{}, fmt.Errorf("failed to get ranking: %w", err)
	}

	return dto.FromRankingRun(run), nil
}
