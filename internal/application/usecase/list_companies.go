package usecase

import (
	"context"

	"github.com/nader8687/company-risk-score-calculator/internal/application/dto"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/port"
)

// SelectableColumns are the categorical columns whose distinct values are
// offered to interactive callers.
var SelectableColumns = []string{"economic_department", "status", "legal_type", "wps", "is_branch"}

// ListCompanies returns the companies available for interactive scoring.
type ListCompanies struct {
	source port.CompanySource
}

// NewListCompanies creates a new ListCompanies use case.
func NewListCompanies(source port.CompanySource) *ListCompanies {
	return &ListCompanies{source: source}
}

// Execute lists business names and the distinct values of each selectable
// column, all in dataset order.
func (uc *ListCompanies) Execute(_ context.Context) (dto.ListCompaniesResponse, error) {
	options := make(map[string][]string, len(SelectableColumns))
	for _, col := range SelectableColumns {
		values := uc.source.DistinctValues(col)
		if values == nil {
			values = []string{}
		}
		options[col] = values
	}

	names := uc.source.Names()
	if names == nil {
		names = []string{}
	}

	return dto.ListCompaniesResponse{
		Companies: names,
		Options:   options,
	}, nil
}
