package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/application/usecase"
)

func TestListCompanies_Execute(t *testing.T) {
	uc := usecase.NewListCompanies(&mockSource{records: testRecords()})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme Trading", "Beta Foods", "Gamma Logistics"}, resp.Companies)
	assert.Equal(t, []string{"Abu Dhabi"}, resp.Options["economic_department"])
	assert.Equal(t, []string{"Active", "Inactive"}, resp.Options["status"])
	assert.Equal(t, []string{"No", "Yes"}, resp.Options["is_branch"])
	assert.Equal(t, []string{}, resp.Options["legal_type"])
	assert.Len(t, resp.Options, len(usecase.SelectableColumns))
}

func TestListCompanies_EmptySource(t *testing.T) {
	resp, err := usecase.NewListCompanies(&mockSource{}).Execute(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resp.Companies)
	assert.Empty(t, resp.Companies)
}
