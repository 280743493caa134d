package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
	"github.com/nader8687/company-risk-score-calculator/internal/infrastructure/export"
)

func rankedFixture(t *testing.T) []service.RankedResult {
	t.Helper()
	agg := service.NewRiskAggregator(nil)
	records := []model.CompanyRecord{
		{BusinessName: "Acme, LLC", Status: model.StringPtr("Active"), Email: model.StringPtr("a@acme.ae")},
		{BusinessName: "Beta", Status: model.StringPtr("Expired")},
	}
	out := make([]service.RankedResult, 0, len(records))
	for i, r := range records {
		b, err := agg.Aggregate(r, valueobject.DefaultWeights())
		require.NoError(t, err)
		out = append(out, service.RankedResult{Rank: i + 1, Index: i, Record: r, Breakdown: b})
	}
	return out
}

func TestHeader(t *testing.T) {
	h := export.Header()
	assert.Equal(t, "Rank", h[0])
	assert.Equal(t, "business_name_english", h[1])
	assert.Len(t, h, 1+16+25)
	assert.Equal(t, "Total_weight_adjusted", h[len(h)-1])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	results := rankedFixture(t)
	require.NoError(t, export.WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q not found", name)
		return -1
	}

	assert.Equal(t, "1", rows[1][col("Rank")])
	assert.Equal(t, "Acme, LLC", rows[1][col("business_name_english")], "quoted comma survives")
	assert.Equal(t, "", rows[1][col("wps")])
	assert.Equal(t, "10", rows[1][col("Status_raw")])
	assert.Equal(t, "-50", rows[2][col("Status_raw")])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", export.DefaultFileName)
	require.NoError(t, export.WriteFile(path, rankedFixture(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Beta")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileExporter(t *testing.T) {
	dir := t.TempDir()
	exp := export.NewFileExporter(dir)

	path, err := exp.Export(context.Background(), rankedFixture(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, export.DefaultFileName), path)
	assert.FileExists(t, path)
}
