// Package export writes ranked scoring results to files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
)

// DefaultFileName is the file written by the batch ranking run.
const DefaultFileName = "companies_with_risk_scores.csv"

// Header returns the CSV header: rank, the record columns, then every
// detailed breakdown key.
func Header() []string {
	cols := model.Columns()
	keys := model.BreakdownKeys(true)
	header := make([]string, 0, 1+len(cols)+len(keys))
	header = append(header, "Rank")
	header = append(header, cols...)
	return append(header, keys...)
}

// WriteCSV serializes results in the order given.
func WriteCSV(w io.Writer, results []service.RankedResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	cols := model.Columns()
	keys := model.BreakdownKeys(true)
	for _, r := range results {
		row := make([]string, 0, 1+len(cols)+len(keys))
		row = append(row, strconv.Itoa(r.Rank))

		fields := r.Record.Fields()
		for _, c := range cols {
			row = append(row, fields[c])
		}

		scores := r.Breakdown.Map(true)
		for _, k := range keys {
			row = append(row, strconv.FormatFloat(scores[k], 'f', -1, 64))
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row %d: %w", r.Rank, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

// WriteFile writes results to path, creating parent directories. The file
// is written to a temporary sibling first and renamed into place.
func WriteFile(path string, results []service.RankedResult) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := WriteCSV(tmp, results); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}

// FileExporter writes each ranking to a fixed CSV path.
type FileExporter struct {
	Path string
}

// NewFileExporter creates an exporter writing DefaultFileName under dir.
func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{Path: filepath.Join(dir, DefaultFileName)}
}

// Export writes results and returns the file path.
func (e *FileExporter) Export(_ context.Context, results []service.RankedResult) (string, error) {
	if err := WriteFile(e.Path, results); err != nil {
		return "", err
	}
	return e.Path, nil
}
