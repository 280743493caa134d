package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
)

// ErrMissingColumn is returned when a file lacks the business name column.
var ErrMissingColumn = errors.New("dataset: missing required column")

const columnBusinessName = "business_name_english"

// columnAliases maps alternate header names to their canonical column.
var columnAliases = map[string]string{
	"website": "website_url",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
}

// LoadFiles reads and merges CSV files in order.
func LoadFiles(paths []string, logger *slog.Logger) (*Dataset, error) {
	sets := make([]*Dataset, 0, len(paths))
	for _, p := range paths {
		d, err := LoadCSV(p, logger)
		if err != nil {
			return nil, err
		}
		sets = append(sets, d)
	}
	return Merge(sets...), nil
}

// LoadCSV reads one CSV file.
func LoadCSV(path string, logger *slog.Logger) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	d, err := ReadCSV(f, logger.With("file", path))
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return d, nil
}

// ReadCSV parses a CSV stream with a header row. Blank cells become nil
// attributes. Malformed dates and counts also become nil and are logged at
// debug level.
func ReadCSV(r io.Reader, logger *slog.Logger) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w %q: empty input", ErrMissingColumn, columnBusinessName)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			if _, exists := colIdx[alias]; exists {
				continue
			}
			name = alias
		}
		colIdx[name] = i
	}
	if _, ok := colIdx[columnBusinessName]; !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, columnBusinessName)
	}

	p := rowParser{colIdx: colIdx, logger: logger}
	var records []model.CompanyRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		records = append(records, p.parse(row, line))
	}

	return New(records), nil
}

type rowParser struct {
	colIdx map[string]int
	logger *slog.Logger
}

// cell returns the raw cell text. Whitespace only decides blankness; text
// attributes keep it because the scorers match exactly.
func (p rowParser) cell(row []string, col string) (string, bool) {
	idx, ok := p.colIdx[col]
	if !ok || idx >= len(row) {
		return "", false
	}
	v := row[idx]
	return v, strings.TrimSpace(v) != ""
}

func (p rowParser) text(row []string, col string) *string {
	v, ok := p.cell(row, col)
	if !ok {
		return nil
	}
	return &v
}

func (p rowParser) date(row []string, col string, line int) *time.Time {
	v, ok := p.cell(row, col)
	if !ok {
		return nil
	}
	t, err := ParseDate(v)
	if err != nil {
		p.logger.Debug("unparseable date", "line", line, "column", col, "value", v)
		return nil
	}
	return &t
}

func (p rowParser) count(row []string, col string, line int) *int64 {
	v, ok := p.cell(row, col)
	if !ok {
		return nil
	}
	n, err := ParseCount(v)
	if err != nil {
		p.logger.Debug("unparseable count", "line", line, "column", col, "value", v)
		return nil
	}
	return &n
}

func (p rowParser) parse(row []string, line int) model.CompanyRecord {
	name, _ := p.cell(row, columnBusinessName)
	rec := model.CompanyRecord{
		BusinessName:       strings.TrimSpace(name),
		EconomicDepartment: p.text(row, "economic_department"),
		Status:             p.text(row, "status"),
		LegalType:          p.text(row, "legal_type"),
		WPS:                p.text(row, "wps"),
		EstDate:            p.date(row, "est_date", line),
		ExpiryDate:         p.date(row, "expiry_date", line),
		VisaApproved:       p.count(row, "visa_approved", line),
		VisaCancelled:      p.count(row, "visa_cancelled", line),
		VisaRequested:      p.count(row, "visa_requested", line),
		VisaUsed:           p.count(row, "visa_used", line),
		PhoneNo:            p.text(row, "phone_no"),
		MobileNo:           p.text(row, "mobile_no"),
		WebsiteURL:         p.text(row, "website_url"),
		Email:              p.text(row, "email"),
	}
	if v, ok := p.cell(row, "is_branch"); ok {
		rec.IsBranch = v
	}
	return rec
}

// ParseDate accepts the calendar date layouts found in registry exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dataset: unrecognised date %q", s)
}

// ParseCount parses a non-negative count. Spreadsheet exports write integers
// as floats ("12.0"); those are accepted when they have no fraction.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("dataset: negative count %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f > math.MaxInt64 {
		return 0, fmt.Errorf("dataset: invalid count %q", s)
	}
	return int64(f), nil
}
