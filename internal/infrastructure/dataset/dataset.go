// Package dataset loads company records from tabular files into an
// immutable, in-memory Dataset.
package dataset

import (
	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
)

// Dataset is an immutable collection of company records. It is safe for
// concurrent use once built.
type Dataset struct {
	records []model.CompanyRecord
	byName  map[string]int
	names   []string
}

// New builds a Dataset over records. The slice is copied.
func New(records []model.CompanyRecord) *Dataset {
	d := &Dataset{
		records: make([]model.CompanyRecord, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	copy(d.records, records)
	for i, r := range d.records {
		if _, seen := d.byName[r.BusinessName]; seen {
			continue
		}
		d.byName[r.BusinessName] = i
		d.names = append(d.names, r.BusinessName)
	}
	return d
}

// Merge concatenates datasets in argument order.
func Merge(sets ...*Dataset) *Dataset {
	var n int
	for _, s := range sets {
		n += s.Len()
	}
	all := make([]model.CompanyRecord, 0, n)
	for _, s := range sets {
		if s != nil {
			all = append(all, s.records...)
		}
	}
	return New(all)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns the records in source order. The returned slice is a copy.
func (d *Dataset) Records() []model.CompanyRecord {
	out := make([]model.CompanyRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Lookup returns the first record with the given business name.
func (d *Dataset) Lookup(businessName string) (model.CompanyRecord, bool) {
	i, ok := d.byName[businessName]
	if !ok {
		return model.CompanyRecord{}, false
	}
	return d.records[i], true
}

// Names returns the distinct business names in first-appearance order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// DistinctValues returns the distinct non-blank values of column in
// first-appearance order. Unknown columns yield nil.
func (d *Dataset) DistinctValues(column string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range d.records {
		v, ok := r.Fields()[column]
		if !ok {
			return nil
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
