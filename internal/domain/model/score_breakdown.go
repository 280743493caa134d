package model

import (
	"fmt"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
)

// ScoreBreakdown is the per-factor result of scoring one company.
// Weighted and Raw always hold all eleven factors.
type ScoreBreakdown struct {
	Weighted map[valueobject.Factor]float64
	Raw      map[valueobject.Factor]float64
	Total    float64
	TotalRaw float64
}

// NewScoreBreakdown builds a breakdown from raw scores and the weights
// applied to them, computing both totals in canonical factor order.
func NewScoreBreakdown(raw, weights map[valueobject.Factor]float64) ScoreBreakdown {
	b := ScoreBreakdown{
		Weighted: make(map[valueobject.Factor]float64, len(raw)),
		Raw:      make(map[valueobject.Factor]float64, len(raw)),
	}
	for _, f := range valueobject.AllFactors() {
		r := raw[f]
		w := r * weights[f]
		b.Raw[f] = r
		b.Weighted[f] = w
		b.TotalRaw += r
		b.Total += w
	}
	return b
}

// TotalWeightAdjusted is the ranking key; it equals Total.
func (b ScoreBreakdown) TotalWeightAdjusted() float64 {
	return b.Total
}

// Map renders the breakdown with string keys. The plain form has the
// eleven factor names and "Total"; the detailed form adds "<Factor>_raw",
// "Total_raw" and "Total_weight_adjusted".
func (b ScoreBreakdown) Map(detailed bool) map[string]float64 {
	size := len(b.Weighted) + 1
	if detailed {
		size = 2*len(b.Weighted) + 3
	}
	out := make(map[string]float64, size)
	for _, f := range valueobject.AllFactors() {
		out[f.String()] = b.Weighted[f]
		if detailed {
			out[f.RawKey()] = b.Raw[f]
		}
	}
	out[valueobject.KeyTotal] = b.Total
	if detailed {
		out[valueobject.KeyTotalRaw] = b.TotalRaw
		out[valueobject.KeyTotalWeightAdjusted] = b.Total
	}
	return out
}

// BreakdownKeys lists the keys of Map(detailed) in a stable display order.
func BreakdownKeys(detailed bool) []string {
	factors := valueobject.AllFactors()
	keys := make([]string, 0, 2*len(factors)+3)
	for _, f := range factors {
		keys = append(keys, f.String())
	}
	keys = append(keys, valueobject.KeyTotal)
	if !detailed {
		return keys
	}
	for _, f := range factors {
		keys = append(keys, f.RawKey())
	}
	return append(keys, valueobject.KeyTotalRaw, valueobject.KeyTotalWeightAdjusted)
}

// ScoreBreakdownFromMap rebuilds a breakdown from its detailed Map form.
func ScoreBreakdownFromMap(m map[string]float64) (ScoreBreakdown, error) {
	b := ScoreBreakdown{
		Weighted: make(map[valueobject.Factor]float64),
		Raw:      make(map[valueobject.Factor]float64),
	}
	for _, f := range valueobject.AllFactors() {
		w, ok := m[f.String()]
		if !ok {
			return ScoreBreakdown{}, fmt.Errorf("breakdown is missing %q", f.String())
		}
		r, ok := m[f.RawKey()]
		if !ok {
			return ScoreBreakdown{}, fmt.Errorf("breakdown is missing %q", f.RawKey())
		}
		b.Weighted[f] = w
		b.Raw[f] = r
	}
	var ok bool
	if b.Total, ok = m[valueobject.KeyTotal]; !ok {
		return ScoreBreakdown{}, fmt.Errorf("breakdown is missing %q", valueobject.KeyTotal)
	}
	if b.TotalRaw, ok = m[valueobject.KeyTotalRaw]; !ok {
		return ScoreBreakdown{}, fmt.Errorf("breakdown is missing %q", valueobject.KeyTotalRaw)
	}
	return b, nil
}
