package valueobject

import "fmt"

// WeightVector maps each factor to the multiplier applied to its raw score.
type WeightVector map[Factor]float64

// DefaultWeights returns the weights used for batch ranking and as the
// starting point for interactive scoring.
func DefaultWeights() WeightVector {
	return WeightVector{
		FactorEconomicZone:     0.15,
		FactorDateOfOperations: 0.30,
		FactorStatus:           0.10,
		FactorLegalType:        0.10,
		FactorWPS:              0.05,
		FactorVisaNumber:       0.30,
		FactorVisaRatio:        0.30,
		FactorPhone:            0.10,
		FactorWebsite:          0.10,
		FactorEmail:            0.10,
		FactorBranch:           0.10,
	}
}

// WeightVectorFromMap builds a WeightVector from factor display names.
// Unknown names are rejected; absent factors stay absent.
func WeightVectorFromMap(m map[string]float64) (WeightVector, error) {
	wv := make(WeightVector, len(m))
	for name, w := range m {
		f, err := FactorFromString(name)
		if err != nil {
			return nil, err
		}
		wv[f] = w
	}
	return wv, nil
}

// Weight returns the multiplier for f and whether it is present.
func (w WeightVector) Weight(f Factor) (float64, bool) {
	v, ok := w[f]
	return v, ok
}

// With returns a copy of w with f set to weight.
func (w WeightVector) With(f Factor, weight float64) WeightVector {
	out := w.Clone()
	out[f] = weight
	return out
}

// Clone returns an independent copy.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for f, v := range w {
		out[f] = v
	}
	return out
}

// Missing returns the factors without a weight, in canonical order.
func (w WeightVector) Missing() []Factor {
	var missing []Factor
	for _, f := range allFactors {
		if _, ok := w[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate checks completeness and the [0, 1] range offered to users.
// Aggregation itself does not call this.
func (w WeightVector) Validate() error {
	if missing := w.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing weight for factor %q", missing[0].String())
	}
	for _, f := range allFactors {
		if v := w[f]; v < 0 || v > 1 {
			return fmt.Errorf("weight for factor %q must be between 0 and 1, got %v", f.String(), v)
		}
	}
	return nil
}

// ToMap renders the vector keyed by factor display name.
func (w WeightVector) ToMap() map[string]float64 {
	out := make(map[string]float64, len(w))
	for f, v := range w {
		out[f.String()] = v
	}
	return out
}
