package valueobject

import "fmt"

// Factor is an immutable value object naming one scoring factor.
type Factor struct {
	value string
}

var (
	FactorEconomicZone     = Factor{value: "Economic Zone"}
	FactorDateOfOperations = Factor{value: "Date of Operations"}
	FactorStatus           = Factor{value: "Status"}
	FactorLegalType        = Factor{value: "Legal Type"}
	FactorWPS              = Factor{value: "WPS"}
	FactorVisaNumber       = Factor{value: "Visa Number"}
	FactorVisaRatio        = Factor{value: "Visa Ratio"}
	FactorPhone            = Factor{value: "Phone"}
	FactorWebsite          = Factor{value: "Website"}
	FactorEmail            = Factor{value: "Email"}
	FactorBranch           = Factor{value: "Branch"}
)

// Breakdown keys that are not factors.
const (
	KeyTotal               = "Total"
	KeyTotalRaw            = "Total_raw"
	KeyTotalWeightAdjusted = "Total_weight_adjusted"
	rawSuffix              = "_raw"
)

var allFactors = [...]Factor{
	FactorEconomicZone,
	FactorDateOfOperations,
	FactorStatus,
	FactorLegalType,
	FactorWPS,
	FactorVisaNumber,
	FactorVisaRatio,
	FactorPhone,
	FactorWebsite,
	FactorEmail,
	FactorBranch,
}

// AllFactors returns the eleven factors in canonical order.
func AllFactors() []Factor {
	out := make([]Factor, len(allFactors))
	copy(out, allFactors[:])
	return out
}

// FactorFromString reconstructs a Factor from its display name.
func FactorFromString(s string) (Factor, error) {
	for _, f := range allFactors {
		if f.value == s {
			return f, nil
		}
	}
	return Factor{}, fmt.Errorf("invalid factor: %q", s)
}

// String returns the display name, which is also the breakdown key.
func (f Factor) String() string {
	return f.value
}

// RawKey returns the breakdown key holding the unweighted score.
func (f Factor) RawKey() string {
	return f.value + rawSuffix
}

// IsZero returns true if the Factor has not been set.
func (f Factor) IsZero() bool {
	return f.value == ""
}

// Equal checks equality with another Factor.
func (f Factor) Equal(other Factor) bool {
	return f.value == other.value
}

// MarshalText implements encoding.TextMarshaler so factors can key JSON maps.
func (f Factor) MarshalText() ([]byte, error) {
	return []byte(f.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Factor) UnmarshalText(text []byte) error {
	parsed, err := FactorFromString(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
