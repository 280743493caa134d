package service_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	"github.com/nader8687/company-risk-score-calculator/internal/domain/service"
	vo "github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
)

func exampleRecord() model.CompanyRecord {
	return model.CompanyRecord{
		BusinessName:       "Acme Holdings PJSC",
		Status:             str("Active"),
		LegalType:          str("Public Shareholding Company"),
		EconomicDepartment: str("DIFC"),
		WPS:                str("PRIVATE"),
		VisaApproved:       num(60),
		VisaCancelled:      num(5),
		VisaRequested:      num(50),
		VisaUsed:           num(55),
		PhoneNo:            str("971501234567"),
		WebsiteURL:         str("http://x.com"),
		Email:              str("ceo@acme.com"),
		IsBranch:           "No",
	}
}

func TestRiskAggregator_EndToEndExample(t *testing.T) {
	agg := service.NewRiskAggregator(nil)

	b, err := agg.Aggregate(exampleRecord(), vo.DefaultWeights())
	require.NoError(t, err)

	wantRaw := map[vo.Factor]float64{
		vo.FactorEconomicZone:     30,
		vo.FactorDateOfOperations: 0,
		vo.FactorStatus:           10,
		vo.FactorLegalType:        20,
		vo.FactorWPS:              10,
		vo.FactorVisaNumber:       20,
		vo.FactorVisaRatio:        10,
		vo.FactorPhone:            5,
		vo.FactorWebsite:          10,
		vo.FactorEmail:            5,
		vo.FactorBranch:           0,
	}
	assert.Equal(t, wantRaw, b.Raw)
	assert.InDelta(t, 19.0, b.Total, 1e-9)
	assert.InDelta(t, 120.0, b.TotalRaw, 1e-9)

	m := b.Map(true)
	assert.InDelta(t, 4.5, m["Economic Zone"], 1e-9)
	assert.InDelta(t, 30.0, m["Economic Zone_raw"], 1e-9)
	assert.InDelta(t, 19.0, m[vo.KeyTotalWeightAdjusted], 1e-9)
}

func TestRiskAggregator_MissingWeight(t *testing.T) {
	agg := service.NewRiskAggregator(nil)
	weights := vo.DefaultWeights()
	delete(weights, vo.FactorWPS)

	_, err := agg.Aggregate(exampleRecord(), weights)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrMissingWeight))
	var cfgErr *service.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, vo.FactorWPS, cfgErr.Factor)
	assert.Contains(t, err.Error(), "WPS")
}

func TestRiskAggregator_AcceptsAnyRealWeight(t *testing.T) {
	agg := service.NewRiskAggregator(nil)
	weights := vo.DefaultWeights().
		With(vo.FactorStatus, -2).
		With(vo.FactorEconomicZone, 10)

	b, err := agg.Aggregate(exampleRecord(), weights)
	require.NoError(t, err)

	assert.InDelta(t, -20.0, b.Weighted[vo.FactorStatus], 1e-9)
	assert.InDelta(t, 300.0, b.Weighted[vo.FactorEconomicZone], 1e-9)
}

func TestRiskAggregator_EmptyRecord(t *testing.T) {
	agg := service.NewRiskAggregator(nil)

	b, err := agg.Aggregate(model.CompanyRecord{}, vo.DefaultWeights())
	require.NoError(t, err)

	assert.Len(t, b.Weighted, len(vo.AllFactors()))
	assert.Equal(t, -50.0, b.Raw[vo.FactorStatus])
	assert.Equal(t, -10.0, b.Raw[vo.FactorEmail])
	assert.InDelta(t, -6.0, b.Total, 1e-9)
}

func TestRiskAggregator_Idempotent(t *testing.T) {
	agg := service.NewRiskAggregator(nil)
	rec := exampleRecord()
	rec.EstDate = date(2010, time.May, 1)
	rec.ExpiryDate = date(2026, time.May, 1)

	first, err := agg.Aggregate(rec, vo.DefaultWeights())
	require.NoError(t, err)
	second, err := agg.Aggregate(rec, vo.DefaultWeights())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRiskAggregator_TotalIsSumOfWeighted(t *testing.T) {
	agg := service.NewRiskAggregator(nil)
	rng := rand.New(rand.NewSource(7))
	zones := []string{"DIFC", "DMCC", "Masdar", "Unknown"}
	statuses := []string{"Active", "Expired", ""}

	for i := 0; i < 500; i++ {
		rec := model.CompanyRecord{
			EconomicDepartment: str(zones[rng.Intn(len(zones))]),
			Status:             str(statuses[rng.Intn(len(statuses))]),
			VisaApproved:       num(rng.Int63n(120)),
			VisaCancelled:      num(rng.Int63n(60)),
			VisaRequested:      num(rng.Int63n(200)),
			VisaUsed:           num(rng.Int63n(120)),
			PhoneNo:            str("04" + string(rune('0'+rng.Intn(10)))),
			IsBranch:           []string{"yes", "no"}[rng.Intn(2)],
		}
		weights := vo.WeightVector{}
		for _, f := range vo.AllFactors() {
			weights[f] = rng.NormFloat64()
		}

		b, err := agg.Aggregate(rec, weights)
		require.NoError(t, err)

		var sum, rawSum float64
		for _, f := range vo.AllFactors() {
			assert.InDelta(t, b.Raw[f]*weights[f], b.Weighted[f], 1e-9)
			sum += b.Weighted[f]
			rawSum += b.Raw[f]
		}
		assert.True(t, math.Abs(sum-b.Total) < 1e-9)
		assert.InDelta(t, rawSum, b.TotalRaw, 1e-9)
	}
}
