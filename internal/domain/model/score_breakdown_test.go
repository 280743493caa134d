package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
	vo "github.com/nader8687/company-risk-score-calculator/internal/domain/valueobject"
)

func TestNewScoreBreakdown(t *testing.T) {
	raw := map[vo.Factor]float64{
		vo.FactorStatus:  10,
		vo.FactorEmail:   -10,
		vo.FactorWebsite: 10,
	}
	weights := vo.DefaultWeights()

	b := model.NewScoreBreakdown(raw, weights)

	require.Len(t, b.Raw, 11)
	require.Len(t, b.Weighted, 11)
	assert.InDelta(t, 1.0, b.Weighted[vo.FactorStatus], 1e-9)
	assert.InDelta(t, -1.0, b.Weighted[vo.FactorEmail], 1e-9)
	assert.InDelta(t, 1.0, b.Weighted[vo.FactorWebsite], 1e-9)
	assert.Zero(t, b.Raw[vo.FactorBranch])
	assert.InDelta(t, 1.0, b.Total, 1e-9)
	assert.InDelta(t, 10.0, b.TotalRaw, 1e-9)
	assert.Equal(t, b.Total, b.TotalWeightAdjusted())
}

func TestScoreBreakdown_Map(t *testing.T) {
	raw := map[vo.Factor]float64{vo.FactorDateOfOperations: 15, vo.FactorPhone: 20}
	b := model.NewScoreBreakdown(raw, vo.DefaultWeights())

	t.Run("plain", func(t *testing.T) {
		m := b.Map(false)
		assert.Len(t, m, 12)
		for _, f := range vo.AllFactors() {
			assert.Contains(t, m, f.String())
		}
		assert.InDelta(t, 6.5, m[vo.KeyTotal], 1e-9)
		assert.NotContains(t, m, vo.KeyTotalRaw)
		assert.NotContains(t, m, "Phone_raw")
	})

	t.Run("detailed", func(t *testing.T) {
		m := b.Map(true)
		assert.Len(t, m, 25)
		assert.InDelta(t, 20.0, m["Phone_raw"], 1e-9)
		assert.InDelta(t, 2.0, m["Phone"], 1e-9)
		assert.InDelta(t, 35.0, m[vo.KeyTotalRaw], 1e-9)
		assert.Equal(t, m[vo.KeyTotal], m[vo.KeyTotalWeightAdjusted])
	})

	t.Run("keys match map", func(t *testing.T) {
		for _, detailed := range []bool{false, true} {
			keys := model.BreakdownKeys(detailed)
			m := b.Map(detailed)
			assert.Len(t, keys, len(m))
			for _, k := range keys {
				assert.Contains(t, m, k)
			}
		}
	})
}

func TestScoreBreakdownFromMap(t *testing.T) {
	raw := map[vo.Factor]float64{vo.FactorStatus: -50, vo.FactorWebsite: 10}
	b := model.NewScoreBreakdown(raw, vo.DefaultWeights())

	restored, err := model.ScoreBreakdownFromMap(b.Map(true))
	require.NoError(t, err)
	assert.Equal(t, b, restored)

	_, err = model.ScoreBreakdownFromMap(b.Map(false))
	assert.Error(t, err)
}
