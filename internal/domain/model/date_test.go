package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nader8687/company-risk-score-calculator/internal/domain/model"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "calendar date", input: `"2020-01-01"`, want: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: `"2020-01-01T00:00:00Z"`, want: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d model.Date
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.True(t, tt.want.Equal(d.Time))
		})
	}

	var d model.Date
	assert.Error(t, json.Unmarshal([]byte(`"01/02/2020"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20200101`), &d))
}

func TestCompanyOverrides_CalendarDates(t *testing.T) {
	var o model.CompanyOverrides
	require.NoError(t, json.Unmarshal([]byte(`{"est_date":"2020-01-01","expiry_date":"2024-06-30"}`), &o))

	rec := model.CompanyRecord{}.WithOverrides(o)
	require.NotNil(t, rec.EstDate)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *rec.EstDate)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), *rec.ExpiryDate)

	out, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"est_date":"2020-01-01","expiry_date":"2024-06-30"}`, string(out))
}
