package models

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatMarshalsNonFiniteAsNull(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.21, "0.21"},
		{100, "100"},
		{math.NaN(), "null"},
		{math.Inf(1), "null"},
		{math.Inf(-1), "null"},
	}
	for _, tt := range tests {
		b, err := json.Marshal(Float(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(b))
	}
}

func TestSummaryFieldNames(t *testing.T) {
	b, err := json.Marshal(ColumnSummary{Column: "총_논문수", Count: 1, Std: Float(math.NaN())})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"std":null`)
	assert.Contains(t, string(b), `"50%":0`)
}
