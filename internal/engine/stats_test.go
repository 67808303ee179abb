package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tbl := NewTable([]string{"name", "v", "one", "blank"}, []Row{
		{"name": "a", "v": int64(1), "one": 7.0},
		{"name": "b", "v": int64(2)},
		{"name": "c", "v": int64(3)},
		{"name": "d", "v": int64(4)},
		{"name": "e", "v": int64(5)},
	})

	out := Describe(tbl, []string{"v", "one", "blank"})
	require.Len(t, out, 2, "columns without numbers are skipped")

	v := out[0]
	assert.Equal(t, "v", v.Column)
	assert.Equal(t, 5, v.Count)
	assert.InDelta(t, 3.0, v.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(2.5), v.Std, 1e-9)
	assert.Equal(t, 1.0, v.Min)
	assert.Equal(t, 2.0, v.Q1)
	assert.Equal(t, 3.0, v.Median)
	assert.Equal(t, 4.0, v.Q3)
	assert.Equal(t, 5.0, v.Max)

	one := out[1]
	assert.Equal(t, 1, one.Count)
	assert.True(t, math.IsNaN(one.Std))
}

func TestDescribeInterpolatesQuartiles(t *testing.T) {
	tbl := NewTable([]string{"v"}, []Row{
		{"v": 4.0}, {"v": 1.0}, {"v": 3.0}, {"v": 2.0},
	})
	out := Describe(tbl, []string{"v"})
	require.Len(t, out, 1)

	assert.InDelta(t, 1.75, out[0].Q1, 1e-12)
	assert.InDelta(t, 2.5, out[0].Median, 1e-12)
	assert.InDelta(t, 3.25, out[0].Q3, 1e-12)
}

func TestQuantile(t *testing.T) {
	xs := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 10.0, Quantile(xs, 0))
	assert.InDelta(t, 14.0, Quantile(xs, 0.1), 1e-12)
	assert.Equal(t, 50.0, Quantile(xs, 1))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.75))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestNumericColumns(t *testing.T) {
	tbl := NewTable([]string{"국가", "연도", "n", "f"}, []Row{
		{"국가": "KR", "연도": int64(2020), "n": int64(1), "f": nil},
		{"국가": "US", "연도": int64(2021), "n": "x", "f": 1.5},
	})
	assert.Equal(t, []string{"연도", "n", "f"}, NumericColumns(tbl))
	assert.Equal(t, []string{"n", "f"}, NumericColumns(tbl, "연도"))
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2, 3}, []float64{5, 5, 5})))
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
}

func TestCorrelation(t *testing.T) {
	tbl := NewTable([]string{"a", "b"}, []Row{
		{"a": 1.0, "b": 10.0},
		{"a": 2.0, "b": 20.0},
		{"a": 3.0, "b": nil},
		{"a": 4.0, "b": 40.0},
	})
	m := Correlation(tbl, []string{"a", "b"})

	require.Len(t, m, 2)
	assert.Equal(t, 1.0, m[0][0])
	assert.InDelta(t, 1.0, m[0][1], 1e-9)
	assert.Equal(t, m[0][1], m[1][0])
}

func TestLinearFit(t *testing.T) {
	f, ok := LinearFit([]float64{1, 2, 3}, []float64{3, 5, 7})
	require.True(t, ok)
	assert.InDelta(t, 2.0, f.Slope, 1e-9)
	assert.InDelta(t, 1.0, f.Intercept, 1e-9)
	assert.InDelta(t, 1.0, f.R2, 1e-9)
	assert.InDelta(t, 9.0, f.At(4), 1e-9)

	f, ok = LinearFit([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.True(t, ok)
	assert.InDelta(t, 0.8, f.Slope, 1e-9)
	assert.InDelta(t, 0.5, f.Intercept, 1e-9)
	assert.InDelta(t, 0.64, f.R2, 1e-9)

	f, ok = LinearFit([]float64{1, 2, 3}, []float64{4, 4, 4})
	require.True(t, ok)
	assert.InDelta(t, 0.0, f.Slope, 1e-12)
	assert.Equal(t, 1.0, f.R2)

	_, ok = LinearFit([]float64{2, 2}, []float64{1, 3})
	assert.False(t, ok)
	_, ok = LinearFit([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestBradfordZones(t *testing.T) {
	a := BradfordZones(100, 42)
	b := BradfordZones(100, 42)
	assert.Equal(t, a, b, "same seed, same draw")

	require.Len(t, a.Cumulative, 100)
	assert.InDelta(t, 1.0, a.Cumulative[99], 1e-9)
	for i := 1; i < len(a.Cumulative); i++ {
		assert.GreaterOrEqual(t, a.Cumulative[i], a.Cumulative[i-1])
	}
	assert.LessOrEqual(t, a.Zone1, a.Zone2)
	assert.Less(t, a.Zone2, 100)

	assert.Empty(t, BradfordZones(0, 1).Cumulative)
}
