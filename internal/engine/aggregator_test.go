package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paperFixture() (*Table, RoleMapping) {
	// Scenario:
	// Row 0: KR, AI,  2020, 60 papers
	// Row 1: KR, Bio, 2021, 40 papers
	// Row 2: US, AI,  2020, 200 papers
	// Row 3: US, Bio, 2022, cell missing
	cols := []string{"국가", "기술분야", "연도", "총_논문수", "총_인용수"}
	rows := []Row{
		{"국가": "KR", "기술분야": "AI", "연도": int64(2020), "총_논문수": int64(60), "총_인용수": int64(600)},
		{"국가": "KR", "기술분야": "Bio", "연도": int64(2021), "총_논문수": int64(40), "총_인용수": int64(200)},
		{"국가": "US", "기술분야": "AI", "연도": int64(2020), "총_논문수": int64(200), "총_인용수": int64(1000)},
		{"국가": "US", "기술분야": "Bio", "연도": int64(2022), "총_논문수": nil, "총_인용수": int64(0)},
	}
	t := NewTable(cols, rows)
	return t, Resolve(t.Columns)
}

func TestAggregateSum(t *testing.T) {
	tbl, m := paperFixture()

	agg, ok := Aggregate(tbl, m, RoleCountry, RoleTotalCount, OpSum)
	require.True(t, ok)

	assert.Equal(t, map[string]float64{"KR": 100, "US": 200}, agg.Map())
	assert.Equal(t, []string{"KR", "US"}, agg.Keys(), "first-seen order")

	top := agg.SortDesc()
	assert.Equal(t, "US", top.Groups[0].Key)
	assert.Equal(t, 2, top.Groups[0].Count)
	assert.Equal(t, []string{"KR", "US"}, agg.Keys(), "sorting copies")
}

func TestAggregateMeanSkipsMissing(t *testing.T) {
	tbl, m := paperFixture()

	agg, ok := Aggregate(tbl, m, RoleCountry, RoleTotalCount, OpMean)
	require.True(t, ok)

	kr, _ := agg.Get("KR")
	us, _ := agg.Get("US")
	assert.Equal(t, 50.0, kr)
	assert.Equal(t, 200.0, us)
}

func TestAggregateMeanOfNothingIsNaN(t *testing.T) {
	tbl := NewTable([]string{"국가", "총_논문수"}, []Row{{"국가": "KR", "총_논문수": "n/a"}})

	agg, ok := Aggregate(tbl, Resolve(tbl.Columns), RoleCountry, RoleTotalCount, OpMean)
	require.True(t, ok)
	v, _ := agg.Get("KR")
	assert.True(t, math.IsNaN(v))
}

func TestAggregateCount(t *testing.T) {
	tbl, m := paperFixture()

	agg, ok := Aggregate(tbl, m, RoleTechnologyMajor, "", OpCount)
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"AI": 2, "Bio": 2}, agg.Map())
}

func TestAggregateUnmappedRole(t *testing.T) {
	tbl, m := paperFixture()

	_, ok := Aggregate(tbl, m, RoleCountry, RoleHIndex, OpMean)
	assert.False(t, ok)

	_, ok = Aggregate(tbl, m, RoleTechnologyMinor, "", OpCount)
	assert.False(t, ok)
}

func TestAggregateComposite(t *testing.T) {
	tbl, m := paperFixture()

	agg, ok := AggregateBy(tbl, m, []Role{RoleCountry, RoleYear}, RoleTotalCount, OpSum)
	require.True(t, ok)
	require.Equal(t, 4, agg.Len())

	v, ok := agg.Get("US", "2020")
	require.True(t, ok)
	assert.Equal(t, 200.0, v)
	assert.Equal(t, []string{"KR", "2021"}, SplitKey(agg.Groups[1].Key))
}

func TestAggregationOrdering(t *testing.T) {
	agg := &Aggregation{Op: OpSum, Groups: []Group{
		{Key: "2021", Value: 3},
		{Key: "x", Value: math.NaN()},
		{Key: "2019", Value: 9},
		{Key: "100", Value: 1},
	}}

	assert.Equal(t, []string{"2019", "2021", "100", "x"}, agg.SortDesc().Keys())
	assert.Equal(t, []string{"100", "2021", "2019", "x"}, agg.SortAsc().Keys())
	assert.Equal(t, []string{"100", "2019", "2021", "x"}, agg.SortKeys().Keys())
	assert.Equal(t, []string{"2019", "2021"}, agg.SortDesc().Top(2).Keys())
	assert.Equal(t, 4, agg.Top(0).Len())
}

func TestParseOp(t *testing.T) {
	for in, want := range map[string]Op{"": OpSum, "SUM": OpSum, "avg": OpMean, "mean": OpMean, "size": OpCount} {
		got, ok := ParseOp(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseOp("median")
	assert.False(t, ok)
}
