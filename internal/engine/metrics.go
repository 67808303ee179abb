package engine

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// Sum adds up a slice of numbers.
func Sum[T number](xs []T) T {
	var s T
	for _, x := range xs {
		s += x
	}
	return s
}

// Max returns the largest element, or zero for an empty slice.
func Max[T number](xs []T) T {
	var m T
	for i, x := range xs {
		if i == 0 || x > m {
			m = x
		}
	}
	return m
}

// SafeDiv returns num/den, or 0 when den is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// CitationsPerPaper computes sum(citations)/sum(papers) per group.
// Groups with no papers report 0.
func CitationsPerPaper(t *Table, mapping RoleMapping, groupRole Role) (*Aggregation, bool) {
	cites, ok := Aggregate(t, mapping, groupRole, RoleCitationCount, OpSum)
	if !ok {
		return nil, false
	}
	papers, ok := Aggregate(t, mapping, groupRole, RoleTotalCount, OpSum)
	if !ok {
		return nil, false
	}
	den := papers.Map()
	out := &Aggregation{Op: OpSum, Groups: make([]Group, len(cites.Groups))}
	for i, g := range cites.Groups {
		g.Value = SafeDiv(g.Value, den[g.Key])
		out.Groups[i] = g
	}
	return out, true
}

// HerfindahlIndex is the sum of squared shares of the given counts. Zero
// and negative counts are ignored; an empty input yields 0.
func HerfindahlIndex(counts []float64) float64 {
	var total float64
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c > 0 {
			s := c / total
			h += s * s
		}
	}
	return h
}

// Herfindahl computes technology concentration per group from the share of
// rows falling in each technology category.
func Herfindahl(t *Table, mapping RoleMapping, groupRole, techRole Role) (*Aggregation, bool) {
	pairs, ok := AggregateBy(t, mapping, []Role{groupRole, techRole}, "", OpCount)
	if !ok {
		return nil, false
	}
	counts := make(map[string][]float64)
	var order []string
	for _, g := range pairs.Groups {
		k := g.Keys[0]
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k] = append(counts[k], g.Value)
	}
	out := &Aggregation{Op: OpCount, Groups: make([]Group, 0, len(order))}
	for _, k := range order {
		out.Groups = append(out.Groups, Group{
			Key:   k,
			Keys:  []string{k},
			Value: HerfindahlIndex(counts[k]),
			Count: int(Sum(counts[k])),
		})
	}
	return out, true
}

// FWCI divides each category's mean citations by the mean over the whole
// table. A zero global mean yields 0 for every category.
func FWCI(t *Table, mapping RoleMapping, categoryRole Role) (*Aggregation, bool) {
	means, ok := Aggregate(t, mapping, categoryRole, RoleCitationCount, OpMean)
	if !ok {
		return nil, false
	}
	col, _ := mapping.Column(RoleCitationCount)
	vals := t.Floats(col)
	global := SafeDiv(Sum(vals), float64(len(vals)))

	out := &Aggregation{Op: OpMean, Groups: make([]Group, len(means.Groups))}
	for i, g := range means.Groups {
		if math.IsNaN(g.Value) {
			g.Value = 0
		}
		g.Value = SafeDiv(g.Value, global)
		out.Groups[i] = g
	}
	return out, true
}

// CAGR is (last/first)^(1/(n-1)) - 1. It is NaN when there are fewer than
// two periods or the first value is not positive.
func CAGR(series []float64) float64 {
	n := len(series)
	if n <= 1 || series[0] <= 0 {
		return math.NaN()
	}
	return math.Pow(series[n-1]/series[0], 1/float64(n-1)) - 1
}

// Point is one (x, y) pair of a series.
type Point struct {
	X string
	Y float64
}

// YearSeries sums valueRole per year for the rows of t, ordered by year.
func YearSeries(t *Table, mapping RoleMapping, valueRole Role, op Op) ([]Point, bool) {
	agg, ok := Aggregate(t, mapping, RoleYear, valueRole, op)
	if !ok {
		return nil, false
	}
	agg = agg.SortKeys()
	out := make([]Point, len(agg.Groups))
	for i, g := range agg.Groups {
		out[i] = Point{X: g.Key, Y: g.Value}
	}
	return out, true
}

// Values returns the y components of a series.
func Values(ps []Point) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Y
	}
	return out
}

// CAGRByGroup computes the CAGR of each group's yearly totals of valueRole.
// Groups with fewer than two years are left out.
func CAGRByGroup(t *Table, mapping RoleMapping, groupRole, valueRole Role, groups []string) (*Aggregation, bool) {
	col, ok := mapping.Column(groupRole)
	if !ok {
		return nil, false
	}
	out := &Aggregation{Op: OpSum}
	for _, key := range groups {
		series, ok := YearSeries(Where(t, col, key), mapping, valueRole, OpSum)
		if !ok {
			return nil, false
		}
		if len(series) <= 1 {
			continue
		}
		out.Groups = append(out.Groups, Group{
			Key:   key,
			Keys:  []string{key},
			Value: CAGR(Values(series)),
			Count: len(series),
		})
	}
	return out, true
}

// MarketShare returns, for each listed group, its yearly share (percent)
// of the yearly total of valueRole.
func MarketShare(t *Table, mapping RoleMapping, groupRole, valueRole Role, groups []string) (map[string][]Point, bool) {
	totals, ok := YearSeries(t, mapping, valueRole, OpSum)
	if !ok {
		return nil, false
	}
	col, ok := mapping.Column(groupRole)
	if !ok {
		return nil, false
	}
	byYear := make(map[string]float64, len(totals))
	for _, p := range totals {
		byYear[p.X] = p.Y
	}
	out := make(map[string][]Point, len(groups))
	for _, key := range groups {
		series, _ := YearSeries(Where(t, col, key), mapping, valueRole, OpSum)
		share := make([]Point, len(series))
		for i, p := range series {
			share[i] = Point{X: p.X, Y: SafeDiv(p.Y, byYear[p.X]) * 100}
		}
		out[key] = share
	}
	return out, true
}

// BurstStrength compares each category's average yearly row count over the
// last three years with its average over all years. Categories absent from
// the recent window score 0.
func BurstStrength(t *Table, mapping RoleMapping, categoryRole Role) (*Aggregation, bool) {
	yearCol, ok := mapping.Column(RoleYear)
	if !ok {
		return nil, false
	}
	total, ok := Aggregate(t, mapping, categoryRole, "", OpCount)
	if !ok {
		return nil, false
	}
	years := t.Floats(yearCol)
	if len(years) == 0 {
		return &Aggregation{Op: OpCount}, true
	}
	cutoff := Max(years) - 2
	nYears := len(t.Distinct(yearCol))

	recentRows := make([]Row, 0)
	for _, r := range t.Rows {
		if y, ok := AsFloat(r[yearCol]); ok && y >= cutoff {
			recentRows = append(recentRows, r)
		}
	}
	recent, _ := Aggregate(NewTable(t.Columns, recentRows), mapping, categoryRole, "", OpCount)
	recentCounts := recent.Map()

	out := &Aggregation{Op: OpCount, Groups: make([]Group, len(total.Groups))}
	for i, g := range total.Groups {
		avgAll := g.Value / float64(nYears)
		g.Value = SafeDiv(recentCounts[g.Key]/3, avgAll)
		out.Groups[i] = g
	}
	return out, true
}

// Diff returns first differences; the first element has no predecessor and
// is NaN.
func Diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// NormalizeMax scales values into [0, 1] by their maximum. A non-positive
// maximum yields zeros.
func NormalizeMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	m := math.Inf(-1)
	for _, x := range xs {
		if !math.IsNaN(x) && x > m {
			m = x
		}
	}
	if m <= 0 || math.IsInf(m, -1) {
		return out
	}
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		out[i] = x / m
	}
	return out
}

// ScoreWeights weights the max-normalized inputs of the composite country score.
var ScoreWeights = struct{ Papers, HIndex, Patents, Triadic float64 }{0.3, 0.3, 0.2, 0.2}

// CountryScore is one row of the composite ranking.
type CountryScore struct {
	Country string
	Papers  float64
	HIndex  float64
	Patents float64
	Triadic float64
	Score   float64
}

// CompositeScores merges paper and patent country metrics (outer join,
// missing values as 0) and ranks them by the weighted normalized score.
func CompositeScores(papers, hIndex, patents, triadic map[string]float64) []CountryScore {
	keys := make(map[string]bool)
	for _, m := range []map[string]float64{papers, hIndex, patents, triadic} {
		for k := range m {
			keys[k] = true
		}
	}
	rows := make([]CountryScore, 0, len(keys))
	for k := range keys {
		rows = append(rows, CountryScore{
			Country: k,
			Papers:  zeroNaN(papers[k]),
			HIndex:  zeroNaN(hIndex[k]),
			Patents: zeroNaN(patents[k]),
			Triadic: zeroNaN(triadic[k]),
		})
	}

	var maxP, maxH, maxPat, maxT float64
	for _, r := range rows {
		maxP = math.Max(maxP, r.Papers)
		maxH = math.Max(maxH, r.HIndex)
		maxPat = math.Max(maxPat, r.Patents)
		maxT = math.Max(maxT, r.Triadic)
	}
	w := ScoreWeights
	for i := range rows {
		r := &rows[i]
		r.Score = SafeDiv(r.Papers, maxP)*w.Papers +
			SafeDiv(r.HIndex, maxH)*w.HIndex +
			SafeDiv(r.Patents, maxPat)*w.Patents +
			SafeDiv(r.Triadic, maxT)*w.Triadic
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score == rows[j].Score {
			return rows[i].Country < rows[j].Country
		}
		return rows[i].Score > rows[j].Score
	})
	return rows
}

func zeroNaN(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
