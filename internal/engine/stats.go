package engine

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// Summary is the describe() row of one numeric column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarizes the given columns. Columns without numeric cells are
// skipped.
func Describe(t *Table, columns []string) []Summary {
	out := make([]Summary, 0, len(columns))
	for _, c := range columns {
		vals := t.Floats(c)
		if len(vals) == 0 {
			continue
		}
		s := series.New(vals, series.Float, c)
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		sum := Summary{
			Column: c,
			Count:  s.Len(),
			Mean:   s.Mean(),
			Min:    s.Min(),
			Q1:     Quantile(sorted, 0.25),
			Median: Quantile(sorted, 0.5),
			Q3:     Quantile(sorted, 0.75),
			Max:    s.Max(),
			Std:    math.NaN(),
		}
		if s.Len() > 1 {
			sum.Std = s.StdDev()
		}
		out = append(out, sum)
	}
	return out
}

// Quantile interpolates linearly between the closest ranks of an ascending
// sample, the convention of pandas' describe().
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// NumericColumns lists the columns holding at least one numeric cell,
// excluding the given ones.
func NumericColumns(t *Table, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var out []string
	for _, c := range t.Columns {
		if skip[c] {
			continue
		}
		for _, r := range t.Rows {
			if _, ok := r[c].(string); ok {
				continue
			}
			if _, ok := AsFloat(r[c]); ok {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Pearson returns the correlation of two equally long samples, or NaN when
// either has zero variance.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// Correlation computes the pairwise Pearson matrix over rows where both
// cells are numeric.
func Correlation(t *Table, columns []string) [][]float64 {
	m := make([][]float64, len(columns))
	for i := range columns {
		m[i] = make([]float64, len(columns))
	}
	for i := range columns {
		m[i][i] = 1
		for j := i + 1; j < len(columns); j++ {
			var xs, ys []float64
			for _, r := range t.Rows {
				x, okX := AsFloat(r[columns[i]])
				y, okY := AsFloat(r[columns[j]])
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			m[i][j] = Pearson(xs, ys)
			m[j][i] = m[i][j]
		}
	}
	return m
}

// Fit is a least-squares line y = Slope*x + Intercept.
type Fit struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// At evaluates the fitted line.
func (f Fit) At(x float64) float64 { return f.Slope*x + f.Intercept }

// LinearFit fits a line through (x, y). It reports false for fewer than two
// points or a constant x.
func LinearFit(x, y []float64) (Fit, bool) {
	if len(x) != len(y) || len(x) < 2 || stat.Variance(x, nil) == 0 {
		return Fit{}, false
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	f := Fit{Slope: beta, Intercept: alpha, R2: 1}
	if stat.Variance(y, nil) > 0 {
		f.R2 = stat.RSquared(x, y, nil, alpha, beta)
	}
	return f, true
}

// Bradford holds the zone boundaries of a simulated journal distribution.
type Bradford struct {
	Journals   int
	Cumulative []float64 // cumulative paper share by journal rank
	Zone1      int       // last rank within the first third
	Zone2      int       // last rank within two thirds
}

// BradfordZones draws papers-per-journal from a Zipf(1.5) law, ranks the
// journals and locates the 1/3 and 2/3 cumulative boundaries.
func BradfordZones(journals int, seed uint64) Bradford {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	z := rand.NewZipf(r, 1.5, 1, 1<<20)

	papers := make([]float64, journals)
	for i := range papers {
		papers[i] = float64(z.Uint64() + 1)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(papers)))

	cum := make([]float64, journals)
	var run float64
	for i, p := range papers {
		run += p
		cum[i] = run
	}
	b := Bradford{Journals: journals, Cumulative: cum}
	if journals == 0 {
		return b
	}
	for i := range cum {
		cum[i] /= run
		if cum[i] <= 0.33 {
			b.Zone1 = i
		}
		if cum[i] <= 0.67 {
			b.Zone2 = i
		}
	}
	return b
}
