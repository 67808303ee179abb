package engine

import (
	"math"
	"sort"
	"strings"
)

// Op is the per-group reduction.
type Op string

const (
	OpSum   Op = "sum"
	OpMean  Op = "mean"
	OpCount Op = "count"
)

// ParseOp accepts the reduction names used by the API ("avg" for mean).
func ParseOp(s string) (Op, bool) {
	switch strings.ToLower(s) {
	case "sum", "":
		return OpSum, true
	case "mean", "avg":
		return OpMean, true
	case "count", "size":
		return OpCount, true
	}
	return "", false
}

const keySep = "\x1f"

// Group is one aggregated bucket. Keys holds one value per grouping column.
type Group struct {
	Key   string
	Keys  []string
	Value float64
	Count int
}

// Aggregation holds groups in first-seen order until the caller sorts them.
type Aggregation struct {
	Op     Op
	Groups []Group
}

// Get returns the value for a (possibly composite) key.
func (a *Aggregation) Get(keys ...string) (float64, bool) {
	k := strings.Join(keys, keySep)
	for _, g := range a.Groups {
		if g.Key == k {
			return g.Value, true
		}
	}
	return 0, false
}

// Map flattens a single-key aggregation into key -> value.
func (a *Aggregation) Map() map[string]float64 {
	out := make(map[string]float64, len(a.Groups))
	for _, g := range a.Groups {
		out[g.Key] = g.Value
	}
	return out
}

// Keys returns group keys in current order.
func (a *Aggregation) Keys() []string {
	out := make([]string, len(a.Groups))
	for i, g := range a.Groups {
		out[i] = g.Key
	}
	return out
}

func (a *Aggregation) Len() int { return len(a.Groups) }

func (a *Aggregation) copy() *Aggregation {
	gs := make([]Group, len(a.Groups))
	copy(gs, a.Groups)
	return &Aggregation{Op: a.Op, Groups: gs}
}

// SortDesc orders by value, largest first. NaN values go last.
func (a *Aggregation) SortDesc() *Aggregation {
	out := a.copy()
	sort.SliceStable(out.Groups, func(i, j int) bool {
		return greater(out.Groups[i].Value, out.Groups[j].Value)
	})
	return out
}

// SortAsc orders by value, smallest first. NaN values go last.
func (a *Aggregation) SortAsc() *Aggregation {
	out := a.copy()
	sort.SliceStable(out.Groups, func(i, j int) bool {
		vi, vj := out.Groups[i].Value, out.Groups[j].Value
		if math.IsNaN(vi) || math.IsNaN(vj) {
			return !math.IsNaN(vi) && math.IsNaN(vj)
		}
		return vi < vj
	})
	return out
}

// SortKeys orders by key. Numeric keys (years) compare numerically.
func (a *Aggregation) SortKeys() *Aggregation {
	out := a.copy()
	sort.SliceStable(out.Groups, func(i, j int) bool {
		return lessKey(out.Groups[i].Key, out.Groups[j].Key)
	})
	return out
}

// Top keeps the first n groups. n <= 0 keeps everything.
func (a *Aggregation) Top(n int) *Aggregation {
	out := a.copy()
	if n > 0 && len(out.Groups) > n {
		out.Groups = out.Groups[:n]
	}
	return out
}

func greater(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return !math.IsNaN(a) && math.IsNaN(b)
	}
	return a > b
}

func lessKey(a, b string) bool {
	fa, okA := AsFloat(a)
	fb, okB := AsFloat(b)
	if okA && okB {
		return fa < fb
	}
	return a < b
}

// Aggregate groups t by the column of groupRole and reduces the column of
// valueRole. It reports false when a required role is unmapped; OpCount
// ignores valueRole.
func Aggregate(t *Table, mapping RoleMapping, groupRole, valueRole Role, op Op) (*Aggregation, bool) {
	return AggregateBy(t, mapping, []Role{groupRole}, valueRole, op)
}

// AggregateBy groups by several roles at once (composite keys).
func AggregateBy(t *Table, mapping RoleMapping, groupRoles []Role, valueRole Role, op Op) (*Aggregation, bool) {
	cols := make([]string, len(groupRoles))
	for i, r := range groupRoles {
		c, ok := mapping.Column(r)
		if !ok {
			return nil, false
		}
		cols[i] = c
	}
	var valueCol string
	if op != OpCount {
		c, ok := mapping.Column(valueRole)
		if !ok {
			return nil, false
		}
		valueCol = c
	}
	return AggregateColumns(t, cols, valueCol, op), true
}

type bucket struct {
	keys  []string
	sum   float64
	n     int // numeric cells
	count int // rows
}

// AggregateColumns is the column-level form of AggregateBy. Rows with a
// missing grouping cell are dropped.
func AggregateColumns(t *Table, groupCols []string, valueCol string, op Op) *Aggregation {
	// 1. Bucket rows
	buckets := make(map[string]*bucket)
	var order []string

	for _, r := range t.Rows {
		keys := make([]string, len(groupCols))
		missing := false
		for i, c := range groupCols {
			v := r[c]
			if v == nil {
				missing = true
				break
			}
			keys[i] = FormatValue(v)
		}
		if missing {
			continue
		}
		k := strings.Join(keys, keySep)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{keys: keys}
			buckets[k] = b
			order = append(order, k)
		}
		b.count++
		if valueCol != "" {
			if f, ok := AsFloat(r[valueCol]); ok {
				b.sum += f
				b.n++
			}
		}
	}

	// 2. Reduce
	agg := &Aggregation{Op: op, Groups: make([]Group, 0, len(order))}
	for _, k := range order {
		b := buckets[k]
		g := Group{Key: k, Keys: b.keys, Count: b.count}
		switch op {
		case OpSum:
			g.Value = b.sum
		case OpMean:
			if b.n == 0 {
				g.Value = math.NaN()
			} else {
				g.Value = b.sum / float64(b.n)
			}
		case OpCount:
			g.Value = float64(b.count)
		}
		agg.Groups = append(agg.Groups, g)
	}
	return agg
}

// SplitKey undoes the composite-key join.
func SplitKey(key string) []string { return strings.Split(key, keySep) }
