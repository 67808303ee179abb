package engine

import (
	"sort"
	"strings"
)

// AllToken selects every country or technology. "all" is accepted too.
const AllToken = "전체"

// TechLevel picks which technology column the technology predicate uses.
type TechLevel string

const (
	TechMajor TechLevel = "major"
	TechMinor TechLevel = "minor"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool { return r.Min <= v && v <= r.Max }

// Selection is the widget state for one recompute.
type Selection struct {
	YearFrom     int
	YearTo       int
	Countries    []string
	Technologies []string
	TechLevel    TechLevel

	// Optional predicates; nil disables them.
	CountRange *Range
	MinImpact  *float64
}

// DefaultSelection mirrors the sidebar defaults: 2015-2024, everything selected.
func DefaultSelection() Selection {
	return Selection{
		YearFrom:     2015,
		YearTo:       2024,
		Countries:    []string{AllToken},
		Technologies: []string{AllToken},
		TechLevel:    TechMajor,
	}
}

// CountryAliases expands a selected country token into the spellings found
// in source files.
var CountryAliases = map[string][]string{
	"중국": {"CN", "China", "중국"},
	"미국": {"US", "United States", "미국"},
	"EU": {"EU", "European Union"},
	"한국": {"KR", "Korea", "한국", "대한민국"},
	"일본": {"JP", "Japan", "일본"},
	"독일": {"DE", "Germany", "독일"},
	"영국": {"GB", "UK", "United Kingdom", "영국"},
	"인도": {"IN", "India", "인도"},
}

// ExpandCountries returns the alias set for the given tokens. Unknown tokens
// expand to themselves.
func ExpandCountries(tokens []string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokens {
		aliases, ok := CountryAliases[t]
		if !ok {
			set[t] = true
			continue
		}
		for _, a := range aliases {
			set[a] = true
		}
	}
	return set
}

// selectsAll reports whether a token list means "no restriction".
func selectsAll(tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	for _, t := range tokens {
		if t == AllToken || strings.EqualFold(t, "all") {
			return true
		}
	}
	return false
}

// TechnologyRole returns the role the technology predicate filters on.
func (s Selection) TechnologyRole() Role {
	if s.TechLevel == TechMinor {
		return RoleTechnologyMinor
	}
	return RoleTechnologyMajor
}

type predicate func(Row) bool

// Apply returns the rows of t that satisfy every active predicate of sel.
// A predicate whose role is unmapped is skipped. The result owns fresh row
// maps; t is never modified.
func Apply(t *Table, mapping RoleMapping, sel Selection) *Table {
	if t == nil {
		return NewTable(nil, nil)
	}

	// 1. Build predicates
	var preds []predicate

	if col, ok := mapping.Column(RoleYear); ok {
		lo, hi := float64(sel.YearFrom), float64(sel.YearTo)
		preds = append(preds, func(r Row) bool {
			y, ok := AsFloat(r[col])
			return ok && lo <= y && y <= hi
		})
	}

	if col, ok := mapping.Column(RoleCountry); ok && !selectsAll(sel.Countries) {
		allowed := ExpandCountries(sel.Countries)
		preds = append(preds, func(r Row) bool {
			return allowed[FormatValue(r[col])]
		})
	}

	if col, ok := mapping.Column(sel.TechnologyRole()); ok && !selectsAll(sel.Technologies) {
		allowed := make(map[string]bool, len(sel.Technologies))
		for _, t := range sel.Technologies {
			allowed[t] = true
		}
		preds = append(preds, func(r Row) bool {
			return allowed[FormatValue(r[col])]
		})
	}

	if col, ok := mapping.Column(RoleTotalCount); ok && sel.CountRange != nil {
		rng := *sel.CountRange
		preds = append(preds, func(r Row) bool {
			v, ok := AsFloat(r[col])
			return ok && rng.Contains(v)
		})
	}

	if col, ok := mapping.Column(RoleImpactScore); ok && sel.MinImpact != nil {
		floor := *sel.MinImpact
		preds = append(preds, func(r Row) bool {
			v, ok := AsFloat(r[col])
			return ok && v >= floor
		})
	}

	// 2. Single pass, copy survivors
	rows := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		keep := true
		for _, p := range preds {
			if !p(r) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, r.clone())
		}
	}
	return NewTable(t.Columns, rows)
}

// SortBy returns a copy of t ordered by column. Numeric cells sort
// numerically and before text; missing cells sort last.
func SortBy(t *Table, column string, descending bool) *Table {
	out := t.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i][column], out.Rows[j][column]
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		fa, okA := AsFloat(a)
		fb, okB := AsFloat(b)
		switch {
		case okA && okB:
			if descending {
				return fa > fb
			}
			return fa < fb
		case okA != okB:
			return okA
		}
		if descending {
			return FormatValue(a) > FormatValue(b)
		}
		return FormatValue(a) < FormatValue(b)
	})
	return out
}

// Head returns at most the first n rows. n <= 0 keeps everything.
func Head(t *Table, n int) *Table {
	out := t.Clone()
	if n > 0 && len(out.Rows) > n {
		out.Rows = out.Rows[:n]
	}
	return out
}

// Where returns the rows whose column value is in values.
func Where(t *Table, column string, values ...string) *Table {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	rows := make([]Row, 0)
	for _, r := range t.Rows {
		if allowed[FormatValue(r[column])] {
			rows = append(rows, r.clone())
		}
	}
	return NewTable(t.Columns, rows)
}
