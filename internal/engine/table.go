package engine

import (
	"math"
	"strconv"
	"strings"
)

// Row maps a column name to a cell. Cells hold string, int64 or float64
// (nil for missing values).
type Row map[string]any

// Table is an ordered set of rows over a column set that varies per source.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a table and registers columns in first-seen order.
func NewTable(columns []string, rows []Row) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: rows}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool { return t.Len() == 0 }

func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone deep-copies the row maps so callers can mutate freely.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.clone()
	}
	return NewTable(t.Columns, rows)
}

// WithColumn returns a copy of t with a constant column appended.
func (t *Table) WithColumn(name string, value any) *Table {
	out := t.Clone()
	if !out.HasColumn(name) {
		out.Columns = append(out.Columns, name)
	}
	for _, r := range out.Rows {
		r[name] = value
	}
	return out
}

// Floats extracts the numeric cells of a column, skipping non-numeric ones.
func (t *Table) Floats(column string) []float64 {
	out := make([]float64, 0, t.Len())
	for _, r := range t.Rows {
		if f, ok := AsFloat(r[column]); ok {
			out = append(out, f)
		}
	}
	return out
}

// Distinct returns the formatted values of a column in first-seen order.
func (t *Table) Distinct(column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		v, ok := r[column]
		if !ok || v == nil {
			continue
		}
		s := FormatValue(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (r Row) clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// AsFloat converts a cell to float64. Strings are parsed; NaN counts as missing.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// FormatValue renders a cell the way it is exported and grouped.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// InferValue parses a raw text cell into int64, float64 or string.
func InferValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
