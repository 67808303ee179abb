package dashboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"bibliodash/internal/engine"
	"bibliodash/internal/models"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrUnknownView = errors.New("unknown view")

const (
	msgNoData   = "데이터가 없습니다."
	msgNoPaper  = "논문 데이터가 없습니다."
	msgNoPatent = "특허 데이터가 없습니다."
)

// Frame is one filtered dataset with its resolved roles.
type Frame struct {
	Table   *engine.Table
	Mapping engine.RoleMapping
}

func (f Frame) Empty() bool { return f.Table.Empty() }

func (f Frame) column(r engine.Role) string {
	c, _ := f.Mapping.Column(r)
	return c
}

// Input carries everything a view builder reads.
type Input struct {
	Paper     Frame
	Patent    Frame
	Selection engine.Selection
	Seed      uint64
}

type definition struct {
	title string
	build func(v *view, in Input)
}

var registry = map[string]definition{
	"overview":              {"연구 현황 요약", overview},
	"country-comparison":    {"국가별 종합 비교", countryComparison},
	"country-trends":        {"국가별 시계열 추이", countryTrends},
	"country-citation":      {"국가별 인용 영향력", countryCitation},
	"country-collaboration": {"국가별 협력 네트워크", countryCollaboration},
	"country-technology":    {"국가별 기술 포트폴리오", countryTechnology},
	"country-patent":        {"국가별 특허 경쟁력", countryPatent},
	"technology":            {"기술 분류 분석", technology},
	"research-front":        {"Research Front & Emerging Topics", researchFront},
	"impact":                {"영향력 분석", impact},
	"bradford":              {"Bradford's Law & Core Journals", bradford},
}

// Names lists the registered views in alphabetical order.
func Names() []string {
	names := maps.Keys(registry)
	sort.Strings(names)
	return names
}

// Build renders the named view.
func Build(name string, in Input) (models.View, error) {
	def, ok := registry[name]
	if !ok {
		return models.View{}, fmt.Errorf("%q: %w", name, ErrUnknownView)
	}
	v := &view{View: models.View{Name: name, Title: def.title, Charts: []models.Chart{}}}
	def.build(v, in)
	return v.View, nil
}

type view struct {
	models.View
}

func (v *view) add(c models.Chart) { v.Charts = append(v.Charts, c) }

func (v *view) warn(msg string) { v.Warnings = append(v.Warnings, msg) }

func (v *view) metric(label, value string) {
	v.Metrics = append(v.Metrics, models.MetricCard{Label: label, Value: value})
}

// needs reports whether f maps every role, leaving a placeholder for chart
// id when it does not.
func (v *view) needs(id string, f Frame, roles ...engine.Role) bool {
	var missing []string
	for _, r := range roles {
		if !f.Mapping.Has(r) {
			missing = append(missing, string(r))
		}
	}
	if len(missing) == 0 {
		return true
	}
	v.Placeholders = append(v.Placeholders, models.Placeholder{
		ChartID: id,
		Message: "필요한 컬럼이 없습니다: " + strings.Join(missing, ", "),
	})
	return false
}

// --- aggregation shortcuts ---

func valuesBy(f Frame, group, value engine.Role, op engine.Op) map[string]float64 {
	agg, ok := engine.Aggregate(f.Table, f.Mapping, group, value, op)
	if !ok {
		return nil
	}
	return agg.Map()
}

func top(f Frame, group, value engine.Role, op engine.Op, n int) []string {
	agg, ok := engine.Aggregate(f.Table, f.Mapping, group, value, op)
	if !ok {
		return nil
	}
	return agg.SortDesc().Top(n).Keys()
}

func topBars(f Frame, group, value engine.Role, op engine.Op, n int) *engine.Aggregation {
	agg, ok := engine.Aggregate(f.Table, f.Mapping, group, value, op)
	if !ok {
		return &engine.Aggregation{Op: op}
	}
	return agg.SortDesc().Top(n)
}

// rank orders map keys by value, largest first, ties by key.
func rank(m map[string]float64, n int) []string {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool {
		a, b := m[keys[i]], m[keys[j]]
		if a == b {
			return keys[i] < keys[j]
		}
		return a > b
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func head(keys []string, n int) []string {
	if len(keys) > n {
		return keys[:n]
	}
	return keys
}

// yearlyBy builds one line per group key over the year axis.
func yearlyBy(f Frame, group engine.Role, keys []string, value engine.Role, op engine.Op) []models.Series {
	col := f.column(group)
	out := make([]models.Series, 0, len(keys))
	for _, k := range keys {
		ps, ok := engine.YearSeries(engine.Where(f.Table, col, k), f.Mapping, value, op)
		if !ok {
			continue
		}
		out = append(out, line(k, ps))
	}
	return out
}

// techRole is the technology column chosen in the sidebar, falling back to
// the major classification when the table lacks it.
func techRole(f Frame, sel engine.Selection) engine.Role {
	r := sel.TechnologyRole()
	if f.Mapping.Has(r) {
		return r
	}
	return engine.RoleTechnologyMajor
}

// --- chart payloads ---

func bars(name string, agg *engine.Aggregation) models.Series {
	s := models.Series{Name: name, Points: make([]models.Point, len(agg.Groups))}
	for i, g := range agg.Groups {
		s.Points[i] = models.Point{Label: g.Key, Value: models.Float(g.Value)}
	}
	return s
}

func line(name string, ps []engine.Point) models.Series {
	s := models.Series{Name: name, Points: make([]models.Point, len(ps))}
	for i, p := range ps {
		s.Points[i] = models.Point{Label: p.X, Value: models.Float(p.Y)}
	}
	return s
}

func mapped(name string, keys []string, m map[string]float64) models.Series {
	s := models.Series{Name: name, Points: make([]models.Point, len(keys))}
	for i, k := range keys {
		s.Points[i] = models.Point{Label: k, Value: models.Float(m[k])}
	}
	return s
}

func fptr(x float64) *models.Float {
	f := models.Float(x)
	return &f
}

func scaled(agg *engine.Aggregation, k float64) *engine.Aggregation {
	out := agg.Top(0)
	for i := range out.Groups {
		out.Groups[i].Value *= k
	}
	return out
}

// hierarchy turns (parent, child) counts into treemap/sunburst nodes under
// an optional root.
func hierarchy(pairs *engine.Aggregation, parents []string, root string) []models.Node {
	allowed := make(map[string]bool, len(parents))
	for _, p := range parents {
		allowed[p] = true
	}
	var nodes []models.Node
	if root != "" {
		nodes = append(nodes, models.Node{ID: root, Label: root})
	}
	totals := make(map[string]float64)
	var children []models.Node
	for _, g := range pairs.Groups {
		p, c := g.Keys[0], g.Keys[1]
		if !allowed[p] {
			continue
		}
		totals[p] += g.Value
		children = append(children, models.Node{ID: p + "/" + c, Parent: p, Label: c, Value: models.Float(g.Value)})
	}
	var sum float64
	for _, p := range parents {
		if _, ok := totals[p]; !ok {
			continue
		}
		sum += totals[p]
		nodes = append(nodes, models.Node{ID: p, Parent: root, Label: p, Value: models.Float(totals[p])})
	}
	if root != "" {
		nodes[0].Value = models.Float(sum)
	}
	return append(nodes, children...)
}

// --- number formatting ---

func count(x float64) string {
	if math.IsNaN(x) {
		return "-"
	}
	return message.NewPrinter(language.Korean).Sprintf("%d", int64(math.Round(x)))
}

func decimal(x float64, format string) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "-"
	}
	return message.NewPrinter(language.Korean).Sprintf(format, x)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return engine.Sum(xs) / float64(len(xs))
}
