package dashboard

import (
	"math"
	"strconv"
	"strings"

	"bibliodash/internal/engine"
	"bibliodash/internal/models"
)

const bradfordJournals = 1000

func technology(v *view, in Input) {
	if in.Paper.Empty() && in.Patent.Empty() {
		v.warn(msgNoData)
		return
	}
	for _, d := range []struct {
		id    string
		label string
		f     Frame
	}{{"paper", "논문", in.Paper}, {"patent", "특허", in.Patent}} {
		if d.f.Empty() {
			v.warn(d.label + " " + msgNoData)
			continue
		}
		techDistribution(v, d.id+"-technology", d.label+" 기술 분류별 분포", d.f, in.Selection)
		countryTechHeatmap(v, d.id+"-country-technology", d.label+" 국가별 기술 분포", d.f, in.Selection)
	}
}

// techDistribution draws the top 20 technology categories, labelled with
// their titles when the table carries a matching title column.
func techDistribution(v *view, id, title string, f Frame, sel engine.Selection) {
	tech := techRole(f, sel)
	if !v.needs(id, f, tech) {
		return
	}
	cols := []string{f.column(tech)}
	if t, ok := f.Mapping.Column(engine.RoleTechnologyTitle); ok &&
		strings.HasPrefix(engine.NormalizeColumn(t), engine.NormalizeColumn(cols[0])) {
		cols = append(cols, t)
	}

	agg := engine.AggregateColumns(f.Table, cols, "", engine.OpCount).SortDesc().Top(20)
	nodes := make([]models.Node, len(agg.Groups))
	for i, g := range agg.Groups {
		nodes[i] = models.Node{ID: g.Key, Label: strings.Join(g.Keys, ": "), Value: models.Float(g.Value)}
	}
	v.add(models.Chart{ID: id, Kind: models.ChartTreemap, Title: title, Nodes: nodes})
}

func countryTechHeatmap(v *view, id, title string, f Frame, sel engine.Selection) {
	tech := techRole(f, sel)
	if !v.needs(id, f, engine.RoleCountry, tech) {
		return
	}
	countries := top(f, engine.RoleCountry, "", engine.OpCount, 10)
	techs := top(f, tech, "", engine.OpCount, 10)
	pairs, _ := engine.AggregateBy(f.Table, f.Mapping, []engine.Role{engine.RoleCountry, tech}, "", engine.OpCount)

	hm := &models.Heatmap{X: techs, Y: countries, Z: make([][]models.Float, len(countries))}
	for i, c := range countries {
		hm.Z[i] = make([]models.Float, len(techs))
		for j, t := range techs {
			n, _ := pairs.Get(c, t)
			hm.Z[i][j] = models.Float(n)
		}
	}
	v.add(models.Chart{ID: id, Kind: models.ChartHeatmap, Title: title, XAxis: "기술 분류", YAxis: "국가", Heatmap: hm})
}

func researchFront(v *view, in Input) {
	f := in.Paper
	if f.Empty() {
		v.warn(msgNoPaper)
		return
	}
	if !v.needs("velocity", f, engine.RoleYear) {
		return
	}
	tech := techRole(f, in.Selection)

	// 1. Burst detection and life cycle
	if v.needs("burst", f, tech) {
		burst, _ := engine.BurstStrength(f.Table, f.Mapping, tech)
		v.add(models.Chart{
			ID: "burst", Kind: models.ChartBar, Title: "Emerging Research Topics (Burst Strength)",
			XAxis: "Technology", YAxis: "Burst Strength",
			Series:     []models.Series{bars("Burst Strength", burst.SortDesc().Top(15))},
			ReferenceY: []models.Reference{{Value: 1, Label: "Baseline"}},
		})

		lc := models.Chart{
			ID: "life-cycle", Kind: models.ChartLine, Title: "Technology Life Cycle Patterns",
			XAxis: "Year", YAxis: "Normalized Activity",
		}
		for _, s := range yearlyBy(f, tech, top(f, tech, "", engine.OpCount, 5), "", engine.OpCount) {
			ys := make([]float64, len(s.Points))
			for i, p := range s.Points {
				ys[i] = float64(p.Value)
			}
			for i, y := range engine.NormalizeMax(ys) {
				s.Points[i].Value = models.Float(y)
			}
			lc.Series = append(lc.Series, s)
		}
		v.add(lc)
	}

	// 2. Velocity and acceleration of yearly output
	yearly, _ := engine.YearSeries(f.Table, f.Mapping, "", engine.OpCount)
	velocity := engine.Diff(engine.Values(yearly))
	acceleration := engine.Diff(velocity)
	vel, acc := make([]engine.Point, len(yearly)), make([]engine.Point, len(yearly))
	for i, p := range yearly {
		vel[i] = engine.Point{X: p.X, Y: velocity[i]}
		acc[i] = engine.Point{X: p.X, Y: acceleration[i]}
	}
	v.add(models.Chart{
		ID: "velocity", Kind: models.ChartLine, Title: "Research Velocity & Acceleration",
		XAxis: "Year", YAxis: "Change Rate",
		Series: []models.Series{line("Velocity", vel), line("Acceleration", acc)},
	})

	// 3. Innovation index
	if v.needs("mrnif-trend", f, engine.RoleMRNIF) {
		ps, _ := engine.YearSeries(f.Table, f.Mapping, engine.RoleMRNIF, engine.OpMean)
		v.add(models.Chart{
			ID: "mrnif-trend", Kind: models.ChartLine, Title: "Innovation Index Trend (mRNIF)",
			XAxis: "Year", YAxis: "mRNIF",
			Series: []models.Series{line("mRNIF", ps)},
		})
	}
}

func impact(v *view, in Input) {
	f := in.Paper
	if f.Empty() {
		v.warn(msgNoPaper)
		return
	}

	if v.needs("h-index-country", f, engine.RoleCountry, engine.RoleHIndex) {
		v.add(models.Chart{
			ID: "h-index-country", Kind: models.ChartBar, Title: "국가별 평균 H-index",
			XAxis: "국가", YAxis: "H-index",
			Series: []models.Series{bars("H-index", topBars(f, engine.RoleCountry, engine.RoleHIndex, engine.OpMean, 15))},
		})
	}

	tech := techRole(f, in.Selection)
	if v.needs("h-index-technology", f, tech, engine.RoleHIndex) {
		techCol, hCol := f.column(tech), f.column(engine.RoleHIndex)
		box := models.Chart{ID: "h-index-technology", Kind: models.ChartBox, Title: "기술 분야별 H-index 분포", XAxis: "기술", YAxis: "H-index"}
		for _, t := range top(f, tech, "", engine.OpCount, 10) {
			s := models.Series{Name: t}
			for _, x := range engine.Where(f.Table, techCol, t).Floats(hCol) {
				s.Points = append(s.Points, models.Point{Label: t, Value: models.Float(x)})
			}
			box.Series = append(box.Series, s)
		}
		v.add(box)
	}

	// Correlation between numeric indicators
	cols := engine.NumericColumns(f.Table, f.column(engine.RoleYear))
	if len(cols) < 2 {
		v.Placeholders = append(v.Placeholders, models.Placeholder{ChartID: "correlation", Message: "수치형 컬럼이 부족합니다."})
	} else {
		corr := engine.Correlation(f.Table, cols)
		hm := &models.Heatmap{X: cols, Y: cols, Z: make([][]models.Float, len(cols))}
		for i := range corr {
			hm.Z[i] = make([]models.Float, len(cols))
			for j, x := range corr[i] {
				hm.Z[i][j] = models.Float(x)
			}
		}
		v.add(models.Chart{ID: "correlation", Kind: models.ChartHeatmap, Title: "지표 간 상관관계", Heatmap: hm})
	}

	if v.needs("growth", f, engine.RoleYear, engine.RoleTotalCount) {
		growth(v, f)
	}
}

// growth fits log(papers+1) against the year index and reports the
// exponential trend, CAGR and doubling time.
func growth(v *view, f Frame) {
	yearly, _ := engine.YearSeries(f.Table, f.Mapping, engine.RoleTotalCount, engine.OpSum)
	ys := engine.Values(yearly)
	v.metric("CAGR", decimal(engine.CAGR(ys)*100, "%.2f%%"))

	chart := models.Chart{
		ID: "growth", Kind: models.ChartLine, Title: "Publication Growth Pattern",
		XAxis: "Year", YAxis: "Publications",
		Series: []models.Series{line("Publications", yearly)},
	}
	xs, logs := make([]float64, len(ys)), make([]float64, len(ys))
	for i, y := range ys {
		xs[i] = float64(i)
		logs[i] = math.Log(y + 1)
	}
	fit, ok := engine.LinearFit(xs, logs)
	if !ok {
		v.add(chart)
		return
	}
	fitted := make([]engine.Point, len(yearly))
	for i, p := range yearly {
		fitted[i] = engine.Point{X: p.X, Y: math.Exp(fit.At(xs[i]))}
	}
	chart.Series = append(chart.Series, line("Exponential Fit", fitted))
	chart.Annotations = append(chart.Annotations, models.Annotation{Label: "R²", Text: strconv.FormatFloat(fit.R2, 'f', 3, 64)})
	v.add(chart)

	doubling := math.Inf(1)
	if fit.Slope > 0 {
		doubling = math.Ln2 / fit.Slope
	}
	v.metric("Doubling Time", decimal(doubling, "%.1f years"))
}

func bradford(v *view, in Input) {
	if in.Paper.Empty() {
		v.warn(msgNoPaper)
		return
	}
	b := engine.BradfordZones(bradfordJournals, in.Seed)

	ps := make([]engine.Point, len(b.Cumulative))
	for i, c := range b.Cumulative {
		ps[i] = engine.Point{X: strconv.Itoa(i), Y: c}
	}
	v.add(models.Chart{
		ID: "bradford", Kind: models.ChartLine, Title: "Bradford's Law - Journal Distribution",
		XAxis: "Journal Rank", YAxis: "Cumulative Paper Ratio",
		Series:     []models.Series{line("Cumulative Papers", ps)},
		ReferenceX: []models.Reference{{Value: models.Float(b.Zone1), Label: "Zone 1"}, {Value: models.Float(b.Zone2), Label: "Zone 2"}},
		ReferenceY: []models.Reference{{Value: 0.33}, {Value: 0.67}},
	})
	v.metric("Core Journals (Zone 1)", strconv.Itoa(b.Zone1))
	v.metric("Zone 2 Journals", strconv.Itoa(b.Zone2-b.Zone1))
	v.metric("Peripheral Journals", strconv.Itoa(b.Journals-b.Zone2))
}

func overview(v *view, in Input) {
	paper, patent := in.Paper, in.Patent
	if paper.Empty() && patent.Empty() {
		v.warn(msgNoData)
		return
	}

	// 1. KPI cards
	countries := make(map[string]bool)
	techs := make(map[string]bool)
	for _, f := range []Frame{paper, patent} {
		if f.Empty() {
			continue
		}
		if c, ok := f.Mapping.Column(engine.RoleCountry); ok {
			for _, x := range f.Table.Distinct(c) {
				countries[x] = true
			}
		}
		if c, ok := f.Mapping.Column(techRole(f, in.Selection)); ok {
			for _, x := range f.Table.Distinct(c) {
				techs[x] = true
			}
		}
	}

	if !paper.Empty() {
		v.metric("논문 레코드", count(float64(paper.Table.Len())))
		kpis(v, paper, []kpi{
			{"총 논문수", engine.RoleTotalCount, true, ""},
			{"평균 H-Index", engine.RoleHIndex, false, "%.1f"},
			{"Top10%", engine.RoleTop10Ratio, false, "%.1f%%"},
			{"Q1 저널", engine.RoleQ1Ratio, false, "%.1f%%"},
			{"국제협력", engine.RoleCollaborationRatio, false, "%.1f%%"},
		})
	} else {
		v.warn(msgNoPaper)
	}
	if !patent.Empty() {
		v.metric("특허 레코드", count(float64(patent.Table.Len())))
		kpis(v, patent, []kpi{
			{"총 특허수", engine.RoleTotalCount, true, ""},
			{"Triadic 특허", engine.RoleTriadicCount, true, ""},
			{"평균 특허 H-Index", engine.RoleHIndex, false, "%.1f"},
			{"평균 패밀리 국가", engine.RoleFamilySize, false, "%.1f"},
		})
		if c, ok := engine.StandardNames(patent.Table.Columns)["citations_per_claim"]; ok {
			v.metric("청구항당 인용", decimal(mean(patent.Table.Floats(c)), "%.2f"))
		}
	} else {
		v.warn(msgNoPatent)
	}
	v.metric("국가 수", strconv.Itoa(len(countries)))
	v.metric("기술 분야 수", strconv.Itoa(len(techs)))

	// 2. Yearly totals
	yearly := models.Chart{ID: "yearly-totals", Kind: models.ChartLine, Title: "연도별 추이", XAxis: "연도", YAxis: "건수"}
	for _, d := range []struct {
		name string
		f    Frame
	}{{"논문", paper}, {"특허", patent}} {
		if d.f.Empty() {
			continue
		}
		if ps, ok := engine.YearSeries(d.f.Table, d.f.Mapping, engine.RoleTotalCount, engine.OpSum); ok {
			yearly.Series = append(yearly.Series, line(d.name, ps))
		}
	}
	if len(yearly.Series) > 0 {
		v.add(yearly)
	} else {
		v.Placeholders = append(v.Placeholders, models.Placeholder{
			ChartID: "yearly-totals",
			Message: "필요한 컬럼이 없습니다: " + string(engine.RoleYear) + ", " + string(engine.RoleTotalCount),
		})
	}

	// 3. Technology distribution
	if !paper.Empty() {
		tech := techRole(paper, in.Selection)
		if v.needs("technology-top", paper, tech) {
			v.add(models.Chart{
				ID: "technology-top", Kind: models.ChartBar, Title: "기술 분야별 분포",
				XAxis: "기술", YAxis: "레코드 수",
				Series: []models.Series{bars("건수", topBars(paper, tech, "", engine.OpCount, 10))},
			})
		}
	}
}

type kpi struct {
	label  string
	role   engine.Role
	sum    bool
	format string
}

// kpis adds one card per mapped indicator: totals for counts, means for
// ratios and indices.
func kpis(v *view, f Frame, cards []kpi) {
	for _, k := range cards {
		col, ok := f.Mapping.Column(k.role)
		if !ok {
			continue
		}
		vals := f.Table.Floats(col)
		if k.sum {
			v.metric(k.label, count(engine.Sum(vals)))
		} else {
			v.metric(k.label, decimal(mean(vals), k.format))
		}
	}
}
