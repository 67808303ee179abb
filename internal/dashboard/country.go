package dashboard

import (
	"math"

	"bibliodash/internal/engine"
	"bibliodash/internal/models"
)

func countryComparison(v *view, in Input) {
	paper, patent := in.Paper, in.Patent
	if paper.Empty() && patent.Empty() {
		v.warn(msgNoData)
		return
	}

	// 1. Country metrics per dataset
	var papers, hIndex, patents, triadic map[string]float64
	if paper.Empty() {
		v.warn(msgNoPaper)
	} else if v.needs("top-countries", paper, engine.RoleCountry, engine.RoleTotalCount) {
		papers = valuesBy(paper, engine.RoleCountry, engine.RoleTotalCount, engine.OpSum)
		hIndex = valuesBy(paper, engine.RoleCountry, engine.RoleHIndex, engine.OpMean)
	}
	if patent.Empty() {
		v.warn(msgNoPatent)
	} else if v.needs("patent-ranking", patent, engine.RoleCountry, engine.RoleTotalCount) {
		patents = valuesBy(patent, engine.RoleCountry, engine.RoleTotalCount, engine.OpSum)
		triadic = valuesBy(patent, engine.RoleCountry, engine.RoleTriadicRatio, engine.OpMean)
	}

	// 2. Top 10 by papers, radar over the top 5
	if papers != nil {
		top10 := rank(papers, 10)
		v.add(models.Chart{
			ID: "top-countries", Kind: models.ChartBar, Title: "논문수 상위 10개국",
			XAxis: "국가", YAxis: "논문수",
			Series: []models.Series{mapped("논문수", top10, papers)},
		})

		axes := []struct {
			label  string
			values map[string]float64
		}{{"논문 생산성", papers}, {"H-index", hIndex}, {"특허 출원", patents}, {"Triadic 특허", triadic}}
		radar := models.Chart{ID: "capability-radar", Kind: models.ChartRadar, Title: "국가별 종합 역량"}
		for _, c := range head(top10, 5) {
			s := models.Series{Name: c}
			for _, a := range axes {
				s.Points = append(s.Points, models.Point{Label: a.label, Value: models.Float(normalized(a.values, c))})
			}
			radar.Series = append(radar.Series, s)
		}
		v.add(radar)
	}

	// 3. Composite ranking
	if papers == nil && patents == nil {
		return
	}
	scores := engine.CompositeScores(papers, hIndex, patents, triadic)
	if len(scores) > 20 {
		scores = scores[:20]
	}
	tbl := models.TableBlock{
		Title:   "국가별 순위",
		Columns: []string{"국가", "논문수", "H-index", "특허수", "Triadic비율", "종합점수"},
	}
	for _, s := range scores {
		tbl.Rows = append(tbl.Rows, []string{
			s.Country,
			count(s.Papers),
			decimal(s.HIndex, "%.1f"),
			count(s.Patents),
			decimal(s.Triadic, "%.1f"),
			decimal(s.Score, "%.3f"),
		})
	}
	v.Tables = append(v.Tables, tbl)
}

// normalized divides m[k] by the largest value of m; missing entries are 0.
func normalized(m map[string]float64, k string) float64 {
	if m == nil {
		return 0
	}
	vals := make([]float64, 0, len(m))
	for _, x := range m {
		if !math.IsNaN(x) {
			vals = append(vals, x)
		}
	}
	x := m[k]
	if math.IsNaN(x) {
		return 0
	}
	return engine.SafeDiv(x, engine.Max(vals))
}

func countryTrends(v *view, in Input) {
	f := in.Paper
	if f.Empty() {
		v.warn(msgNoData)
		return
	}
	if !v.needs("paper-trend", f, engine.RoleCountry, engine.RoleYear, engine.RoleTotalCount) {
		return
	}

	top10 := top(f, engine.RoleCountry, engine.RoleTotalCount, engine.OpSum, 10)
	top5 := head(top10, 5)

	v.add(models.Chart{
		ID: "paper-trend", Kind: models.ChartLine, Title: "상위 5개국 논문 추이",
		XAxis: "연도", YAxis: "논문수",
		Series: yearlyBy(f, engine.RoleCountry, top5, engine.RoleTotalCount, engine.OpSum),
	})

	cagr, _ := engine.CAGRByGroup(f.Table, f.Mapping, engine.RoleCountry, engine.RoleTotalCount, top10)
	v.add(models.Chart{
		ID: "cagr", Kind: models.ChartBar, Title: "국가별 CAGR (%)",
		XAxis: "국가", YAxis: "CAGR (%)",
		Series: []models.Series{bars("CAGR", scaled(cagr.SortDesc(), 100))},
	})

	if v.needs("h-index-trend", f, engine.RoleHIndex) {
		v.add(models.Chart{
			ID: "h-index-trend", Kind: models.ChartLine, Title: "H-index 시계열 변화",
			XAxis: "연도", YAxis: "H-index",
			Series: yearlyBy(f, engine.RoleCountry, top5, engine.RoleHIndex, engine.OpMean),
		})
	}

	share, _ := engine.MarketShare(f.Table, f.Mapping, engine.RoleCountry, engine.RoleTotalCount, top5)
	area := models.Chart{
		ID: "market-share", Kind: models.ChartArea, Title: "시장 점유율 변화 (%)",
		XAxis: "연도", YAxis: "점유율 (%)",
	}
	for _, c := range top5 {
		area.Series = append(area.Series, line(c, share[c]))
	}
	v.add(area)
}

func countryCitation(v *view, in Input) {
	f := in.Paper
	if f.Empty() {
		v.warn(msgNoData)
		return
	}
	if !v.needs("country", f, engine.RoleCountry) {
		return
	}

	if v.needs("cpp", f, engine.RoleCitationCount, engine.RoleTotalCount) {
		cpp, _ := engine.CitationsPerPaper(f.Table, f.Mapping, engine.RoleCountry)
		v.add(models.Chart{
			ID: "cpp", Kind: models.ChartBar, Title: "국가별 논문당 인용수 (CPP)",
			XAxis: "CPP", YAxis: "국가", Horizontal: true,
			Series: []models.Series{bars("CPP", cpp.SortDesc().Top(15))},
		})
	}

	if v.needs("top10-ratio", f, engine.RoleTop10Ratio) {
		v.add(models.Chart{
			ID: "top10-ratio", Kind: models.ChartBar, Title: "국가별 Top 10% 논문 비율",
			XAxis: "Top 10% (%)", YAxis: "국가", Horizontal: true,
			Series: []models.Series{bars("Top 10%", topBars(f, engine.RoleCountry, engine.RoleTop10Ratio, engine.OpMean, 15))},
		})
	}

	if v.needs("fwci", f, engine.RoleCitationCount, engine.RoleTotalCount) {
		fwci, _ := engine.FWCI(f.Table, f.Mapping, engine.RoleCountry)
		values := fwci.Map()
		s := models.Series{Name: "FWCI"}
		for _, c := range top(f, engine.RoleCountry, engine.RoleTotalCount, engine.OpSum, 10) {
			s.Points = append(s.Points, models.Point{Label: c, Value: models.Float(values[c]), Size: fptr(values[c])})
		}
		v.add(models.Chart{
			ID: "fwci", Kind: models.ChartScatter, Title: "국가별 FWCI (1.0 = Global Average)",
			XAxis: "국가", YAxis: "FWCI",
			Series:     []models.Series{s},
			ReferenceY: []models.Reference{{Value: 1, Label: "Global Average"}},
		})
	}
}

func countryCollaboration(v *view, in Input) {
	f := in.Paper
	if f.Empty() {
		v.warn(msgNoData)
		return
	}
	if !v.needs("collaboration-ratio", f, engine.RoleCountry, engine.RoleCollaborationRatio) {
		return
	}

	v.add(models.Chart{
		ID: "collaboration-ratio", Kind: models.ChartBar, Title: "국가별 국제협력 비율",
		XAxis: "협력 비율 (%)", YAxis: "국가", Horizontal: true,
		Series: []models.Series{bars("국제협력", topBars(f, engine.RoleCountry, engine.RoleCollaborationRatio, engine.OpMean, 15))},
	})

	if v.needs("collaboration-trend", f, engine.RoleYear) {
		top5 := top(f, engine.RoleCountry, "", engine.OpCount, 5)
		v.add(models.Chart{
			ID: "collaboration-trend", Kind: models.ChartLine, Title: "국가별 협력 비율 변화",
			XAxis: "연도", YAxis: "협력 비율 (%)",
			Series: yearlyBy(f, engine.RoleCountry, top5, engine.RoleCollaborationRatio, engine.OpMean),
		})
	}
}

func countryTechnology(v *view, in Input) {
	paper, patent := in.Paper, in.Patent
	if paper.Empty() && patent.Empty() {
		v.warn(msgNoData)
		return
	}

	portfolio := func(id, title, root, kind string, f Frame) {
		tech := techRole(f, in.Selection)
		if !v.needs(id, f, engine.RoleCountry, tech) {
			return
		}
		top5 := top(f, engine.RoleCountry, "", engine.OpCount, 5)
		pairs, _ := engine.AggregateBy(f.Table, f.Mapping, []engine.Role{engine.RoleCountry, tech}, "", engine.OpCount)
		v.add(models.Chart{ID: id, Kind: kind, Title: title, Nodes: hierarchy(pairs, top5, root)})
	}

	// 1. Paper sunburst, patent treemap
	if paper.Empty() {
		v.warn(msgNoPaper)
	} else {
		portfolio("paper-portfolio", "국가-기술 계층 구조", "", models.ChartSunburst, paper)
	}
	if patent.Empty() {
		v.warn(msgNoPatent)
	} else {
		portfolio("patent-portfolio", "특허 기술 분포", "All", models.ChartTreemap, patent)
	}

	// 2. Concentration per country
	if paper.Empty() {
		return
	}
	tech := techRole(paper, in.Selection)
	if !v.needs("herfindahl", paper, engine.RoleCountry, tech) {
		return
	}
	h, _ := engine.Herfindahl(paper.Table, paper.Mapping, engine.RoleCountry, tech)
	values := h.Map()
	top10 := top(paper, engine.RoleCountry, "", engine.OpCount, 10)
	sub := &engine.Aggregation{Op: engine.OpCount}
	for _, c := range top10 {
		sub.Groups = append(sub.Groups, engine.Group{Key: c, Keys: []string{c}, Value: values[c]})
	}
	v.add(models.Chart{
		ID: "herfindahl", Kind: models.ChartBar, Title: "기술 집중도 (낮을수록 다양)",
		XAxis: "국가", YAxis: "Herfindahl",
		Series: []models.Series{bars("Herfindahl", sub.SortAsc())},
	})
}

func countryPatent(v *view, in Input) {
	f := in.Patent
	if f.Empty() {
		v.warn(msgNoPatent)
		return
	}
	if !v.needs("country", f, engine.RoleCountry) {
		return
	}

	if v.needs("triadic-ratio", f, engine.RoleTriadicRatio) {
		v.add(models.Chart{
			ID: "triadic-ratio", Kind: models.ChartBar, Title: "국가별 Triadic 특허 비율",
			XAxis: "Triadic 비율", YAxis: "국가", Horizontal: true,
			Series: []models.Series{bars("Triadic", topBars(f, engine.RoleCountry, engine.RoleTriadicRatio, engine.OpMean, 15))},
		})
	}

	if v.needs("family-size", f, engine.RoleFamilySize) {
		v.add(models.Chart{
			ID: "family-size", Kind: models.ChartBar, Title: "국가별 평균 특허 패밀리 크기",
			XAxis: "패밀리 국가수", YAxis: "국가", Horizontal: true,
			Series: []models.Series{bars("패밀리", topBars(f, engine.RoleCountry, engine.RoleFamilySize, engine.OpMean, 15))},
		})
	}

	if v.needs("triadic-trend", f, engine.RoleYear, engine.RoleTotalCount, engine.RoleTriadicRatio) {
		top5 := top(f, engine.RoleCountry, engine.RoleTotalCount, engine.OpSum, 5)
		v.add(models.Chart{
			ID: "triadic-trend", Kind: models.ChartLine, Title: "Triadic 특허 비율 변화",
			XAxis: "연도", YAxis: "Triadic 비율",
			Series: yearlyBy(f, engine.RoleCountry, top5, engine.RoleTriadicRatio, engine.OpMean),
		})
	}

	if v.needs("patent-citation", f, engine.RoleCitationCount) {
		agg := topBars(f, engine.RoleCountry, engine.RoleCitationCount, engine.OpMean, 10)
		s := bars("Citations", agg)
		for i := range s.Points {
			s.Points[i].Size = fptr(float64(s.Points[i].Value))
		}
		v.add(models.Chart{
			ID: "patent-citation", Kind: models.ChartScatter, Title: "평균 특허 인용수",
			XAxis: "국가", YAxis: "Citations",
			Series: []models.Series{s},
		})
	}
}
