package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Role is the semantic meaning of a column, independent of its header text.
type Role string

const (
	RoleCountry            Role = "country"
	RoleYear               Role = "year"
	RoleTechnologyMajor    Role = "technology_major"
	RoleTechnologyMinor    Role = "technology_minor"
	RoleTechnologyTitle    Role = "technology_title"
	RoleTotalCount         Role = "total_count"
	RoleCitationCount      Role = "citation_count"
	RoleAvgCitations       Role = "avg_citations"
	RoleHIndex             Role = "h_index"
	RoleGIndex             Role = "g_index"
	RoleCollaborationRatio Role = "collaboration_ratio"
	RoleTop10Ratio         Role = "top10_ratio"
	RoleQ1Ratio            Role = "q1_ratio"
	RoleMRNIF              Role = "mrnif"
	RoleTriadicRatio       Role = "triadic_ratio"
	RoleTriadicCount       Role = "triadic_count"
	RoleFamilySize         Role = "family_size"
	RoleClaims             Role = "claims"
	RoleProductivityScore  Role = "productivity_score"
	RoleImpactScore        Role = "impact_score"
	RoleImportantCount     Role = "important_count"
)

// Matcher is a predicate over a normalized column name.
type Matcher func(name string) bool

// Equals matches a normalized name exactly.
func Equals(keyword string) Matcher {
	k := NormalizeColumn(keyword)
	return func(name string) bool { return name == k }
}

// Contains matches when the keyword is a substring of the name. Equality is
// a special case, so most synonyms use this form.
func Contains(keyword string) Matcher {
	k := NormalizeColumn(keyword)
	return func(name string) bool { return strings.Contains(name, k) }
}

// ContainsAll matches when every keyword occurs in the name.
func ContainsAll(keywords ...string) Matcher {
	ks := make([]string, len(keywords))
	for i, k := range keywords {
		ks[i] = NormalizeColumn(k)
	}
	return func(name string) bool {
		for _, k := range ks {
			if !strings.Contains(name, k) {
				return false
			}
		}
		return true
	}
}

// Synonym binds a role to the matchers that recognize it.
type Synonym struct {
	Role     Role
	Matchers []Matcher
}

// Synonyms is the declarative role table consumed by Resolve.
var Synonyms = []Synonym{
	{RoleCountry, []Matcher{Contains("country"), Contains("nation"), Contains("국가")}},
	{RoleYear, []Matcher{Contains("year"), Contains("연도")}},
	{RoleTechnologyMajor, []Matcher{Equals("label_m"), Equals("label"), Contains("tech"), Contains("기술"), Contains("분야")}},
	{RoleTechnologyMinor, []Matcher{Equals("label_s")}},
	{RoleTechnologyTitle, []Matcher{ContainsAll("label", "title")}},
	{RoleTotalCount, []Matcher{
		ContainsAll("total", "paper"), ContainsAll("total", "patent"),
		Contains("논문수"), Contains("특허수"), Contains("논문건수"), Contains("patentcount"),
	}},
	{RoleCitationCount, []Matcher{Contains("citation"), Contains("인용")}},
	{RoleAvgCitations, []Matcher{ContainsAll("avg", "citation"), Contains("평균인용")}},
	{RoleHIndex, []Matcher{Contains("hindex")}},
	{RoleGIndex, []Matcher{Contains("gindex")}},
	{RoleCollaborationRatio, []Matcher{Contains("collab"), Contains("협력")}},
	{RoleTop10Ratio, []Matcher{Contains("top10")}},
	{RoleQ1Ratio, []Matcher{Contains("q1")}},
	{RoleMRNIF, []Matcher{Contains("mrnif")}},
	{RoleTriadicRatio, []Matcher{ContainsAll("triadic", "ratio"), Contains("triadic")}},
	{RoleTriadicCount, []Matcher{ContainsAll("triadic", "count")}},
	{RoleFamilySize, []Matcher{Contains("family")}},
	{RoleClaims, []Matcher{Contains("claim")}},
	{RoleProductivityScore, []Matcher{Contains("productivity"), Contains("생산성")}},
	{RoleImpactScore, []Matcher{Contains("impactscore"), Contains("영향력점수")}},
	{RoleImportantCount, []Matcher{Contains("important"), Contains("중요")}},
}

// RoleMapping assigns at most one column to each role. Absent roles mean the
// feature is unavailable for this table.
type RoleMapping map[Role]string

func (m RoleMapping) Column(r Role) (string, bool) {
	c, ok := m[r]
	return c, ok
}

func (m RoleMapping) Has(r Role) bool {
	_, ok := m[r]
	return ok
}

// NormalizeColumn folds case, composes Hangul (NFC) and strips whitespace,
// underscores and hyphens. A Caser is stateful, so each call gets its own.
func NormalizeColumn(name string) string {
	s := cases.Fold().String(norm.NFC.String(name))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// Resolve classifies columns into roles. For each role the first column, in
// column order, accepted by any of its matchers wins.
func Resolve(columns []string) RoleMapping {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = NormalizeColumn(c)
	}

	mapping := make(RoleMapping)
	for _, syn := range Synonyms {
		for i, name := range normalized {
			if matchesAny(syn.Matchers, name) {
				mapping[syn.Role] = columns[i]
				break
			}
		}
	}
	return mapping
}

func matchesAny(ms []Matcher, name string) bool {
	for _, m := range ms {
		if m(name) {
			return true
		}
	}
	return false
}

// standardNames maps exact normalized headers to canonical metric names.
var standardNames = map[string]string{
	"totalpapers":           "total_papers",
	"totalpaperscount":      "total_papers",
	"totalcitations":        "total_citations",
	"avgcitations":          "avg_citations",
	"hindex":                "h_index",
	"gindex":                "g_index",
	"top10paperscitations":  "top10_citations",
	"top10papersmrnif":      "top10_mrnif",
	"top10ratio(%)":         "top10_ratio",
	"q1ratio(%)":            "q1_ratio",
	"collaborationratio(%)": "collaboration_ratio",
	"avgmrnif":              "avg_mrnif",
	"productivityscore":     "productivity_score",
	"impactscore":           "impact_score",
	"triadicratio":          "triadic_ratio",
	"triadiccount":          "triadic_count",
	"totalclaims":           "total_claims",
	"avgclaims":             "avg_claims",
	"avgfamilycountries":    "avg_family_countries",
	"citationsperclaim":     "citations_per_claim",
}

// StandardNames maps canonical metric names to the columns carrying them,
// using exact matches on the normalized header.
func StandardNames(columns []string) map[string]string {
	out := make(map[string]string)
	for _, c := range columns {
		if std, ok := standardNames[NormalizeColumn(c)]; ok {
			if _, taken := out[std]; !taken {
				out[std] = c
			}
		}
	}
	return out
}
