package api

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"bibliodash/internal/engine"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextFor(q url.Values) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/paper/rows?"+q.Encode(), nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestParseSelectionKeepsLabelsVerbatim(t *testing.T) {
	sel, err := parseSelection(contextFor(url.Values{
		"tech":    {"Energy, Storage", "AI"},
		"country": {"Korea, Republic of"},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"Energy, Storage", "AI"}, sel.Technologies)
	assert.Equal(t, []string{"Korea, Republic of"}, sel.Countries)
}

func TestParseSelectionDefaults(t *testing.T) {
	sel, err := parseSelection(contextFor(nil))
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultSelection(), sel)
}

func TestParseSelectionRanges(t *testing.T) {
	sel, err := parseSelection(contextFor(url.Values{"count_min": {"5"}, "min_impact": {"1.5"}, "tech_level": {"minor"}}))
	require.NoError(t, err)

	require.NotNil(t, sel.CountRange)
	assert.Equal(t, 5.0, sel.CountRange.Min)
	assert.True(t, math.IsInf(sel.CountRange.Max, 1))
	require.NotNil(t, sel.MinImpact)
	assert.Equal(t, 1.5, *sel.MinImpact)
	assert.Equal(t, engine.TechMinor, sel.TechLevel)
}

func TestListParamSplitsCommas(t *testing.T) {
	c := contextFor(url.Values{"group": {"country,year", "tech"}})
	assert.Equal(t, []string{"country", "year", "tech"}, listParam(c, "group"))
}
