package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bibliodash/internal/engine"
	"bibliodash/internal/models"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paperCSV = "국가,연도,총_논문수,총_인용수\n" +
	"KR,2020,60,600\n" +
	"KR,2021,40,200\n" +
	"US,2020,200,1000\n" +
	"US,2022,,0\n"

func newTestServer(t *testing.T, ready bool) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pap_detail.csv"), []byte(paperCSV), 0o644))

	h := NewHandler(engine.NewCatalog(engine.CatalogConfig{DataDir: dir, Seed: 1}, nil), 1)
	if ready {
		h.SetReady()
	}
	return NewServer(ServerConfig{}, h)
}

func get(e *echo.Echo, path string, q url.Values, header ...string) *httptest.ResponseRecorder {
	target := path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNotReady(t *testing.T) {
	e := newTestServer(t, false)

	assert.Equal(t, http.StatusServiceUnavailable, get(e, "/api/health", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(e, "/api/paper/rows", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(e, "/api/views/overview", nil).Code)
}

func TestHealthAndDatasets(t *testing.T) {
	e := newTestServer(t, true)
	assert.Equal(t, http.StatusOK, get(e, "/api/health", nil).Code)

	rec := get(e, "/api/datasets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ds := decode[[]models.DatasetStatus](t, rec)

	require.Len(t, ds, 2)
	assert.Equal(t, "paper", ds[0].Kind)
	assert.False(t, ds[0].Synthetic)
	assert.Equal(t, 4, ds[0].Rows)
	assert.Equal(t, "patent", ds[1].Kind)
	assert.True(t, ds[1].Synthetic)
	assert.NotEmpty(t, ds[1].LoadError)
}

func TestSchema(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/papers/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[models.SchemaResponse](t, rec)

	assert.Equal(t, "paper", s.Dataset)
	assert.Equal(t, "국가", s.Roles["country"])
	assert.Equal(t, "총_논문수", s.Roles["total_count"])
	assert.Equal(t, "총_인용수", s.Roles["citation_count"])

	assert.Equal(t, http.StatusNotFound, get(e, "/api/journals/schema", nil).Code)
}

func TestRowsFilterAndPaging(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/paper/rows", url.Values{"year_from": {"2020"}, "year_to": {"2020"}})
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.RowsPage](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Data, 2)

	rec = get(e, "/api/paper/rows", url.Values{
		"year_from": {"2015"}, "sort": {"total_count"}, "order": {"desc"}, "limit": {"1"}, "offset": {"0"},
	})
	page = decode[models.RowsPage](t, rec)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "US", page.Data[0]["국가"])

	rec = get(e, "/api/paper/rows", url.Values{"country": {"KR"}, "offset": {"10"}})
	page = decode[models.RowsPage](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Empty(t, page.Data)

	rec = get(e, "/api/paper/rows", url.Values{"country": {"JP"}})
	page = decode[models.RowsPage](t, rec)
	assert.Zero(t, page.Total)
	assert.NotEmpty(t, page.Warnings)
}

func TestBadParameters(t *testing.T) {
	e := newTestServer(t, true)

	for _, q := range []url.Values{
		{"year_from": {"abc"}},
		{"year_from": {"2022"}, "year_to": {"2020"}},
		{"tech_level": {"38대 분류"}},
		{"count_min": {"many"}},
		{"sort": {"nope"}},
	} {
		assert.Equal(t, http.StatusBadRequest, get(e, "/api/paper/rows", q).Code, q.Encode())
	}
	assert.Equal(t, http.StatusBadRequest, get(e, "/api/paper/aggregate", url.Values{"group": {"country"}, "op": {"median"}}).Code)
	assert.Equal(t, http.StatusBadRequest, get(e, "/api/paper/aggregate", nil).Code)
}

func TestAggregate(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/paper/aggregate", url.Values{"group": {"country"}, "value": {"total_count"}})
	require.Equal(t, http.StatusOK, rec.Code)
	agg := decode[models.AggregateResponse](t, rec)

	assert.True(t, agg.Available)
	require.Len(t, agg.Groups, 2)
	assert.Equal(t, "US", agg.Groups[0].Key)
	assert.Equal(t, models.Float(200), agg.Groups[0].Value)
	assert.Equal(t, "KR", agg.Groups[1].Key)
	assert.Equal(t, models.Float(100), agg.Groups[1].Value)

	rec = get(e, "/api/paper/aggregate", url.Values{"group": {"country,year"}, "op": {"count"}, "top": {"1"}})
	agg = decode[models.AggregateResponse](t, rec)
	require.Len(t, agg.Groups, 1)
	assert.Len(t, agg.Groups[0].Keys, 2)

	rec = get(e, "/api/paper/aggregate", url.Values{"group": {"country"}, "value": {"h_index"}, "op": {"mean"}})
	require.Equal(t, http.StatusOK, rec.Code)
	agg = decode[models.AggregateResponse](t, rec)
	assert.False(t, agg.Available)
	assert.NotEmpty(t, agg.Warnings)
}

func TestDescribeEmitsNullForUndefinedStats(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/paper/describe", url.Values{"year_from": {"2022"}, "year_to": {"2022"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"std":null`)

	rec = get(e, "/api/paper/describe", url.Values{"columns": {"total_count"}})
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "총_논문수", out[0]["column"])
	assert.Equal(t, float64(3), out[0]["count"])
}

func TestExport(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/paper/export", url.Values{"country": {"KR"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "research_papers_")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))

	tbl, err := engine.ReadCSV(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"KR"}, tbl.Distinct("국가"))
}

func TestExportSortsAndCaps(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/paper/export", url.Values{"sort": {"총_논문수"}, "order": {"desc"}, "limit": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	tbl, err := engine.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "US", tbl.Rows[0]["국가"])
	assert.Equal(t, int64(200), tbl.Rows[0]["총_논문수"])

	rec = get(e, "/api/paper/export", url.Values{"sort": {"citation_count"}})
	tbl, err = engine.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, int64(0), tbl.Rows[0]["총_인용수"])
	assert.Equal(t, int64(1000), tbl.Rows[3]["총_인용수"])

	assert.Equal(t, http.StatusBadRequest, get(e, "/api/paper/export", url.Values{"sort": {"nope"}}).Code)
}

func TestViews(t *testing.T) {
	e := newTestServer(t, true)

	rec := get(e, "/api/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[[]string](t, rec), "overview")

	rec = get(e, "/api/views/country-trends", url.Values{"country": {"KR", "US"}})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[models.View](t, rec)
	assert.Equal(t, "country-trends", v.Name)
	assert.NotEmpty(t, v.Charts)

	assert.Equal(t, http.StatusNotFound, get(e, "/api/views/nope", nil).Code)
}

func TestETag(t *testing.T) {
	e := newTestServer(t, true)
	q := url.Values{"year_from": {"2020"}}

	first := get(e, "/api/paper/rows", q)
	tag := first.Header().Get("ETag")
	require.NotEmpty(t, tag)

	assert.Equal(t, http.StatusNotModified, get(e, "/api/paper/rows", q, "If-None-Match", tag).Code)

	q.Set("year_from", "2021")
	other := get(e, "/api/paper/rows", q, "If-None-Match", tag)
	assert.Equal(t, http.StatusOK, other.Code)
	assert.NotEqual(t, tag, other.Header().Get("ETag"))
}

func TestRequestID(t *testing.T) {
	e := newTestServer(t, true)
	rec := get(e, "/api/health", nil)
	assert.Len(t, strings.ReplaceAll(rec.Header().Get(echo.HeaderXRequestID), "-", ""), 32)
}
