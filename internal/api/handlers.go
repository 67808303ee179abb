package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"bibliodash/internal/dashboard"
	"bibliodash/internal/engine"
	"bibliodash/internal/models"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize   = 100
	defaultExportRows = 20
)

type Handler struct {
	catalog *engine.Catalog
	seed    uint64
	ready   atomic.Bool
}

func NewHandler(catalog *engine.Catalog, seed uint64) *Handler {
	return &Handler{catalog: catalog, seed: seed}
}

// SetReady opens the data endpoints once the snapshots are warm.
func (h *Handler) SetReady() { h.ready.Store(true) }

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.Health)

	data := api.Group("", h.requireReady)
	data.GET("/datasets", h.GetDatasets)
	data.GET("/views", h.ListViews)
	data.GET("/views/:view", h.GetView)
	data.GET("/:dataset/schema", h.GetSchema)
	data.GET("/:dataset/rows", h.GetRows)
	data.GET("/:dataset/aggregate", h.GetAggregate)
	data.GET("/:dataset/describe", h.GetDescribe)
	data.GET("/:dataset/export", h.Export)
}

func (h *Handler) requireReady(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.ready.Load() {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "data is loading")
		}
		return next(c)
	}
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	if !h.ready.Load() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetDatasets(c echo.Context) error {
	out := make([]models.DatasetStatus, 0, 2)
	for _, k := range []engine.Kind{engine.KindPaper, engine.KindPatent} {
		ds := h.catalog.Dataset(k)
		out = append(out, models.DatasetStatus{
			Kind:      string(k),
			Source:    ds.Source,
			Synthetic: ds.Synthetic,
			Rows:      ds.Table.Len(),
			LoadError: ds.LoadError,
			LoadedAt:  ds.LoadedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetSchema(c echo.Context) error {
	ds, err := h.dataset(c)
	if err != nil {
		return err
	}
	roles := make(map[string]string, len(ds.Mapping))
	for r, col := range ds.Mapping {
		roles[string(r)] = col
	}
	return c.JSON(http.StatusOK, models.SchemaResponse{
		Dataset:       string(ds.Kind),
		Columns:       ds.Table.Columns,
		Roles:         roles,
		StandardNames: engine.StandardNames(ds.Table.Columns),
	})
}

// returns the filtered detail table, sorted and paginated
func (h *Handler) GetRows(c echo.Context) error {
	ds, sel, err := h.filtered(c)
	if err != nil {
		return err
	}
	if notModified(c, "rows", stamp(ds)) {
		return c.NoContent(http.StatusNotModified)
	}
	t, err := sorted(c, ds, sel)
	if err != nil {
		return err
	}

	total := t.Len()
	limit, offset := getPaginationParams(c, defaultPageSize)
	page := models.RowsPage{Data: []map[string]any{}, Total: total, Limit: limit, Offset: offset}
	if total == 0 {
		page.Warnings = append(page.Warnings, "선택한 조건에 해당하는 데이터가 없습니다.")
	}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		for _, r := range t.Rows[offset:end] {
			page.Data = append(page.Data, jsonRow(r))
		}
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetAggregate(c echo.Context) error {
	ds, sel, err := h.filtered(c)
	if err != nil {
		return err
	}
	op, ok := engine.ParseOp(c.QueryParam("op"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("op %q: want sum, mean or count", c.QueryParam("op")))
	}
	group := listParam(c, "group")
	if len(group) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "group is required")
	}
	if notModified(c, "aggregate", stamp(ds)) {
		return c.NoContent(http.StatusNotModified)
	}

	resp := models.AggregateResponse{
		Dataset: string(ds.Kind),
		Group:   strings.Join(group, ","),
		Value:   c.QueryParam("value"),
		Op:      string(op),
		Groups:  []models.GroupValue{},
	}

	// 1. Resolve roles or raw column names; absence means unavailable
	groupCols := make([]string, len(group))
	for i, g := range group {
		col, ok := column(ds, g)
		if !ok {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s 컬럼이 없습니다.", g))
			return c.JSON(http.StatusOK, resp)
		}
		groupCols[i] = col
	}
	var valueCol string
	if op != engine.OpCount {
		col, ok := column(ds, resp.Value)
		if !ok {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s 컬럼이 없습니다.", resp.Value))
			return c.JSON(http.StatusOK, resp)
		}
		valueCol = col
	}

	// 2. Aggregate, order, truncate
	agg := engine.AggregateColumns(engine.Apply(ds.Table, ds.Mapping, sel), groupCols, valueCol, op)
	if c.QueryParam("sort") == "key" {
		agg = agg.SortKeys()
	} else {
		agg = agg.SortDesc()
	}
	if n, err := strconv.Atoi(c.QueryParam("top")); err == nil {
		agg = agg.Top(n)
	}

	resp.Available = true
	for _, g := range agg.Groups {
		resp.Groups = append(resp.Groups, models.GroupValue{Key: strings.Join(g.Keys, " / "), Keys: g.Keys, Value: models.Float(g.Value), Count: g.Count})
	}
	if len(resp.Groups) == 0 {
		resp.Warnings = append(resp.Warnings, "선택한 조건에 해당하는 데이터가 없습니다.")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetDescribe(c echo.Context) error {
	ds, sel, err := h.filtered(c)
	if err != nil {
		return err
	}
	if notModified(c, "describe", stamp(ds)) {
		return c.NoContent(http.StatusNotModified)
	}
	t := engine.Apply(ds.Table, ds.Mapping, sel)

	var cols []string
	for _, name := range listParam(c, "columns") {
		if col, ok := column(ds, name); ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		year, _ := ds.Mapping.Column(engine.RoleYear)
		cols = engine.NumericColumns(t, year)
	}

	out := make([]models.ColumnSummary, 0, len(cols))
	for _, s := range engine.Describe(t, cols) {
		out = append(out, models.ColumnSummary{
			Column: s.Column,
			Count:  s.Count,
			Mean:   models.Float(s.Mean),
			Std:    models.Float(s.Std),
			Min:    models.Float(s.Min),
			Q1:     models.Float(s.Q1),
			Median: models.Float(s.Median),
			Q3:     models.Float(s.Q3),
			Max:    models.Float(s.Max),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Export streams the filtered, sorted and row-capped table as a CSV download.
func (h *Handler) Export(c echo.Context) error {
	ds, sel, err := h.filtered(c)
	if err != nil {
		return err
	}
	t, err := sorted(c, ds, sel)
	if err != nil {
		return err
	}
	limit, _ := getPaginationParams(c, defaultExportRows)
	t = engine.Head(t, limit)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", engine.ExportFileName(time.Now())))
	res.WriteHeader(http.StatusOK)
	return engine.WriteCSV(res, t)
}

func (h *Handler) ListViews(c echo.Context) error {
	return c.JSON(http.StatusOK, dashboard.Names())
}

func (h *Handler) GetView(c echo.Context) error {
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}
	paper := h.catalog.Dataset(engine.KindPaper)
	patent := h.catalog.Dataset(engine.KindPatent)

	name := c.Param("view")
	if notModified(c, "view", name, stamp(paper), stamp(patent)) {
		return c.NoContent(http.StatusNotModified)
	}

	v, err := dashboard.Build(name, dashboard.Input{
		Paper:     dashboard.Frame{Table: engine.Apply(paper.Table, paper.Mapping, sel), Mapping: paper.Mapping},
		Patent:    dashboard.Frame{Table: engine.Apply(patent.Table, patent.Mapping, sel), Mapping: patent.Mapping},
		Selection: sel,
		Seed:      h.seed,
	})
	if errors.Is(err, dashboard.ErrUnknownView) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// --- helpers ---

func (h *Handler) dataset(c echo.Context) (*engine.Dataset, error) {
	kind, err := engine.ParseKind(c.Param("dataset"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return h.catalog.Dataset(kind), nil
}

func (h *Handler) filtered(c echo.Context) (*engine.Dataset, engine.Selection, error) {
	ds, err := h.dataset(c)
	if err != nil {
		return nil, engine.Selection{}, err
	}
	sel, err := parseSelection(c)
	return ds, sel, err
}

// sorted applies the selection, then the optional sort and order parameters.
func sorted(c echo.Context, ds *engine.Dataset, sel engine.Selection) (*engine.Table, error) {
	t := engine.Apply(ds.Table, ds.Mapping, sel)
	name := c.QueryParam("sort")
	if name == "" {
		return t, nil
	}
	col, ok := column(ds, name)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("sort: unknown column %q", name))
	}
	return engine.SortBy(t, col, strings.EqualFold(c.QueryParam("order"), "desc")), nil
}

// column accepts a role name or a literal column name.
func column(ds *engine.Dataset, name string) (string, bool) {
	if col, ok := ds.Mapping.Column(engine.Role(name)); ok {
		return col, true
	}
	if ds.Table.HasColumn(name) {
		return name, true
	}
	return "", false
}

func stamp(ds *engine.Dataset) string {
	return ds.Source + "@" + strconv.FormatInt(ds.LoadedAt.UnixNano(), 10)
}

// jsonRow drops NaN cells, which JSON cannot carry.
func jsonRow(r engine.Row) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = nil
		}
		out[k] = v
	}
	return out
}
