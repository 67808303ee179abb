package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"bibliodash/internal/engine"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"
)

// parseSelection reads the sidebar filters from the query string. Absent
// parameters keep their defaults.
func parseSelection(c echo.Context) (engine.Selection, error) {
	sel := engine.DefaultSelection()

	var err error
	if sel.YearFrom, err = intParam(c, "year_from", sel.YearFrom); err != nil {
		return sel, err
	}
	if sel.YearTo, err = intParam(c, "year_to", sel.YearTo); err != nil {
		return sel, err
	}
	if sel.YearFrom > sel.YearTo {
		return sel, echo.NewHTTPError(http.StatusBadRequest, "year_from must not exceed year_to")
	}

	if v := valuesParam(c, "country"); len(v) > 0 {
		sel.Countries = v
	}
	if v := valuesParam(c, "tech"); len(v) > 0 {
		sel.Technologies = v
	}

	switch lvl := c.QueryParam("tech_level"); lvl {
	case "", string(engine.TechMajor):
	case string(engine.TechMinor):
		sel.TechLevel = engine.TechMinor
	default:
		return sel, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("tech_level %q: want major or minor", lvl))
	}

	lo, hasLo, err := floatParam(c, "count_min")
	if err != nil {
		return sel, err
	}
	hi, hasHi, err := floatParam(c, "count_max")
	if err != nil {
		return sel, err
	}
	if hasLo || hasHi {
		rng := engine.Range{Min: math.Inf(-1), Max: math.Inf(1)}
		if hasLo {
			rng.Min = lo
		}
		if hasHi {
			rng.Max = hi
		}
		sel.CountRange = &rng
	}

	if v, ok, err := floatParam(c, "min_impact"); err != nil {
		return sel, err
	} else if ok {
		sel.MinImpact = &v
	}
	return sel, nil
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: not an integer", name)).SetInternal(err)
	}
	return v, nil
}

func floatParam(c echo.Context, name string) (float64, bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s: not a number", name))
	}
	return v, true, nil
}

// listParam accepts both repeated parameters and comma-separated values.
func listParam(c echo.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// valuesParam returns the repeated values of name verbatim. Labels such as
// "Energy, Storage" may contain commas, so nothing is split.
func valuesParam(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// etag hashes the parts that determine a response body.
func etag(parts ...string) string {
	return fmt.Sprintf(`"%016x"`, xxh3.HashString(strings.Join(parts, "\x00")))
}

// notModified sets the ETag header and reports whether the client copy is
// current. The normalized query string is always part of the tag.
func notModified(c echo.Context, parts ...string) bool {
	tag := etag(append(parts, c.Request().URL.Query().Encode())...)
	c.Response().Header().Set("ETag", tag)
	return c.Request().Header.Get("If-None-Match") == tag
}
