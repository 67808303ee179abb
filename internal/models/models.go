package models

import (
	"math"
	"strconv"
	"time"
)

// Float encodes NaN and ±Inf as null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// View is one dashboard section as handed to the front end.
type View struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Charts       []Chart       `json:"charts"`
	Metrics      []MetricCard  `json:"metrics,omitempty"`
	Tables       []TableBlock  `json:"tables,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Placeholders []Placeholder `json:"placeholders,omitempty"`
}

// Chart kinds understood by the renderer.
const (
	ChartBar      = "bar"
	ChartLine     = "line"
	ChartArea     = "area"
	ChartRadar    = "radar"
	ChartHeatmap  = "heatmap"
	ChartTreemap  = "treemap"
	ChartSunburst = "sunburst"
	ChartScatter  = "scatter"
	ChartBox      = "box"
)

type Chart struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Title       string       `json:"title"`
	XAxis       string       `json:"x_axis,omitempty"`
	YAxis       string       `json:"y_axis,omitempty"`
	Horizontal  bool         `json:"horizontal,omitempty"`
	Series      []Series     `json:"series,omitempty"`
	Heatmap     *Heatmap     `json:"heatmap,omitempty"`
	Nodes       []Node       `json:"nodes,omitempty"`
	ReferenceX  []Reference  `json:"reference_x,omitempty"`
	ReferenceY  []Reference  `json:"reference_y,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

type Point struct {
	Label string `json:"label"`
	Value Float  `json:"value"`
	X     *Float `json:"x,omitempty"`
	Size  *Float `json:"size,omitempty"`
}

type Heatmap struct {
	X []string  `json:"x"`
	Y []string  `json:"y"`
	Z [][]Float `json:"z"`
}

// Node is one cell of a treemap or sunburst hierarchy.
type Node struct {
	ID     string `json:"id"`
	Parent string `json:"parent"`
	Label  string `json:"label"`
	Value  Float  `json:"value"`
}

type Reference struct {
	Value Float  `json:"value"`
	Label string `json:"label"`
}

type Annotation struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Placeholder stands in for a chart whose inputs are unavailable.
type Placeholder struct {
	ChartID string `json:"chart_id"`
	Message string `json:"message"`
}

type TableBlock struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// --- API payloads ---

type DatasetStatus struct {
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	Synthetic bool      `json:"synthetic"`
	Rows      int       `json:"rows"`
	LoadError string    `json:"load_error,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
}

type SchemaResponse struct {
	Dataset       string            `json:"dataset"`
	Columns       []string          `json:"columns"`
	Roles         map[string]string `json:"roles"`
	StandardNames map[string]string `json:"standard_names"`
}

type RowsPage struct {
	Data     []map[string]any `json:"data"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	Warnings []string         `json:"warnings,omitempty"`
}

type GroupValue struct {
	Key   string   `json:"key"`
	Keys  []string `json:"keys,omitempty"`
	Value Float    `json:"value"`
	Count int      `json:"count"`
}

type AggregateResponse struct {
	Dataset   string       `json:"dataset"`
	Group     string       `json:"group"`
	Value     string       `json:"value,omitempty"`
	Op        string       `json:"op"`
	Available bool         `json:"available"`
	Groups    []GroupValue `json:"groups"`
	Warnings  []string     `json:"warnings,omitempty"`
}

type ColumnSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Float  `json:"mean"`
	Std    Float  `json:"std"`
	Min    Float  `json:"min"`
	Q1     Float  `json:"25%"`
	Median Float  `json:"50%"`
	Q3     Float  `json:"75%"`
	Max    Float  `json:"max"`
}
