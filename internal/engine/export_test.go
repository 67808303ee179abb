package engine

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	src := NewTable([]string{"국가", "연도", "평균_영향력", "비고"}, []Row{
		{"국가": "한국", "연도": int64(2020), "평균_영향력": 1.25, "비고": "a, b"},
		{"국가": "미국", "연도": int64(2021), "평균_영향력": nil, "비고": `say "hi"`},
		{"국가": "007", "연도": int64(-3), "평균_영향력": 0.5, "비고": " padded "},
		{"국가": "NaN", "연도": int64(0), "평균_영향력": -2.75, "비고": "Inf"},
		{"국가": "+Inf", "연도": int64(1), "평균_영향력": 1e-7, "비고": "1.50"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}), "utf-8 bom")

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Columns, got.Columns, "bom stripped from first header")
	assert.Equal(t, src.Rows, got.Rows)
}

func TestReadCSVRaggedRows(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("a,b,c\n1,x\n2.5,y,z,extra\n"))
	require.NoError(t, err)

	require.Equal(t, 2, got.Len())
	assert.Equal(t, Row{"a": int64(1), "b": "x", "c": nil}, got.Rows[0])
	assert.Equal(t, 2.5, got.Rows[1]["a"])
}

func TestReadCSVKeepsNonCanonicalText(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("a,b,c,d,e\n007, 12 ,1e3,-0,nan\n"))
	require.NoError(t, err)

	assert.Equal(t, Row{"a": "007", "b": " 12 ", "c": "1e3", "d": "-0", "e": "nan"}, got.Rows[0])
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestExportFileName(t *testing.T) {
	d := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "research_papers_20240307.csv", ExportFileName(d))
}
