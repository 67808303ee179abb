package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteCSV writes t as comma-separated text with a UTF-8 byte order mark so
// spreadsheet tools detect the encoding of Korean headers.
func WriteCSV(w io.Writer, t *Table) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			record[i] = FormatValue(r[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return tw.Close()
}

// ReadCSV parses delimited text into a table, dropping a leading BOM. A cell
// becomes a number only when formatting that number gives back the exact
// text, so exported tables reload unchanged.
func ReadCSV(r io.Reader) (*Table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = readCell(rec[i])
			} else {
				row[h] = nil
			}
		}
		rows = append(rows, row)
	}
	return NewTable(header, rows), nil
}

func readCell(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(i, 10) == s {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if FormatValue(f) == s {
		return f
	}
	return s
}

// ExportFileName is the download name of a CSV export made at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("research_papers_%s.csv", t.Format("20060102"))
}
