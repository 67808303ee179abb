package engine

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/labstack/gommon/log"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSnapshot           = errors.New("no snapshot file found")
	ErrUnsupportedFormat    = errors.New("unsupported snapshot format")
	ErrMissingDiscriminator = errors.New("workbook has no 구분 column")
)

// LoadFile reads a snapshot, picking the decoder from the file extension.
func LoadFile(path string) (*Table, error) {
	start := time.Now()
	log.Infof("Loading snapshot %s", path)

	var (
		t   *Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".arrow", ".ipc", ".feather":
		t, err = LoadArrow(path)
	case ".csv":
		var f *os.File
		if f, err = os.Open(path); err == nil {
			t, err = ReadCSV(f)
			f.Close()
		}
	default:
		err = fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	log.Infof("Load Complete. Rows: %d. Time: %v", t.Len(), time.Since(start))
	return t, nil
}

// --- ARROW SNAPSHOTS ---

// LoadArrow reads every record batch of an Arrow IPC file into a table.
func LoadArrow(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("open arrow file %s: %w", path, err)
	}
	defer r.Close()

	schema := r.Schema()
	cols := make([]string, schema.NumFields())
	for i, fld := range schema.Fields() {
		cols[i] = fld.Name
	}

	var rows []Row
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read record batch %d: %w", i, err)
		}
		base := len(rows)
		for j := 0; j < int(rec.NumRows()); j++ {
			rows = append(rows, make(Row, len(cols)))
		}
		for c, name := range cols {
			arr := rec.Column(c)
			for j := 0; j < arr.Len(); j++ {
				rows[base+j][name] = arrowValue(arr, j)
			}
		}
	}
	return NewTable(cols, rows), nil
}

func arrowValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.Dictionary:
		return arrowValue(a.Dictionary(), a.GetValueIndex(i))
	}
	return arr.ValueStr(i)
}

// WriteArrow stores t as a single-batch Arrow IPC file. Column types are
// inferred: all-integer columns become int64, numeric ones float64, the
// rest utf8.
func WriteArrow(w io.Writer, t *Table) error {
	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c, Type: inferArrowType(t, c), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, c := range t.Columns {
		for _, r := range t.Rows {
			v := r[c]
			switch fb := b.Field(i).(type) {
			case *array.Int64Builder:
				if n, ok := v.(int64); ok {
					fb.Append(n)
				} else {
					fb.AppendNull()
				}
			case *array.Float64Builder:
				if f, ok := AsFloat(v); ok {
					fb.Append(f)
				} else {
					fb.AppendNull()
				}
			case *array.StringBuilder:
				if v == nil {
					fb.AppendNull()
				} else {
					fb.Append(FormatValue(v))
				}
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	return fw.Close()
}

func inferArrowType(t *Table, column string) arrow.DataType {
	allInt, anyValue := true, false
	for _, r := range t.Rows {
		switch r[column].(type) {
		case nil:
		case int64:
			anyValue = true
		case float64:
			anyValue = true
			allInt = false
		default:
			return arrow.BinaryTypes.String
		}
	}
	if !anyValue {
		return arrow.BinaryTypes.String
	}
	if allInt {
		return arrow.PrimitiveTypes.Int64
	}
	return arrow.PrimitiveTypes.Float64
}

// --- WORKBOOK INPUT ---

const (
	discriminatorColumn = "구분"
	paperCategory       = "1. 논문"
	patentCategory      = "2. 특허"
)

// LoadWorkbook splits the first sheet of an xlsx workbook into paper and
// patent tables by its 구분 column. The discriminator is dropped.
func LoadWorkbook(path string) (paper, patent *Table, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}
	return SplitByCategory(rows[0], rows[1:])
}

// SplitByCategory turns raw sheet rows into the paper and patent tables.
func SplitByCategory(header []string, records [][]string) (paper, patent *Table, err error) {
	disc := -1
	cols := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == discriminatorColumn {
			disc = i
			continue
		}
		cols = append(cols, h)
	}
	if disc < 0 {
		return nil, nil, ErrMissingDiscriminator
	}

	var paperRows, patentRows []Row
	for _, rec := range records {
		if disc >= len(rec) {
			continue
		}
		row := make(Row, len(cols))
		for i, h := range header {
			if i == disc {
				continue
			}
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			row[strings.TrimSpace(h)] = InferValue(cell)
		}
		switch strings.TrimSpace(rec[disc]) {
		case paperCategory:
			paperRows = append(paperRows, row)
		case patentCategory:
			patentRows = append(patentRows, row)
		}
	}
	return NewTable(cols, paperRows), NewTable(cols, patentRows), nil
}

// --- SYNTHETIC FALLBACK ---

var (
	syntheticCountries = []string{"한국", "미국", "중국", "일본", "독일", "영국", "프랑스", "캐나다"}
	syntheticTech      = []string{"AI/ML", "재생에너지", "바이오테크", "나노기술", "양자컴퓨팅", "로봇공학", "블록체인", "기후기술"}
)

const (
	syntheticFirstYear = 2015
	syntheticLastYear  = 2024
)

// Synthetic generates a country x technology x year dataset used when no
// snapshot can be read. The same seed yields the same table.
func Synthetic(kind Kind, seed uint64) *Table {
	r := rand.New(rand.NewPCG(seed, uint64(len(kind))))
	uniform := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }
	intn := func(lo, hi int) int64 { return int64(lo + r.IntN(hi-lo)) }

	var cols []string
	if kind == KindPatent {
		cols = []string{"국가", "기술라벨", "연도", "총_특허수", "총_인용수", "h_index", "triadic_ratio", "avg_family_countries", "avg_claims"}
	} else {
		cols = []string{"국가", "기술라벨", "연도", "총_논문수", "총_인용수", "평균_영향력", "평균_H_index", "중요논문_총수",
			"Top10_Ratio(%)", "Q1_Ratio(%)", "Collaboration_Ratio(%)", "평균_생산성점수", "평균_영향력점수"}
	}

	var rows []Row
	for _, country := range syntheticCountries {
		for _, tech := range syntheticTech {
			for year := syntheticFirstYear; year <= syntheticLastYear; year++ {
				row := Row{"국가": country, "기술라벨": tech, "연도": int64(year)}
				if kind == KindPatent {
					n := intn(20, 300)
					row["총_특허수"] = n
					row["총_인용수"] = n * intn(1, 12)
					row["h_index"] = uniform(5, 40)
					row["triadic_ratio"] = uniform(0, 35)
					row["avg_family_countries"] = uniform(1, 8)
					row["avg_claims"] = uniform(8, 25)
				} else {
					n := intn(50, 500)
					row["총_논문수"] = n
					row["총_인용수"] = n * intn(2, 20)
					row["평균_영향력"] = uniform(0.5, 5.0)
					row["평균_H_index"] = uniform(10, 50)
					row["중요논문_총수"] = intn(5, 100)
					row["Top10_Ratio(%)"] = uniform(2, 25)
					row["Q1_Ratio(%)"] = uniform(20, 70)
					row["Collaboration_Ratio(%)"] = uniform(10, 60)
					row["평균_생산성점수"] = uniform(60, 100)
					row["평균_영향력점수"] = uniform(40, 95)
				}
				rows = append(rows, row)
			}
		}
	}
	return NewTable(cols, rows)
}
