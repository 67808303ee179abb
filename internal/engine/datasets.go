package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// Kind names one of the two logical datasets.
type Kind string

const (
	KindPaper  Kind = "paper"
	KindPatent Kind = "patent"
)

var ErrUnknownDataset = errors.New("unknown dataset")

// ParseKind accepts "paper"/"papers" and "patent"/"patents".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "paper", "papers":
		return KindPaper, nil
	case "patent", "patents":
		return KindPatent, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownDataset)
}

// Candidates lists snapshot file names per dataset, tried in order.
var Candidates = map[Kind][]string{
	KindPaper:  {"pap_detail.arrow", "pap_detail.csv", "papers_data.arrow", "papers_data.csv"},
	KindPatent: {"pat_detail.arrow", "pat_detail.csv", "patents_data.arrow", "patents_data.csv"},
}

// DatatypeColumn tags every loaded row with its dataset kind.
const DatatypeColumn = "datatype"

// Dataset is a loaded table together with its resolved roles.
type Dataset struct {
	Kind      Kind
	Source    string
	Synthetic bool
	LoadError string
	LoadedAt  time.Time
	Table     *Table
	Mapping   RoleMapping
}

// CatalogConfig points the catalog at its inputs.
type CatalogConfig struct {
	DataDir  string
	Workbook string // optional xlsx with a 구분 column
	Seed     uint64 // synthetic fallback seed
}

// Catalog resolves datasets from snapshot files, caching both the raw
// tables (by path) and the resolved datasets (by kind).
type Catalog struct {
	cfg   CatalogConfig
	store *Store

	mu       sync.Mutex
	datasets map[Kind]*Dataset
	workbook *workbookSplit
}

var loadWorkbook = LoadWorkbook

func NewCatalog(cfg CatalogConfig, store *Store) *Catalog {
	if store == nil {
		store = NewStore()
	}
	return &Catalog{cfg: cfg, store: store, datasets: make(map[Kind]*Dataset)}
}

// Dataset returns the dataset of kind, loading it on first use.
func (c *Catalog) Dataset(kind Kind) *Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ds, ok := c.datasets[kind]; ok {
		return ds
	}
	ds := c.load(kind)
	c.datasets[kind] = ds
	return ds
}

// Warm loads both datasets.
func (c *Catalog) Warm() {
	for _, k := range []Kind{KindPaper, KindPatent} {
		ds := c.Dataset(k)
		log.Infof("dataset %s ready: source=%s rows=%d synthetic=%v", k, ds.Source, ds.Table.Len(), ds.Synthetic)
	}
}

func (c *Catalog) load(kind Kind) *Dataset {
	ds := &Dataset{Kind: kind}

	// 1. Workbook input takes precedence when configured
	if c.cfg.Workbook != "" {
		t, err := c.fromWorkbook(kind)
		if err == nil {
			return c.finish(ds, c.cfg.Workbook, t)
		}
		log.Warnf("workbook %s unusable for %s: %v", c.cfg.Workbook, kind, err)
		ds.LoadError = err.Error()
	}

	// 2. First existing snapshot candidate
	for _, name := range Candidates[kind] {
		path := filepath.Join(c.cfg.DataDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		t, err := c.store.Get(path, func() (*Table, error) {
			t, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			return t.WithColumn(DatatypeColumn, string(kind)), nil
		})
		if err != nil {
			log.Errorf("load %s: %v", path, err)
			ds.LoadError = err.Error()
			continue
		}
		return c.finish(ds, path, t)
	}
	if ds.LoadError == "" {
		ds.LoadError = fmt.Sprintf("%s: %v", kind, ErrNoSnapshot)
	}

	// 3. Synthetic fallback
	log.Warnf("%s; serving synthetic %s data", ds.LoadError, kind)
	key := "synthetic:" + string(kind)
	t, _ := c.store.Get(key, func() (*Table, error) {
		return Synthetic(kind, c.cfg.Seed).WithColumn(DatatypeColumn, string(kind)), nil
	})
	ds.Synthetic = true
	return c.finish(ds, key, t)
}

func (c *Catalog) fromWorkbook(kind Kind) (*Table, error) {
	key := c.cfg.Workbook + "#" + string(kind)
	return c.store.Get(key, func() (*Table, error) {
		wb, err := c.splitWorkbook()
		if err != nil {
			return nil, err
		}
		if kind == KindPatent {
			return wb.patent.WithColumn(DatatypeColumn, string(kind)), nil
		}
		return wb.paper.WithColumn(DatatypeColumn, string(kind)), nil
	})
}

type workbookSplit struct {
	paper, patent *Table
}

// splitWorkbook reads the workbook once for both kinds. Callers hold c.mu;
// a failed read is retried on the next call.
func (c *Catalog) splitWorkbook() (*workbookSplit, error) {
	if c.workbook != nil {
		return c.workbook, nil
	}
	paper, patent, err := loadWorkbook(c.cfg.Workbook)
	if err != nil {
		return nil, err
	}
	c.workbook = &workbookSplit{paper: paper, patent: patent}
	return c.workbook, nil
}

func (c *Catalog) finish(ds *Dataset, source string, t *Table) *Dataset {
	ds.Source = source
	ds.Table = t
	ds.Mapping = Resolve(t.Columns)
	ds.LoadedAt = time.Now()
	return ds
}
