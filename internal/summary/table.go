// Package summary pivots per-sample analysis files into cross-sample
// tables, one row per variant and one column per sample.
package summary

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/inodb/munge/internal/output"
)

// CountColumn holds the number of samples carrying a variant.
const CountColumn = "Count"

// Record is one row of a summary table.
type Record struct {
	Key        []string
	Annotation map[string]string // annotation columns, from the last file seen
	Samples    map[string]string // by sample column
}

// SampleColumn is one per-sample value column.
type SampleColumn struct {
	Name     string
	SampleID string // used for manifest ordering
}

// Table is a cross-sample summary under construction.
type Table struct {
	KeyColumns        []string
	AnnotationColumns []string
	SampleColumns     []SampleColumn
	WithCount         bool

	records map[string]*Record
}

// NewTable creates an empty table.
func NewTable(keys, annotations []string) *Table {
	return &Table{
		KeyColumns:        keys,
		AnnotationColumns: annotations,
		records:           make(map[string]*Record),
	}
}

// AddSample appends a sample column.
func (t *Table) AddSample(name, sampleID string) {
	t.SampleColumns = append(t.SampleColumns, SampleColumn{Name: name, SampleID: sampleID})
}

// Record returns the row for key, creating it if needed.
func (t *Table) Record(key ...string) *Record {
	id := strings.Join(key, "\x00")
	r, ok := t.records[id]
	if !ok {
		r = &Record{Key: key, Annotation: map[string]string{}, Samples: map[string]string{}}
		t.records[id] = r
	}
	return r
}

// Set records a sample value and the row's annotation from row.
func (t *Table) Set(key []string, sample, value string, row map[string]string) {
	r := t.Record(key...)
	r.Samples[sample] = value
	if row != nil {
		r.Annotation = row
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns the rows ordered by key.
func (t *Table) Records() []*Record {
	out := make([]*Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return slices.Compare(out[i].Key, out[j].Key) < 0
	})
	return out
}

// Columns returns the full header.
func (t *Table) Columns() []string {
	cols := slices.Concat(t.KeyColumns, t.AnnotationColumns)
	for _, s := range t.SampleColumns {
		cols = append(cols, s.Name)
	}
	if t.WithCount {
		cols = append(cols, CountColumn)
	}
	return cols
}

// OrderSamples reorders sample columns to follow order, a list of sample
// ids. Samples not listed keep their relative order after the listed ones.
func (t *Table) OrderSamples(order []string) {
	rank := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	pos := func(s SampleColumn) int {
		if r, ok := rank[s.SampleID]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(t.SampleColumns, func(i, j int) bool {
		return pos(t.SampleColumns[i]) < pos(t.SampleColumns[j])
	})
}

// Write writes the table ordered by key.
func (t *Table) Write(w io.Writer) error {
	tw := output.NewTabWriter(w, t.Columns()...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range t.Records() {
		row := make(map[string]string, len(tw.Columns()))
		for k, v := range r.Annotation {
			row[k] = v
		}
		for i, k := range t.KeyColumns {
			row[k] = r.Key[i]
		}
		for _, s := range t.SampleColumns {
			row[s.Name] = r.Samples[s.Name]
		}
		if t.WithCount {
			row[CountColumn] = strconv.Itoa(len(r.Samples))
		}
		if err := tw.WriteMap(row); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type manifestRow struct {
	BarcodeID string `csv:"barcode_id"`
}

// ReadManifest returns the barcode_id column of a pipeline manifest CSV.
func ReadManifest(r io.Reader) ([]string, error) {
	var rows []*manifestRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BarcodeID)
	}
	return ids, nil
}

// ReadManifestFile reads the manifest at path.
func ReadManifestFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}
