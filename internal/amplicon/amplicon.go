// Package amplicon joins per-amplicon read counts from an Illumina amplicon
// run with the panel's amplicon descriptions.
package amplicon

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/tsv"
)

// Column names shared by the amplicon file and the run metrics.
const (
	TargetColumn   = "Target"
	GeneColumn     = "Gene"
	PositionColumn = "Position"
)

// SampleSuffix names the per-sample report.
const SampleSuffix = ".Amplicon_Analysis.txt"

// IsCoverageFile reports whether name is a run's amplicon coverage table,
// e.g. AmpliconCoverage_M1.tsv.
func IsCoverageFile(name string) bool {
	return strings.Contains(name, "AmpliconCoverage") && strings.HasSuffix(name, ".tsv")
}

// FindCoverageFile walks dir and returns its only amplicon coverage table.
func FindCoverageFile(dir string) (string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsCoverageFile(d.Name()) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search %s: %w", dir, err)
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no amplicon coverage file under %s", dir)
	case 1:
		return found[0], nil
	}
	sort.Strings(found)
	return "", fmt.Errorf("%d amplicon coverage files under %s: %s", len(found), dir, strings.Join(found, ", "))
}

// Table is a header and its rows keyed by column name.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Has reports whether the table has column c.
func (t *Table) Has(c string) bool {
	for _, col := range t.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// Write writes the table as tab-delimited text.
func (t *Table) Write(w io.Writer) error {
	tw := output.NewTabWriter(w, t.Columns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := tw.WriteMap(row); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func missing(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NA", "NaN", "nan", "N/A":
		return true
	}
	return false
}

// RunMetrics is the coverage table of a run: one row per target and one
// read count column per sample.
type RunMetrics struct {
	Table
	Samples []string
}

// ReadRunMetrics reads a coverage table. Its first header cell is blank
// and names the target column. Columns with no value in any row are
// dropped.
func ReadRunMetrics(r io.Reader) (*RunMetrics, error) {
	records, err := tsv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read run metrics: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("run metrics: empty file")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		switch {
		case h != "":
		case i == 0:
			h = TargetColumn
		default:
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = h
	}

	value := func(rec []string, i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	m := &RunMetrics{}
	var keep []int
	for i, col := range header {
		if col == TargetColumn {
			keep = append(keep, i)
			continue
		}
		for _, rec := range records[1:] {
			if !missing(value(rec, i)) {
				keep = append(keep, i)
				break
			}
		}
	}
	for _, i := range keep {
		m.Columns = append(m.Columns, header[i])
		if header[i] != TargetColumn {
			m.Samples = append(m.Samples, header[i])
		}
	}
	if !m.Has(TargetColumn) {
		return nil, errors.New("run metrics: no target column")
	}

	for _, rec := range records[1:] {
		row := make(map[string]string, len(keep))
		for _, i := range keep {
			v := value(rec, i)
			if missing(v) {
				v = ""
			}
			row[header[i]] = v
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// ReadRunMetricsFile reads the coverage table at path.
func ReadRunMetricsFile(path string) (*RunMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadRunMetrics(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadAmplicons reads the comma-separated amplicon description file. It
// must have a Target column.
func ReadAmplicons(r io.Reader) (*Table, error) {
	t, err := tsv.ReadCSVTable(r)
	if err != nil {
		return nil, fmt.Errorf("read amplicons: %w", err)
	}
	out := &Table{Columns: t.Header, Rows: t.Rows}
	if !out.Has(TargetColumn) {
		return nil, fmt.Errorf("amplicons: no %s column", TargetColumn)
	}
	return out, nil
}

// Merge inner-joins amplicons with metrics on Target, in amplicon order.
// Other column names present on both sides get _x and _y suffixes.
func Merge(amplicons *Table, metrics *RunMetrics) *Table {
	byTarget := make(map[string][]map[string]string)
	for _, row := range metrics.Rows {
		t := row[TargetColumn]
		byTarget[t] = append(byTarget[t], row)
	}

	shared := make(map[string]bool)
	for _, c := range metrics.Columns {
		if c != TargetColumn && amplicons.Has(c) {
			shared[c] = true
		}
	}
	leftName := func(c string) string {
		if shared[c] {
			return c + "_x"
		}
		return c
	}
	rightName := func(c string) string {
		if shared[c] {
			return c + "_y"
		}
		return c
	}

	merged := &Table{}
	for _, c := range amplicons.Columns {
		merged.Columns = append(merged.Columns, leftName(c))
	}
	for _, c := range metrics.Columns {
		if c != TargetColumn {
			merged.Columns = append(merged.Columns, rightName(c))
		}
	}

	for _, a := range amplicons.Rows {
		for _, m := range byTarget[a[TargetColumn]] {
			row := make(map[string]string, len(merged.Columns))
			for _, c := range amplicons.Columns {
				row[leftName(c)] = a[c]
			}
			for _, c := range metrics.Columns {
				if c != TargetColumn {
					row[rightName(c)] = m[c]
				}
			}
			merged.Rows = append(merged.Rows, row)
		}
	}
	return merged
}

// SamplePrefix names a sample's report directory: underscores in the
// sample become dashes and the project is appended.
func SamplePrefix(sample, project string) string {
	return strings.ReplaceAll(sample, "_", "-") + "-" + project
}

// SamplePath is <dir>/<prefix>/<prefix>.Amplicon_Analysis.txt.
func SamplePath(dir, sample, project string) string {
	pfx := SamplePrefix(sample, project)
	return filepath.Join(dir, pfx, pfx+SampleSuffix)
}

// SampleTable selects the target description and one sample's counts.
func SampleTable(merged *Table, sample string) (*Table, error) {
	cols := []string{TargetColumn, GeneColumn, PositionColumn, sample}
	for _, c := range cols {
		if !merged.Has(c) {
			return nil, fmt.Errorf("merged amplicon table has no %s column", c)
		}
	}
	return &Table{Columns: cols, Rows: merged.Rows}, nil
}
