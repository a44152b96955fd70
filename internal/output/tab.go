// Package output writes the tab-delimited reports.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TabWriter writes rows of a fixed column layout in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with the given columns.
func NewTabWriter(w io.Writer, columns ...string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// Columns returns the column layout.
func (tw *TabWriter) Columns() []string {
	return tw.columns
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRow writes one row. The number of values must match the columns.
func (tw *TabWriter) WriteRow(values ...string) error {
	if len(values) != len(tw.columns) {
		return fmt.Errorf("row has %d values, expected %d columns", len(values), len(tw.columns))
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteMap writes one row taking each column's value from row. Missing
// columns are written empty.
func (tw *TabWriter) WriteMap(row map[string]string) error {
	values := make([]string, len(tw.columns))
	for i, c := range tw.columns {
		values[i] = row[c]
	}
	return tw.WriteRow(values...)
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
