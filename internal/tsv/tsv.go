// Package tsv reads the tab-delimited files written by the variant callers.
package tsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// NewReader returns a csv.Reader configured for tab-delimited input with
// ragged rows and bare quotes.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// Unmarshal decodes a tab-delimited table with a header row into out, a
// pointer to a slice of structs tagged with `csv:"column"`. Columns with no
// matching field are ignored.
func Unmarshal(r io.Reader, out any) error {
	if err := gocsv.UnmarshalCSV(NewReader(r), out); err != nil {
		return fmt.Errorf("decode table: %w", err)
	}
	return nil
}

// UnmarshalFile decodes the table at path into out.
func UnmarshalFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := Unmarshal(f, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Table is a header and its rows keyed by column name.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// ReadTable reads a headed table. Short rows leave missing columns empty.
func ReadTable(r io.Reader) (*Table, error) {
	return readTable(NewReader(r))
}

// ReadCSVTable reads a headed comma-separated table.
func ReadCSVTable(r io.Reader) (*Table, error) {
	cr := NewReader(r)
	cr.Comma = ','
	return readTable(cr)
}

func readTable(cr *csv.Reader) (*Table, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadTableFile reads the headed table at path.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadRecords reads every row of a headerless table, skipping lines that
// start with '#'.
func ReadRecords(r io.Reader) ([][]string, error) {
	cr := NewReader(r)
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}
