package output

import (
	"io"

	"github.com/inodb/munge/internal/annotate"
)

// ResultWriter writes resolver results, one query per row.
type ResultWriter struct {
	tw *TabWriter
}

// NewResultWriter creates a writer with columns Query, Gene, Transcripts and
// Region.
func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{tw: NewTabWriter(w, "Query", "Gene", "Transcripts", "Region")}
}

// WriteHeader writes the header line.
func (rw *ResultWriter) WriteHeader() error {
	return rw.tw.WriteHeader()
}

// Write writes the result for query. Empty labels are written as "-".
func (rw *ResultWriter) Write(query string, r annotate.Result) error {
	return rw.tw.WriteRow(query, dash(r.Gene), dash(r.Transcripts), r.Region.String())
}

// Flush flushes any buffered data.
func (rw *ResultWriter) Flush() error {
	return rw.tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
