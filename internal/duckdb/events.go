package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/munge/internal/svsummary"
)

// Event is one row of sv_events.
type Event struct {
	Source      string `db:"source"`
	Sample      string `db:"sample"`
	Chrom       string `db:"chrom"`
	Start       int64  `db:"start"`
	End         int64  `db:"end_pos"`
	Type        string `db:"event_type"`
	Size        int64  `db:"size"`
	Reads       int64  `db:"reads"`
	Gene        string `db:"gene"`
	GeneRegion  string `db:"gene_region"`
	Transcripts string `db:"transcripts"`
}

const eventColumns = `source, sample, chrom, start, end_pos, event_type, size, reads, gene, gene_region, transcripts`

// PindelEvents converts annotated Pindel calls into rows. The sample is the
// source file name up to its first dot.
func PindelEvents(events []*svsummary.PindelEvent) []Event {
	rows := make([]Event, len(events))
	for i, e := range events {
		sample, _, _ := strings.Cut(filepath.Base(e.Source), ".")
		rows[i] = Event{
			Source:      e.Source,
			Sample:      sample,
			Chrom:       e.Label,
			Start:       e.Start,
			End:         e.End,
			Type:        e.Type,
			Size:        e.Size,
			Reads:       e.SortReads(),
			Gene:        e.Annotation.Gene,
			GeneRegion:  e.Annotation.Region.String(),
			Transcripts: e.Annotation.Transcripts,
		}
	}
	return rows
}

// WriteEvents batch-inserts events using the Appender API.
func (s *Store) WriteEvents(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "sv_events")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, e := range events {
		if err := appender.AppendRow(
			e.Source, e.Sample, e.Chrom, e.Start, e.End, e.Type,
			e.Size, e.Reads, e.Gene, e.GeneRegion, e.Transcripts,
		); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
	}

	return appender.Flush()
}

// ClearSource removes every event read from source, so a rerun over the
// same file replaces its rows.
func (s *Store) ClearSource(source string) error {
	_, err := s.db.Exec("DELETE FROM sv_events WHERE source=?", source)
	return err
}

// EventsByGene returns events whose gene label lists gene, most supported
// first.
func (s *Store) EventsByGene(gene string) ([]Event, error) {
	var events []Event
	err := s.x.Select(&events, `SELECT `+eventColumns+`
		FROM sv_events
		WHERE list_contains(string_split(gene, ';'), ?)
		ORDER BY reads DESC, sample, chrom, start`, gene)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	return events, nil
}

// EventsBySample returns the events of one sample in genomic order.
func (s *Store) EventsBySample(sample string) ([]Event, error) {
	var events []Event
	err := s.x.Select(&events, `SELECT `+eventColumns+`
		FROM sv_events
		WHERE sample=?
		ORDER BY chrom, start, end_pos`, sample)
	if err != nil {
		return nil, fmt.Errorf("query by sample: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents() (int64, error) {
	var n int64
	if err := s.x.Get(&n, "SELECT count(*) FROM sv_events"); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
