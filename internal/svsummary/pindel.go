// Package svsummary builds the structural variant reports for Pindel and
// BreakDancer calls.
package svsummary

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/chrom"
	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/vcf"
)

// MinPindelSize is the largest event size dropped from Pindel reports.
const MinPindelSize = 10

// NoPindelData fills the Gene column when no event passes the filters.
const NoPindelData = "No Pindel Data to Report"

// PindelEvent is one Pindel call with its annotation.
type PindelEvent struct {
	Source     string // input file
	Chrom      chrom.Key
	Label      string // display chromosome
	Start      int64
	End        int64 // breakend after the event
	Size       int64
	Type       string
	Reads      []int64 // one count per sample column read
	Annotation annotate.Result
}

// Position renders the event as label:start-end.
func (e *PindelEvent) Position() string {
	return fmt.Sprintf("%s:%d-%d", e.Label, e.Start, e.End)
}

// SortReads returns the read count used for ordering: the last sample column.
func (e *PindelEvent) SortReads() int64 {
	if len(e.Reads) == 0 {
		return 0
	}
	return e.Reads[len(e.Reads)-1]
}

// PindelSummary reads Pindel VCFs and annotates their events.
type PindelSummary struct {
	resolver   *annotate.Resolver
	chroms     *chrom.Set
	multiReads bool
	workers    int
	logger     *zap.Logger
}

// NewPindelSummary creates a summary over resolver. With multiReads the
// VCFs carry two sample columns, bbmerged then bwamem.
func NewPindelSummary(resolver *annotate.Resolver, chroms *chrom.Set, multiReads bool) *PindelSummary {
	return &PindelSummary{
		resolver:   resolver,
		chroms:     chroms,
		multiReads: multiReads,
		logger:     zap.NewNop(),
	}
}

// SetWorkers sets the annotation pool size; 0 uses every CPU.
func (s *PindelSummary) SetWorkers(n int) {
	s.workers = n
}

// SetLogger sets the logger.
func (s *PindelSummary) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Columns returns the report columns.
func (s *PindelSummary) Columns() []string {
	if s.multiReads {
		return []string{"Gene", "Gene_Region", "Event_Type", "Size", "Position", "bbmergedReads", "bwamemReads", "Transcripts"}
	}
	return []string{"Gene", "Gene_Region", "Event_Type", "Size", "Position", "Reads", "Transcripts"}
}

// Read parses the Pindel VCF at path, keeping events on supported
// chromosomes larger than MinPindelSize.
func (s *PindelSummary) Read(path string) ([]*PindelEvent, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return s.ReadFrom(p, path)
}

// ReadFrom reads events from an open parser. path labels the events and
// error messages.
func (s *PindelSummary) ReadFrom(p vcf.VariantParser, path string) ([]*PindelEvent, error) {
	var events []*PindelEvent
	for {
		v, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if v == nil {
			break
		}

		key, ok := s.chroms.Normalize(v.Chrom)
		if !ok {
			continue
		}
		e, err := s.parseEvent(v)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, p.LineNumber(), err)
		}
		if e.Size <= MinPindelSize {
			continue
		}
		e.Source = path
		e.Chrom = key
		e.Label = s.chroms.Label(key)
		events = append(events, e)
	}

	s.logger.Debug("read pindel calls", zap.String("path", path), zap.Int("events", len(events)))
	return events, nil
}

func (s *PindelSummary) parseEvent(v *vcf.Variant) (*PindelEvent, error) {
	svlen, err := v.InfoInt("SVLEN")
	if err != nil {
		return nil, err
	}
	svEnd, err := v.InfoInt("END")
	if err != nil {
		return nil, err
	}
	svtype := v.SVType()
	if svtype == "RPL" {
		svtype = "DEL"
	}

	start, end := annotate.NormalizeBreakends(v.Pos, svEnd)
	e := &PindelEvent{
		Start: start,
		End:   end,
		Size:  max(svlen, -svlen),
		Type:  svtype,
	}

	nSamples := 1
	if s.multiReads {
		nSamples = 2
	}
	for i := range nSamples {
		field, ok := v.SampleField(i)
		if !ok {
			return nil, fmt.Errorf("expected %d sample columns, found %d", nSamples, len(v.Samples))
		}
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid read count %q: %w", field, err)
		}
		e.Reads = append(e.Reads, n)
	}
	return e, nil
}

// Annotate resolves every event as a breakpoint pair with UTR reporting.
func (s *PindelSummary) Annotate(events []*PindelEvent) error {
	items := make(chan annotate.WorkItem, len(events))
	for i, e := range events {
		items <- annotate.WorkItem{
			Seq:   i,
			Query: annotate.Query{Kind: annotate.QueryPair, Chrom: string(e.Chrom), Start: e.Start, End: e.End},
			Extra: e,
		}
	}
	close(items)

	err := annotate.OrderedCollect(s.resolver.ParallelResolve(items, s.workers), func(r annotate.WorkResult) error {
		e, ok := r.Extra.(*PindelEvent)
		if !ok {
			return fmt.Errorf("result %d carries %T, not a pindel event", r.Seq, r.Extra)
		}
		e.Annotation = r.Result
		return nil
	})
	if err != nil {
		return fmt.Errorf("annotating pindel events: %w", err)
	}
	return nil
}

// Collect reads, filters and annotates every path, then sorts the events
// by read count descending and position ascending.
func (s *PindelSummary) Collect(paths []string) ([]*PindelEvent, error) {
	var events []*PindelEvent
	for _, path := range paths {
		ev, err := s.Read(path)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
	}

	if err := s.Annotate(events); err != nil {
		return nil, err
	}
	SortPindel(events)
	return events, nil
}

// SortPindel orders events by read count descending, then position.
func SortPindel(events []*PindelEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ri, rj := events[i].SortReads(), events[j].SortReads()
		if ri != rj {
			return ri > rj
		}
		return events[i].Position() < events[j].Position()
	})
}

// Write writes the report. An empty event list produces a single
// placeholder row.
func (s *PindelSummary) Write(w io.Writer, events []*PindelEvent) error {
	tw := output.NewTabWriter(w, s.Columns()...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}

	if len(events) == 0 {
		row := make([]string, len(s.Columns()))
		row[0] = NoPindelData
		if err := tw.WriteRow(row...); err != nil {
			return err
		}
		return tw.Flush()
	}

	for _, e := range events {
		row := []string{
			e.Annotation.Gene,
			e.Annotation.Region.String(),
			e.Type,
			strconv.FormatInt(e.Size, 10),
			e.Position(),
		}
		for _, n := range e.Reads {
			row = append(row, strconv.FormatInt(n, 10))
		}
		row = append(row, e.Annotation.Transcripts)
		if err := tw.WriteRow(row...); err != nil {
			return err
		}
	}
	return tw.Flush()
}
