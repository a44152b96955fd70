package svsummary

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/chrom"
	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/tsv"
)

// MinBreakDancerSize is the largest absolute size dropped from
// BreakDancer reports. Translocations are never dropped by size.
const MinBreakDancerSize = 101

// BreakDancer input columns.
const (
	bdChr1    = 0
	bdPos1    = 1
	bdChr2    = 3
	bdPos2    = 4
	bdType    = 6
	bdSize    = 7
	bdNumRead = 9
)

// BreakDancerColumns is the report layout.
var BreakDancerColumns = []string{"Event_1", "Event_2", "Type", "Size", "Gene_1", "Gene_2", "num_Reads"}

// BreakDancerEvent is one BreakDancer call with the genes at each end.
type BreakDancerEvent struct {
	Chr1, Chr2 string
	Pos1, Pos2 int64
	Type       string
	Size       string // "N/A" for translocations
	NumReads   int64
	Gene1      string
	Gene2      string
}

// Event1 renders the first breakend as chrom:pos.
func (e *BreakDancerEvent) Event1() string {
	return fmt.Sprintf("%s:%d", e.Chr1, e.Pos1)
}

// Event2 renders the second breakend as chrom:pos.
func (e *BreakDancerEvent) Event2() string {
	return fmt.Sprintf("%s:%d", e.Chr2, e.Pos2)
}

// HasGene reports whether either breakend lies in one of genes.
func (e *BreakDancerEvent) HasGene(genes map[string]bool) bool {
	for _, label := range []string{e.Gene1, e.Gene2} {
		for _, g := range strings.Split(label, annotate.LabelSeparator) {
			if genes[g] {
				return true
			}
		}
	}
	return false
}

// ReadBreakDancer parses BreakDancer output, keeping calls on supported
// chromosomes whose absolute size exceeds MinBreakDancerSize, and
// annotates both ends with resolver.
func ReadBreakDancer(r io.Reader, chroms *chrom.Set, resolver *annotate.Resolver) ([]*BreakDancerEvent, error) {
	records, err := tsv.ReadRecords(r)
	if err != nil {
		return nil, err
	}

	var events []*BreakDancerEvent
	for i, rec := range records {
		if len(rec) <= bdNumRead {
			return nil, fmt.Errorf("breakdancer record %d: expected at least %d columns, found %d", i+1, bdNumRead+1, len(rec))
		}
		ints, err := parseInts(rec, bdPos1, bdPos2, bdSize, bdNumRead)
		if err != nil {
			return nil, fmt.Errorf("breakdancer record %d: %w", i+1, err)
		}
		pos1, pos2, size, reads := ints[0], ints[1], ints[2], ints[3]

		if max(size, -size) <= MinBreakDancerSize {
			continue
		}
		if !chroms.Contains(rec[bdChr1]) || !chroms.Contains(rec[bdChr2]) {
			continue
		}

		e := &BreakDancerEvent{
			Chr1:     rec[bdChr1],
			Pos1:     pos1,
			Chr2:     rec[bdChr2],
			Pos2:     pos2,
			Type:     rec[bdType],
			Size:     strconv.FormatInt(size, 10),
			NumReads: reads,
			Gene1:    resolver.GenesAt(rec[bdChr1], pos1),
			Gene2:    resolver.GenesAt(rec[bdChr2], pos2),
		}
		if e.Type == "CTX" {
			e.Size = "N/A"
		}
		events = append(events, e)
	}

	SortBreakDancer(events)
	return events, nil
}

func parseInts(rec []string, cols ...int) ([]int64, error) {
	out := make([]int64, len(cols))
	for i, c := range cols {
		v, err := strconv.ParseInt(strings.TrimSpace(rec[c]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: invalid integer %q", c+1, rec[c])
		}
		out[i] = v
	}
	return out, nil
}

// FilterGenes keeps events touching at least one of genes.
func FilterGenes(events []*BreakDancerEvent, genes []string) []*BreakDancerEvent {
	keep := make(map[string]bool, len(genes))
	for _, g := range genes {
		keep[g] = true
	}
	var out []*BreakDancerEvent
	for _, e := range events {
		if e.HasGene(keep) {
			out = append(out, e)
		}
	}
	return out
}

// SortBreakDancer orders events by read count descending, then Event_1.
func SortBreakDancer(events []*BreakDancerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].NumReads != events[j].NumReads {
			return events[i].NumReads > events[j].NumReads
		}
		return events[i].Event1() < events[j].Event1()
	})
}

// WriteBreakDancer writes the report.
func WriteBreakDancer(w io.Writer, events []*BreakDancerEvent) error {
	tw := output.NewTabWriter(w, BreakDancerColumns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, e := range events {
		if err := tw.WriteRow(
			e.Event1(),
			e.Event2(),
			e.Type,
			e.Size,
			e.Gene1,
			e.Gene2,
			strconv.FormatInt(e.NumReads, 10),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}
