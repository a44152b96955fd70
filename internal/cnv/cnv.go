// Package cnv converts copy number segments from CONTRA and CNVkit into a
// common plottable table annotated with the overlapping gene.
package cnv

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/cache"
	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/tsv"
)

// Package is a CNV caller whose output can be converted.
type Package string

const (
	Contra Package = "contra"
	CNVkit Package = "cnvkit"
)

// Intergenic is the gene written for segments overlapping no transcript.
const Intergenic = "intergenic"

// Columns is the plottable layout.
var Columns = []string{"log2", "chr", "start_pos", "end_pos", "gene", "transcript", "exon"}

// Segment is one copy number segment. Coordinates are kept as written.
type Segment struct {
	Log2       string
	Chrom      string
	Start      string
	End        string
	Gene       string
	Transcript string
	Exon       string
}

// ReadFunc parses a caller's output into segments.
type ReadFunc func(io.Reader) ([]*Segment, error)

// Readers maps each package to its parser.
var Readers = map[Package]ReadFunc{
	Contra: ReadContra,
	CNVkit: ReadCNVkit,
}

// ParsePackage validates a package name.
func ParsePackage(s string) (Package, error) {
	p := Package(strings.ToLower(s))
	if _, ok := Readers[p]; !ok {
		return "", fmt.Errorf("unknown CNV package %q (expected contra or cnvkit)", s)
	}
	return p, nil
}

type contraRow struct {
	LogRatio string `csv:"Adjusted.Mean.of.LogRatio"`
	Chrom    string `csv:"Chr"`
	Start    string `csv:"OriStCoordinate"`
	End      string `csv:"OriEndCoordinate"`
}

// ReadContra parses a CONTRA results table.
func ReadContra(r io.Reader) ([]*Segment, error) {
	var rows []*contraRow
	if err := tsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read contra: %w", err)
	}
	segs := make([]*Segment, 0, len(rows))
	for _, row := range rows {
		segs = append(segs, &Segment{Log2: row.LogRatio, Chrom: row.Chrom, Start: row.Start, End: row.End})
	}
	return segs, nil
}

type cnvkitRow struct {
	Chrom string `csv:"chromosome"`
	Start string `csv:"start"`
	End   string `csv:"end"`
	Gene  string `csv:"gene"`
	Log2  string `csv:"log2"`
}

// ReadCNVkit parses a CNVkit .cnr/.cns table. Antitarget bins are dropped.
func ReadCNVkit(r io.Reader) ([]*Segment, error) {
	var rows []*cnvkitRow
	if err := tsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read cnvkit: %w", err)
	}
	segs := make([]*Segment, 0, len(rows))
	for _, row := range rows {
		if row.Gene == "Antitarget" {
			continue
		}
		segs = append(segs, &Segment{Log2: row.Log2, Chrom: row.Chrom, Start: row.Start, End: row.End})
	}
	return segs, nil
}

// Annotate sets the gene, transcript and first overlapping exon of every
// segment. A segment [start, end] is queried as [start, end+1). When
// several transcripts overlap, the first by gene then id is used.
func Annotate(segs []*Segment, resolver *annotate.Resolver) error {
	for _, s := range segs {
		start, err := strconv.ParseInt(s.Start, 10, 64)
		if err != nil {
			return fmt.Errorf("segment %s:%s-%s: invalid start", s.Chrom, s.Start, s.End)
		}
		end, err := strconv.ParseInt(s.End, 10, 64)
		if err != nil {
			return fmt.Errorf("segment %s:%s-%s: invalid end", s.Chrom, s.Start, s.End)
		}
		end++

		txs := resolver.TranscriptsIn(s.Chrom, start, end)
		if len(txs) == 0 {
			s.Gene = Intergenic
			continue
		}
		t := firstTranscript(txs)
		s.Gene = t.GeneName
		s.Transcript = t.ID
		if exons := t.ExonsOverlapping(start, end); len(exons) > 0 {
			s.Exon = strconv.Itoa(exons[0])
		}
	}
	return nil
}

func firstTranscript(txs []*cache.Transcript) *cache.Transcript {
	sorted := append([]*cache.Transcript(nil), txs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].GeneName != sorted[j].GeneName {
			return sorted[i].GeneName < sorted[j].GeneName
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}

// Write writes the plottable table.
func Write(w io.Writer, segs []*Segment) error {
	tw := output.NewTabWriter(w, Columns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, s := range segs {
		if err := tw.WriteRow(s.Log2, s.Chrom, s.Start, s.End, s.Gene, s.Transcript, s.Exon); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// OutputPath returns <dir>/<prefix>.<package>.CNV_plottable.tsv for an input
// file, where prefix is the file name up to its first '.'.
func OutputPath(input string, pkg Package) string {
	prefix, _, _ := strings.Cut(filepath.Base(input), ".")
	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s.%s.CNV_plottable.tsv", prefix, pkg))
}
