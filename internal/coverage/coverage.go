// Package coverage summarizes how well an assay's capture probes cover the
// reference transcripts.
package coverage

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/munge/internal/cache"
	"github.com/inodb/munge/internal/chrom"
	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/tsv"
)

// Probe is a BED interval, [Start, End).
type Probe struct {
	Chrom string // as written in the BED file
	Start int64
	End   int64
}

// Len returns the number of bases in the probe.
func (p Probe) Len() int64 {
	return p.End - p.Start
}

func (p Probe) String() string {
	return fmt.Sprintf("%s\t%d\t%d", p.Chrom, p.Start, p.End)
}

// ReadProbes reads the first three columns of a BED file. Comment, track
// and browser lines are skipped.
func ReadProbes(r io.Reader) ([]Probe, error) {
	scanner := bufio.NewScanner(r)
	var (
		probes []Probe
		line   int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") ||
			strings.HasPrefix(text, "track") || strings.HasPrefix(text, "browser") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("bed line %d: expected 3 columns, found %d", line, len(fields))
		}
		start, err1 := strconv.ParseInt(fields[1], 10, 64)
		end, err2 := strconv.ParseInt(fields[2], 10, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("bed line %d: invalid coordinates %q-%q", line, fields[1], fields[2])
		}
		if end <= start {
			return nil, fmt.Errorf("bed line %d: empty interval [%d,%d)", line, start, end)
		}
		probes = append(probes, Probe{Chrom: fields[0], Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan bed: %w", err)
	}
	return probes, nil
}

// MergeProbes merges overlapping and book-ended probes on each chromosome.
// The result is ordered by chromosome name then start.
func MergeProbes(probes []Probe) []Probe {
	sorted := append([]Probe(nil), probes...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Chrom != sorted[j].Chrom {
			return sorted[i].Chrom < sorted[j].Chrom
		}
		return sorted[i].Start < sorted[j].Start
	})

	var merged []Probe
	for _, p := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Chrom == p.Chrom && p.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, p.End)
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// PreferredTranscript is one row of the assay's preferred transcript list.
type PreferredTranscript struct {
	Gene   string
	RefSeq string // may carry a version suffix
}

// ReadPreferred reads a two-column Gene, RefSeq list. A header row is
// recognized by its RefSeq column and skipped.
func ReadPreferred(r io.Reader) ([]PreferredTranscript, error) {
	records, err := tsv.ReadRecords(r)
	if err != nil {
		return nil, err
	}
	var out []PreferredTranscript
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("preferred transcripts line %d: expected 2 columns, found %d", i+1, len(rec))
		}
		if strings.EqualFold(rec[1], "refseq") {
			continue
		}
		out = append(out, PreferredTranscript{Gene: rec[0], RefSeq: rec[1]})
	}
	return out, nil
}

// Transcript is the coverage of one transcript.
type Transcript struct {
	Gene          string
	RefSeq        string
	BasesTargeted int64
	Length        int64
	ExonsCovered  int
	TotalExons    int
	Found         bool
}

// Fraction is the share of the transcript span covered, rounded to three
// decimals.
func (t *Transcript) Fraction() float64 {
	if t.Length == 0 {
		return 0
	}
	return math.Round(float64(t.BasesTargeted)/float64(t.Length)*1000) / 1000
}

// Summary is the coverage of an assay.
type Summary struct {
	Transcripts    []*Transcript // one row per gene, ordered by gene
	TotalBases     int64         // bases under merged probes
	CodingBases    int64         // bases targeted inside reported transcripts
	RefSeqsCovered int
	ExonsCovered   int
	Outside        []Probe // merged probes overlapping no transcript
}

type tracker struct {
	t       *cache.Transcript
	bases   int64
	covered []bool
}

func (tr *tracker) insert(start, end int64) {
	tr.bases += min(end, tr.t.End) - max(start, tr.t.Start)
	for i, e := range tr.t.Exons {
		// a probe touches an exon when it begins or ends inside it
		if (e.Start <= start && start < e.End) || (e.Start < end && end <= e.End) {
			tr.covered[i] = true
		}
	}
}

func (tr *tracker) exonsCovered() int {
	n := 0
	for _, c := range tr.covered {
		if c {
			n++
		}
	}
	return n
}

func (tr *tracker) row(gene, refseq string) *Transcript {
	return &Transcript{
		Gene:          gene,
		RefSeq:        refseq,
		BasesTargeted: tr.bases,
		Length:        tr.t.End - tr.t.Start,
		ExonsCovered:  tr.exonsCovered(),
		TotalExons:    len(tr.t.Exons),
		Found:         true,
	}
}

// Summarizer computes assay coverage against a transcript index.
type Summarizer struct {
	index  *cache.Index
	chroms *chrom.Set
	logger *zap.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(index *cache.Index, chroms *chrom.Set) *Summarizer {
	return &Summarizer{index: index, chroms: chroms, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (s *Summarizer) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Summarize merges probes, intersects them with every transcript and builds
// the summary. Preferred transcripts are reported first by gene; other
// transcripts with any coverage are added for genes not already listed.
func (s *Summarizer) Summarize(probes []Probe, preferred []PreferredTranscript) *Summary {
	trackers := make(map[string]*tracker)
	var ids []string
	for _, t := range s.index.All() {
		if _, dup := trackers[t.ID]; dup {
			s.logger.Warn("transcript listed twice in refgene", zap.String("transcript", t.ID))
			continue
		}
		trackers[t.ID] = &tracker{t: t, covered: make([]bool, len(t.Exons))}
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)

	sum := &Summary{}
	for _, p := range MergeProbes(probes) {
		sum.TotalBases += p.Len()
		var hits []*cache.Transcript
		if k, ok := s.chroms.Normalize(p.Chrom); ok {
			hits = s.index.QueryRange(k, p.Start, p.End)
		}
		if len(hits) == 0 {
			sum.Outside = append(sum.Outside, p)
			continue
		}
		for _, t := range hits {
			if tr := trackers[t.ID]; tr.t == t {
				tr.insert(p.Start, p.End)
			}
		}
	}

	rows := make(map[string]*Transcript)
	count := func(r *Transcript) {
		if r.BasesTargeted > 0 {
			sum.RefSeqsCovered++
		}
		sum.CodingBases += r.BasesTargeted
		sum.ExonsCovered += r.ExonsCovered
	}

	for _, pt := range preferred {
		id, _, _ := strings.Cut(pt.RefSeq, ".")
		tr, ok := trackers[id]
		if !ok {
			rows[pt.Gene] = &Transcript{Gene: pt.Gene, RefSeq: pt.RefSeq}
			continue
		}
		r := tr.row(pt.Gene, pt.RefSeq)
		count(r)
		rows[pt.Gene] = r
	}
	for _, id := range ids {
		tr := trackers[id]
		if _, listed := rows[tr.t.GeneName]; listed || tr.bases == 0 {
			continue
		}
		r := tr.row(tr.t.GeneName, id)
		count(r)
		rows[tr.t.GeneName] = r
	}

	for _, r := range rows {
		sum.Transcripts = append(sum.Transcripts, r)
	}
	sort.Slice(sum.Transcripts, func(i, j int) bool {
		return sum.Transcripts[i].Gene < sum.Transcripts[j].Gene
	})
	return sum
}

// PerRefSeqColumns is the per_refseq_summary.txt layout.
var PerRefSeqColumns = []string{
	"gene",
	"refseq",
	"total_bases_targeted",
	"length_of_gene",
	"fraction_of_gene_covered",
	"exons_with_any_coverage",
	"total_exons_in_gene",
}

// WritePerRefSeq writes one row per reported transcript.
func (sum *Summary) WritePerRefSeq(w io.Writer) error {
	tw := output.NewTabWriter(w, PerRefSeqColumns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, t := range sum.Transcripts {
		var err error
		if !t.Found {
			err = tw.WriteRow(t.Gene, t.RefSeq, "RefSeq not found", "NA", "NA", "NA", "NA")
		} else {
			err = tw.WriteRow(
				t.Gene,
				t.RefSeq,
				strconv.FormatInt(t.BasesTargeted, 10),
				strconv.FormatInt(t.Length, 10),
				strconv.FormatFloat(t.Fraction(), 'f', -1, 64),
				strconv.Itoa(t.ExonsCovered),
				strconv.Itoa(t.TotalExons),
			)
		}
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteOverall writes the overall summary text.
func (sum *Summary) WriteOverall(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d unique bases were targeted\n", sum.TotalBases)
	fmt.Fprintf(bw, "%d unique coding bases were targeted\n", sum.CodingBases)
	fmt.Fprintf(bw, "%d unique refseqs had at least one base targeted\n", sum.RefSeqsCovered)
	fmt.Fprintf(bw, "%d total exons had some coverage\n", sum.ExonsCovered)
	if len(sum.Outside) > 0 {
		fmt.Fprintln(bw, "The following probes did not intersect with transcription region of any UCSC gene:")
		for _, p := range sum.Outside {
			fmt.Fprintln(bw, p.String())
		}
	}
	return bw.Flush()
}
