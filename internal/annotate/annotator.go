package annotate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/munge/internal/cache"
	"github.com/inodb/munge/internal/chrom"
)

// BreakendEndOffset is added to a structural variant's reported END so that
// both breakends name the unaffected base closest to the event. Insertions
// then have consecutive breakends; a deletion of size N has breakends N+1
// apart.
const BreakendEndOffset = 1

// NormalizeBreakends returns the half-open breakend pair for an event
// reported at pos with INFO END svEnd.
func NormalizeBreakends(pos, svEnd int64) (start, end int64) {
	return pos, svEnd + BreakendEndOffset
}

// TranscriptLookup finds transcripts overlapping a point or a range.
type TranscriptLookup interface {
	QueryPoint(c chrom.Key, pos int64) []*cache.Transcript
	QueryRange(c chrom.Key, start, end int64) []*cache.Transcript
}

// Resolver annotates coordinates against a transcript index. It holds no
// mutable state after configuration and may be shared by goroutines.
type Resolver struct {
	index     TranscriptLookup
	chroms    *chrom.Set
	reportUTR bool
	logger    *zap.Logger
}

// NewResolver creates a resolver over index. Chromosome names are
// normalized through chroms.
func NewResolver(index TranscriptLookup, chroms *chrom.Set) *Resolver {
	return &Resolver{
		index:  index,
		chroms: chroms,
		logger: zap.NewNop(),
	}
}

// SetReportUTR configures whether exon hits outside the coding region are
// reported as UTR rather than EXONIC.
func (r *Resolver) SetReportUTR(report bool) {
	r.reportUTR = report
}

// SetLogger sets the logger for debug messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// ReportUTR returns the UTR reporting mode.
func (r *Resolver) ReportUTR() bool {
	return r.reportUTR
}

func (r *Resolver) key(name string) (chrom.Key, bool) {
	k, ok := r.chroms.Normalize(name)
	if !ok {
		r.logger.Debug("unsupported chromosome", zap.String("chrom", name))
	}
	return k, ok
}

// AnnotatePoint annotates a single position.
func (r *Resolver) AnnotatePoint(chromName string, pos int64) Result {
	k, ok := r.key(chromName)
	if !ok {
		return Result{}
	}
	txs := r.index.QueryPoint(k, pos)
	return Result{
		Gene:        GeneLabel(txs),
		Transcripts: TranscriptLabel(txs, pos, r.reportUTR),
		Region:      RegionLabel(txs, pos, pos+1, r.reportUTR),
	}
}

// AnnotatePair annotates a breakpoint pair. Genes and transcripts come from
// the transcripts found at either breakend; the region is computed over
// every transcript spanning [start, end). Reversed breakends are swapped,
// and an empty range covers the single base at start for the region only.
func (r *Resolver) AnnotatePair(chromName string, start, end int64) Result {
	k, ok := r.key(chromName)
	if !ok {
		return Result{}
	}
	if end < start {
		start, end = end, start
	}

	atStart := r.index.QueryPoint(k, start)
	var atEnd []*cache.Transcript
	if end != start {
		atEnd = r.index.QueryPoint(k, end)
	}
	breakends := append(append(make([]*cache.Transcript, 0, len(atStart)+len(atEnd)), atStart...), atEnd...)

	descs := make([]string, 0, len(breakends))
	for _, t := range atStart {
		descs = append(descs, TranscriptDescriptor(t, start, r.reportUTR))
	}
	for _, t := range atEnd {
		descs = append(descs, TranscriptDescriptor(t, end, r.reportUTR))
	}

	regionEnd := end
	if regionEnd == start {
		regionEnd = start + 1
	}
	spanning := r.index.QueryRange(k, start, regionEnd)
	return Result{
		Gene:        GeneLabel(breakends),
		Transcripts: joinSorted(descs),
		Region:      RegionLabel(spanning, start, regionEnd, r.reportUTR),
	}
}

// AnnotateRange annotates every transcript overlapping [start, end). The
// transcript descriptors carry the exons touched by the range.
func (r *Resolver) AnnotateRange(chromName string, start, end int64) Result {
	k, ok := r.key(chromName)
	if !ok || end <= start {
		return Result{}
	}
	txs := r.index.QueryRange(k, start, end)
	descs := make([]string, 0, len(txs))
	for _, t := range txs {
		descs = append(descs, rangeDescriptor(t, start, end))
	}
	return Result{
		Gene:        GeneLabel(txs),
		Transcripts: joinSorted(descs),
		Region:      RegionLabel(txs, start, end, r.reportUTR),
	}
}

// GenesAt returns the gene label at a single position.
func (r *Resolver) GenesAt(chromName string, pos int64) string {
	k, ok := r.key(chromName)
	if !ok {
		return ""
	}
	return GeneLabel(r.index.QueryPoint(k, pos))
}

// TranscriptsIn returns the transcripts overlapping [start, end) on a
// supported chromosome.
func (r *Resolver) TranscriptsIn(chromName string, start, end int64) []*cache.Transcript {
	k, ok := r.key(chromName)
	if !ok {
		return nil
	}
	return r.index.QueryRange(k, start, end)
}

func rangeDescriptor(t *cache.Transcript, start, end int64) string {
	exons := t.ExonsOverlapping(start, end)
	switch len(exons) {
	case 0:
		return t.ID
	case 1:
		return fmt.Sprintf("%s:exon%d", t.ID, exons[0])
	}
	lo, hi := exons[0], exons[len(exons)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%s:exon%d-%d", t.ID, lo, hi)
}
