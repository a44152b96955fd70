// Package cache holds the reference gene model: transcripts loaded from a
// refGene table and the per-chromosome interval index over their spans.
//
// All coordinates are 0-based and half-open: a feature covers [Start, End).
package cache

import (
	"sort"

	"github.com/inodb/munge/internal/chrom"
)

// Transcript represents one reference transcript record.
type Transcript struct {
	ID       string    // Transcript accession (e.g., NM_004333)
	GeneName string    // Gene symbol (e.g., BRAF)
	Chrom    chrom.Key // Normalized chromosome
	Start    int64     // Transcript start (0-based, inclusive)
	End      int64     // Transcript end (exclusive)
	Strand   int8      // +1 or -1
	Exons    []Exon    // Exons in ascending genomic order
	CDSStart int64     // Thick start (0-based, inclusive)
	CDSEnd   int64     // Thick end (exclusive); equal to CDSStart if non-coding
}

// Exon represents a single exon within a transcript.
type Exon struct {
	Number int   // Exon number (1-based, transcript orientation)
	Start  int64 // Genomic start (0-based, inclusive)
	End    int64 // Genomic end (exclusive)
}

// IsCoding returns true if the transcript has a non-empty coding region.
func (t *Transcript) IsCoding() bool {
	return t.CDSEnd > t.CDSStart
}

// IsForwardStrand returns true if the transcript is on the forward strand.
func (t *Transcript) IsForwardStrand() bool {
	return t.Strand == 1
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (t *Transcript) IsReverseStrand() bool {
	return t.Strand == -1
}

// Contains returns true if pos lies within [Start, End).
func (t *Transcript) Contains(pos int64) bool {
	return pos >= t.Start && pos < t.End
}

// Overlaps returns true if the transcript span overlaps [start, end).
func (t *Transcript) Overlaps(start, end int64) bool {
	return start < end && start < t.End && t.Start < end
}

// InCDS returns true if pos lies within the coding region.
func (t *Transcript) InCDS(pos int64) bool {
	return pos >= t.CDSStart && pos < t.CDSEnd
}

func (t *Transcript) cdsOverlaps(start, end int64) bool {
	return t.IsCoding() && start < t.CDSEnd && t.CDSStart < end
}

// ExonIndex returns the number of the exon containing pos.
func (t *Transcript) ExonIndex(pos int64) (int, bool) {
	i := sort.Search(len(t.Exons), func(i int) bool { return t.Exons[i].End > pos })
	if i < len(t.Exons) && t.Exons[i].Start <= pos {
		return t.Exons[i].Number, true
	}
	return 0, false
}

// IntronIndex returns the number of the intron containing pos. Intron N lies
// between exons N and N+1 in transcript orientation.
func (t *Transcript) IntronIndex(pos int64) (int, bool) {
	if !t.Contains(pos) {
		return 0, false
	}
	i := sort.Search(len(t.Exons), func(i int) bool { return t.Exons[i].End > pos })
	if i == 0 || i >= len(t.Exons) || t.Exons[i].Start <= pos {
		return 0, false
	}
	return min(t.Exons[i-1].Number, t.Exons[i].Number), true
}

// ExonsOverlapping returns the numbers of all exons overlapping [start, end),
// in genomic order.
func (t *Transcript) ExonsOverlapping(start, end int64) []int {
	var numbers []int
	i := sort.Search(len(t.Exons), func(i int) bool { return t.Exons[i].End > start })
	for ; i < len(t.Exons) && t.Exons[i].Start < end; i++ {
		numbers = append(numbers, t.Exons[i].Number)
	}
	return numbers
}

// ClassifyRegion returns the regions of this transcript touched by
// [start, end). An exon overlap is EXONIC, or UTR when reportUTR is set and
// the overlapped part of the exon misses the coding region. A range inside the
// span that touches no exon is INTRONIC. A range outside the span yields an
// empty set.
func (t *Transcript) ClassifyRegion(start, end int64, reportUTR bool) RegionSet {
	var set RegionSet
	if !t.Overlaps(start, end) {
		return set
	}

	i := sort.Search(len(t.Exons), func(i int) bool { return t.Exons[i].End > start })
	for ; i < len(t.Exons) && t.Exons[i].Start < end; i++ {
		e := t.Exons[i]
		s, en := max(start, e.Start), min(end, e.End)
		if !reportUTR || t.cdsOverlaps(s, en) {
			set = set.Add(RegionExonic)
		} else {
			set = set.Add(RegionUTR)
		}
	}

	if set.Empty() {
		set = set.Add(RegionIntronic)
	}
	return set
}

// numberExons assigns exon numbers in transcript orientation.
func (t *Transcript) numberExons() {
	n := len(t.Exons)
	for i := range t.Exons {
		if t.IsReverseStrand() {
			t.Exons[i].Number = n - i
		} else {
			t.Exons[i].Number = i + 1
		}
	}
}
