package cache

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
)

// IntervalTree provides O(log n + k) overlap queries over transcript spans.
// Transcripts are loaded once and never modified after build.
type IntervalTree struct {
	tree        interval.IntTree
	transcripts []*Transcript // in start order
}

// span adapts a transcript to the interval.IntInterface.
type span struct {
	t  *Transcript
	id uintptr
}

func (s span) ID() uintptr { return s.id }

func (s span) Range() interval.IntRange {
	return interval.IntRange{Start: int(s.t.Start), End: int(s.t.End)}
}

// Overlap uses half-open interval indexing.
func (s span) Overlap(b interval.IntRange) bool {
	return s.t.End > int64(b.Start) && s.t.Start < int64(b.End)
}

// query is a half-open [start, end) probe against the tree.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return b.End > q.start && b.Start < q.end
}

// BuildIntervalTree creates an interval tree from a slice of transcripts.
func BuildIntervalTree(transcripts []*Transcript) (*IntervalTree, error) {
	t := &IntervalTree{transcripts: make([]*Transcript, len(transcripts))}
	copy(t.transcripts, transcripts)
	sort.SliceStable(t.transcripts, func(i, j int) bool {
		return t.transcripts[i].Start < t.transcripts[j].Start
	})

	for i, tx := range t.transcripts {
		if tx.End <= tx.Start {
			return nil, fmt.Errorf("transcript %s has empty span [%d,%d)", tx.ID, tx.Start, tx.End)
		}
		if err := t.tree.Insert(span{t: tx, id: uintptr(i + 1)}, true); err != nil {
			return nil, fmt.Errorf("insert transcript %s: %w", tx.ID, err)
		}
	}
	t.tree.AdjustRanges()

	return t, nil
}

// QueryPoint returns all transcripts whose [Start, End) span contains pos.
func (t *IntervalTree) QueryPoint(pos int64) []*Transcript {
	return t.QueryRange(pos, pos+1)
}

// QueryRange returns all transcripts whose span overlaps [start, end).
// An empty range matches nothing.
func (t *IntervalTree) QueryRange(start, end int64) []*Transcript {
	if end <= start || t.tree.Len() == 0 {
		return nil
	}

	hits := t.tree.Get(query{start: int(start), end: int(end)})
	if len(hits) == 0 {
		return nil
	}
	result := make([]*Transcript, len(hits))
	for i, h := range hits {
		result[i] = h.(span).t
	}
	return result
}

// Len returns the number of transcripts in the tree.
func (t *IntervalTree) Len() int {
	return len(t.transcripts)
}

// Transcripts returns the indexed transcripts ordered by start.
func (t *IntervalTree) Transcripts() []*Transcript {
	return t.transcripts
}
