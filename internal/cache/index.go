package cache

import (
	"fmt"
	"sort"

	"github.com/inodb/munge/internal/chrom"
)

// Index holds one interval tree per chromosome. It is read-only once
// BuildIndex returns and may be queried from multiple goroutines.
type Index struct {
	trees map[chrom.Key]*IntervalTree
	count int
}

// BuildIndex groups transcripts by chromosome and builds a tree for each.
func BuildIndex(transcripts []*Transcript) (*Index, error) {
	byChrom := make(map[chrom.Key][]*Transcript)
	for _, t := range transcripts {
		byChrom[t.Chrom] = append(byChrom[t.Chrom], t)
	}

	idx := &Index{trees: make(map[chrom.Key]*IntervalTree, len(byChrom))}
	for c, txs := range byChrom {
		tree, err := BuildIntervalTree(txs)
		if err != nil {
			return nil, fmt.Errorf("build interval tree for chromosome %s: %w", c, err)
		}
		idx.trees[c] = tree
		idx.count += len(txs)
	}
	return idx, nil
}

// QueryPoint returns all transcripts on c whose span contains pos.
// An unknown chromosome yields no transcripts.
func (x *Index) QueryPoint(c chrom.Key, pos int64) []*Transcript {
	tree, ok := x.trees[c]
	if !ok {
		return nil
	}
	return tree.QueryPoint(pos)
}

// QueryRange returns all transcripts on c whose span overlaps [start, end).
func (x *Index) QueryRange(c chrom.Key, start, end int64) []*Transcript {
	tree, ok := x.trees[c]
	if !ok {
		return nil
	}
	return tree.QueryRange(start, end)
}

// TranscriptCount returns the total number of indexed transcripts.
func (x *Index) TranscriptCount() int {
	return x.count
}

// Chromosomes returns the indexed chromosomes in karyotype order.
func (x *Index) Chromosomes() []chrom.Key {
	keys := make([]chrom.Key, 0, len(x.trees))
	for k := range x.trees {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return chrom.Less(keys[i], keys[j]) })
	return keys
}

// Transcripts returns all transcripts for a chromosome, ordered by start.
func (x *Index) Transcripts(c chrom.Key) []*Transcript {
	tree, ok := x.trees[c]
	if !ok {
		return nil
	}
	return tree.Transcripts()
}

// All returns every indexed transcript, chromosome by chromosome.
func (x *Index) All() []*Transcript {
	all := make([]*Transcript, 0, x.count)
	for _, c := range x.Chromosomes() {
		all = append(all, x.trees[c].Transcripts()...)
	}
	return all
}
