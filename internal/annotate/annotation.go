// Package annotate turns interval index hits into gene, transcript and
// region labels for single breakpoints, breakpoint pairs and ranges.
package annotate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/munge/internal/cache"
)

// LabelSeparator joins gene symbols and transcript descriptors.
const LabelSeparator = ";"

// Result is the annotation of one query.
type Result struct {
	Gene        string       // Sorted, de-duplicated gene symbols
	Transcripts string       // Sorted, de-duplicated transcript descriptors
	Region      cache.Region // Highest precedence region over the query
}

// Intergenic reports whether no transcript was found.
func (r Result) Intergenic() bool {
	return r.Gene == "" && r.Transcripts == ""
}

// GeneLabel returns the distinct gene symbols of transcripts, sorted and
// joined. Empty input yields an empty string.
func GeneLabel(transcripts []*cache.Transcript) string {
	genes := make([]string, 0, len(transcripts))
	for _, t := range transcripts {
		genes = append(genes, t.GeneName)
	}
	return joinSorted(genes)
}

// TranscriptLabel describes each transcript at pos and returns the distinct
// descriptors sorted and joined.
func TranscriptLabel(transcripts []*cache.Transcript, pos int64, reportUTR bool) string {
	descs := make([]string, 0, len(transcripts))
	for _, t := range transcripts {
		descs = append(descs, TranscriptDescriptor(t, pos, reportUTR))
	}
	return joinSorted(descs)
}

// TranscriptDescriptor qualifies a transcript id with the exon or intron
// containing pos, e.g. NM_004333:exon15, NM_004333:exon1:UTR or
// NM_004333:intron3. Positions outside the transcript get the bare id.
func TranscriptDescriptor(t *cache.Transcript, pos int64, reportUTR bool) string {
	if n, ok := t.ExonIndex(pos); ok {
		if reportUTR && !t.InCDS(pos) {
			return fmt.Sprintf("%s:exon%d:UTR", t.ID, n)
		}
		return fmt.Sprintf("%s:exon%d", t.ID, n)
	}
	if n, ok := t.IntronIndex(pos); ok {
		return fmt.Sprintf("%s:intron%d", t.ID, n)
	}
	return t.ID
}

// RegionLabel unions the regions every transcript assigns to [start, end)
// and returns the one with the highest precedence.
func RegionLabel(transcripts []*cache.Transcript, start, end int64, reportUTR bool) cache.Region {
	var set cache.RegionSet
	for _, t := range transcripts {
		set = set.Union(t.ClassifyRegion(start, end, reportUTR))
	}
	return set.Highest()
}

func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sort.Strings(values)
	uniq := values[:1]
	for _, v := range values[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	return strings.Join(uniq, LabelSeparator)
}
