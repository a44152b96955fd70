package cache

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/munge/internal/chrom"
)

// refGene table columns (BED12-like, 0-based half-open).
const (
	colChrom = iota
	colChromStart
	colChromEnd
	colName
	colRefSeq
	colScore
	colStrand
	colThickStart
	colThickEnd
	colItemRgb
	colExonCount
	colExonSizes
	colExonStarts
	numRefGeneColumns
)

// LoadError reports a malformed refGene row. A LoadError aborts the load.
type LoadError struct {
	Path         string
	Line         int
	TranscriptID string
	Reason       string
}

func (e *LoadError) Error() string {
	id := e.TranscriptID
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("refgene %s line %d (%s): %s", e.Path, e.Line, id, e.Reason)
}

// RefGeneLoader loads transcripts from a refGene table.
// The table is expected to be filtered to preferred transcripts; every row
// becomes one Transcript, duplicates included.
type RefGeneLoader struct {
	path   string
	chroms *chrom.Set
	logger *zap.Logger
}

// NewRefGeneLoader creates a loader for the given path. Rows on chromosomes
// outside chroms are skipped.
func NewRefGeneLoader(path string, chroms *chrom.Set) *RefGeneLoader {
	return &RefGeneLoader{
		path:   path,
		chroms: chroms,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for skipped-row messages.
func (l *RefGeneLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// LoadRefGene loads every supported transcript from path.
func LoadRefGene(path string, chroms *chrom.Set) ([]*Transcript, error) {
	return NewRefGeneLoader(path, chroms).Load()
}

// Load reads the refGene file. Plain and gzipped files are accepted.
func (l *RefGeneLoader) Load() ([]*Transcript, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open refgene file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var reader io.Reader = br

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.Parse(reader)
}

// Parse reads refGene rows from r.
func (l *RefGeneLoader) Parse(r io.Reader) ([]*Transcript, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	var (
		transcripts []*Transcript
		skipped     int
		lineNum     int
	)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		id := ""
		if len(fields) > colRefSeq {
			id = fields[colRefSeq]
		}
		t, reason := parseRefGeneRow(fields, l.chroms)
		if reason != "" {
			return nil, &LoadError{Path: l.path, Line: lineNum, TranscriptID: id, Reason: reason}
		}
		if t == nil {
			skipped++
			l.logger.Debug("skipping transcript on unsupported chromosome",
				zap.String("chrom", fields[colChrom]),
				zap.String("transcript", id))
			continue
		}
		transcripts = append(transcripts, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan refgene: %w", err)
	}

	l.logger.Debug("loaded refgene",
		zap.String("path", l.path),
		zap.Int("transcripts", len(transcripts)),
		zap.Int("skipped", skipped))

	return transcripts, nil
}

// parseRefGeneRow builds a transcript from one row. It returns a nil
// transcript and no reason for rows on unsupported chromosomes, whatever
// their shape, and a non-empty reason for malformed rows.
func parseRefGeneRow(fields []string, chroms *chrom.Set) (*Transcript, string) {
	key, ok := chroms.Normalize(fields[colChrom])
	if !ok {
		return nil, ""
	}
	if len(fields) < numRefGeneColumns {
		return nil, fmt.Sprintf("expected %d columns, found %d", numRefGeneColumns, len(fields))
	}

	var ints [5]int64
	for i, col := range []int{colChromStart, colChromEnd, colThickStart, colThickEnd, colExonCount} {
		v, err := strconv.ParseInt(strings.TrimSpace(fields[col]), 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("invalid integer %q in column %d", fields[col], col+1)
		}
		ints[i] = v
	}
	start, end, thickStart, thickEnd, exonCount := ints[0], ints[1], ints[2], ints[3], ints[4]

	t := &Transcript{
		ID:       fields[colRefSeq],
		GeneName: fields[colName],
		Chrom:    key,
		Start:    start,
		End:      end,
		CDSStart: thickStart,
		CDSEnd:   thickEnd,
	}

	switch fields[colStrand] {
	case "+":
		t.Strand = 1
	case "-":
		t.Strand = -1
	default:
		return nil, fmt.Sprintf("invalid strand %q", fields[colStrand])
	}

	if start < 0 || start >= end {
		return nil, fmt.Sprintf("transcript span [%d,%d) is empty", start, end)
	}
	if thickStart > thickEnd || thickStart < start || thickEnd > end {
		return nil, fmt.Sprintf("CDS [%d,%d) lies outside transcript span [%d,%d)", thickStart, thickEnd, start, end)
	}

	sizes, err := parseIntList(fields[colExonSizes])
	if err != nil {
		return nil, fmt.Sprintf("invalid exon sizes: %v", err)
	}
	offsets, err := parseIntList(fields[colExonStarts])
	if err != nil {
		return nil, fmt.Sprintf("invalid exon starts: %v", err)
	}
	if exonCount < 1 {
		return nil, fmt.Sprintf("exon count %d is not positive", exonCount)
	}
	if int64(len(sizes)) != exonCount || int64(len(offsets)) != exonCount {
		return nil, fmt.Sprintf("exon count %d does not match %d sizes and %d starts", exonCount, len(sizes), len(offsets))
	}

	t.Exons = make([]Exon, exonCount)
	for i := range t.Exons {
		e := Exon{Start: start + offsets[i], End: start + offsets[i] + sizes[i]}
		if e.Start >= e.End {
			return nil, fmt.Sprintf("exon %d [%d,%d) has start >= end", i+1, e.Start, e.End)
		}
		if e.Start < start || e.End > end {
			return nil, fmt.Sprintf("exon %d [%d,%d) lies outside transcript span [%d,%d)", i+1, e.Start, e.End, start, end)
		}
		if i > 0 && e.Start < t.Exons[i-1].End {
			prev := t.Exons[i-1]
			return nil, fmt.Sprintf("exon %d [%d,%d) overlaps or precedes exon %d [%d,%d)", i+1, e.Start, e.End, i, prev.Start, prev.End)
		}
		t.Exons[i] = e
	}
	t.numberExons()

	return t, ""
}

// parseIntList parses a comma-separated list; a trailing comma is allowed.
func parseIntList(s string) ([]int64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ",")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
