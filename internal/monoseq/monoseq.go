// Package monoseq reshapes MonoSeq homopolymer length profiles into a
// one-row table keyed by length, base and site.
package monoseq

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/munge/internal/output"
)

// CoverageColumn holds the site depth in the output row.
const CoverageColumn = "COVERAGE"

// node is a generic XML element. The site files are addressed by position,
// not by tag name.
type node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

// Site describes the homopolymer MonoSeq was run against.
type Site struct {
	Name string // site file name without extension
	Base string // repeated base, e.g. "T"
}

// ReadSite reads a site description. The repeated base is the first
// character of the second child of the root's first element.
func ReadSite(r io.Reader, name string) (Site, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return Site{}, fmt.Errorf("decode site xml: %w", err)
	}
	if len(root.Nodes) == 0 || len(root.Nodes[0].Nodes) < 2 {
		return Site{}, fmt.Errorf("site xml: no homopolymer element under <%s>", root.XMLName.Local)
	}
	text := strings.TrimSpace(root.Nodes[0].Nodes[1].Text)
	if text == "" {
		return Site{}, fmt.Errorf("site xml: empty homopolymer element <%s>", root.Nodes[0].Nodes[1].XMLName.Local)
	}
	return Site{Name: name, Base: text[:1]}, nil
}

// ReadSiteFile reads the site file at path, naming the site after the file.
func ReadSiteFile(path string) (Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return Site{}, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := ReadSite(f, name)
	if err != nil {
		return Site{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Profile is the length distribution MonoSeq reports for a site.
type Profile struct {
	Coverage string
	// Freqs[i] is the frequency of a run of length i. Length 0 is included.
	Freqs []string
}

// ReadProfile reads MonoSeq output. The second line holds the coverage,
// the longest run length and then one frequency per length from 0 up to
// that length, space separated.
func ReadProfile(r io.Reader) (*Profile, error) {
	scanner := bufio.NewScanner(r)
	var line string
	for n := 0; n < 2; n++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read monoseq output: %w", err)
			}
			return nil, fmt.Errorf("monoseq output has %d lines, expected at least 2", n)
		}
		line = scanner.Text()
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("monoseq profile %q: expected coverage and run length", line)
	}
	maxLen, err := strconv.Atoi(fields[1])
	if err != nil || maxLen < 0 {
		return nil, fmt.Errorf("monoseq profile: invalid run length %q", fields[1])
	}
	n := maxLen + 1
	if len(fields)-2 < n {
		return nil, fmt.Errorf("monoseq profile: %d frequencies for lengths 0-%d", len(fields)-2, maxLen)
	}
	return &Profile{Coverage: fields[0], Freqs: fields[len(fields)-n:]}, nil
}

// ReadProfileFile reads the MonoSeq output at path.
func ReadProfileFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadProfile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Row flattens a profile into COVERAGE plus one <length><base>-<site>
// column per length observed with a positive frequency.
func (p *Profile) Row(site Site) (map[string]string, error) {
	row := map[string]string{CoverageColumn: p.Coverage}
	for i, freq := range p.Freqs {
		v, err := strconv.ParseFloat(freq, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency %q for length %d", freq, i)
		}
		if v > 0 {
			row[fmt.Sprintf("%d%s-%s", i, site.Base, site.Name)] = freq
		}
	}
	return row, nil
}

// Columns orders row keys in reverse lexical order, which puts COVERAGE
// first.
func Columns(row map[string]string) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(cols)))
	return cols
}

// Write writes the profile as a header and a single row.
func Write(w io.Writer, p *Profile, site Site) error {
	row, err := p.Row(site)
	if err != nil {
		return err
	}
	tw := output.NewTabWriter(w, Columns(row)...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	if err := tw.WriteMap(row); err != nil {
		return err
	}
	return tw.Flush()
}
