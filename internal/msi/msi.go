// Package msi calls microsatellite instability from per-site peak counts
// against a baseline of stable control samples.
package msi

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/tsv"
)

// Calling thresholds.
const (
	MinReadDepth  = 30
	StdMultiplier = 2
)

// Site is one microsatellite locus from a sample's .msi.txt file.
type Site struct {
	Position     string `csv:"Position"`
	AvgReadDepth int    `csv:"Avg_read_depth"`
	NumberPeaks  int    `csv:"Number_Peaks"`
}

// BaselineSite is the peak count distribution of a locus in controls.
type BaselineSite struct {
	Position string  `csv:"Position"`
	Ave      float64 `csv:"Ave"`
	Std      float64 `csv:"Std"`
}

// Threshold is the peak count at or above which a locus is unstable.
func (b BaselineSite) Threshold() float64 {
	return b.Ave + StdMultiplier*b.Std
}

// Call is the status of one locus in one sample.
type Call int

const (
	NotCallable Call = iota
	Stable
	Unstable
)

// String renders the call as written in the count table.
func (c Call) String() string {
	switch c {
	case Stable:
		return "0"
	case Unstable:
		return "1"
	default:
		return "NA"
	}
}

// CallSite calls a sample locus against its baseline. Loci below
// MinReadDepth are not callable.
func CallSite(s Site, b BaselineSite) Call {
	if s.AvgReadDepth < MinReadDepth {
		return NotCallable
	}
	if float64(s.NumberPeaks) >= b.Threshold() {
		return Unstable
	}
	return Stable
}

// ReadSites reads a sample's .msi.txt file.
func ReadSites(path string) ([]Site, error) {
	var sites []Site
	if err := tsv.UnmarshalFile(path, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// Baseline holds the control distribution of every locus.
type Baseline struct {
	sites     map[string]BaselineSite
	positions []string // sorted
}

// NewBaseline indexes sites by position.
func NewBaseline(sites []BaselineSite) *Baseline {
	b := &Baseline{sites: make(map[string]BaselineSite, len(sites))}
	for _, s := range sites {
		if _, dup := b.sites[s.Position]; !dup {
			b.positions = append(b.positions, s.Position)
		}
		b.sites[s.Position] = s
	}
	sort.Strings(b.positions)
	return b
}

// ReadBaseline reads a baseline file with Position, Ave and Std columns.
func ReadBaseline(r io.Reader) (*Baseline, error) {
	var sites []BaselineSite
	if err := tsv.Unmarshal(r, &sites); err != nil {
		return nil, fmt.Errorf("read msi baseline: %w", err)
	}
	return NewBaseline(sites), nil
}

// Site returns the baseline for a position.
func (b *Baseline) Site(position string) (BaselineSite, bool) {
	s, ok := b.sites[position]
	return s, ok
}

// Positions returns the baseline loci in sorted order.
func (b *Baseline) Positions() []string {
	return b.positions
}

// SampleScore is the MSI result of one sample.
type SampleScore struct {
	Name     string
	Calls    map[string]Call // by position
	Passing  int             // callable loci
	Unstable int
}

// Score is the fraction of callable loci that are unstable.
func (s *SampleScore) Score() (float64, bool) {
	if s.Passing == 0 {
		return 0, false
	}
	return float64(s.Unstable) / float64(s.Passing), true
}

// FormatScore renders Score with four decimals, or NA with no callable
// locus.
func (s *SampleScore) FormatScore() string {
	v, ok := s.Score()
	if !ok {
		return "NA"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// ScoreSample calls every sample locus present in the baseline.
func ScoreSample(name string, sites []Site, baseline *Baseline) *SampleScore {
	s := &SampleScore{Name: name, Calls: make(map[string]Call, len(sites))}
	for _, site := range sites {
		b, ok := baseline.Site(site.Position)
		if !ok {
			continue
		}
		c := CallSite(site, b)
		s.Calls[site.Position] = c
		if c == NotCallable {
			continue
		}
		s.Passing++
		if c == Unstable {
			s.Unstable++
		}
	}
	return s
}

// WriteCounts writes the per-locus call table: Position then one column per
// sample. Only loci called in at least one sample are written; a sample
// missing a locus gets NA.
func WriteCounts(w io.Writer, baseline *Baseline, samples []*SampleScore) error {
	columns := []string{"Position"}
	for _, s := range samples {
		columns = append(columns, s.Name)
	}
	tw := output.NewTabWriter(w, columns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}

	for _, pos := range baseline.Positions() {
		row := []string{pos}
		seen := false
		for _, s := range samples {
			c, ok := s.Calls[pos]
			seen = seen || ok
			row = append(row, c.String())
		}
		if !seen {
			continue
		}
		if err := tw.WriteRow(row...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// BuildBaseline computes the mean and population standard deviation of
// the peak count at every locus across control samples. Loci below
// MinReadDepth in a control are left out of that locus's distribution.
func BuildBaseline(controls [][]Site) ([]BaselineSite, error) {
	peaks := make(map[string][]float64)
	for _, sites := range controls {
		for _, s := range sites {
			if s.AvgReadDepth < MinReadDepth {
				continue
			}
			peaks[s.Position] = append(peaks[s.Position], float64(s.NumberPeaks))
		}
	}

	out := make([]BaselineSite, 0, len(peaks))
	for pos, values := range peaks {
		mean, err := stats.Mean(values)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", pos, err)
		}
		std, err := stats.StandardDeviationPopulation(values)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", pos, err)
		}
		out = append(out, BaselineSite{Position: pos, Ave: mean, Std: std})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// WriteBaseline writes Position, Ave and Std columns.
func WriteBaseline(w io.Writer, sites []BaselineSite) error {
	tw := output.NewTabWriter(w, "Position", "Ave", "Std")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, s := range sites {
		if err := tw.WriteRow(
			s.Position,
			strconv.FormatFloat(s.Ave, 'f', -1, 64),
			strconv.FormatFloat(s.Std, 'f', -1, 64),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}
