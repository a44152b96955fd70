package monoseq

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteXML = `<?xml version="1.0"?>
<MonoSeq>
  <Site>
    <Chrom>chr4</Chrom>
    <Base>T</Base>
    <Start>55598211</Start>
  </Site>
</MonoSeq>
`

const profileTxt = "Coverage MaxLength Frequencies\n" +
	"512 12 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.02 0.9 0.08 0.0\n"

func TestReadSite(t *testing.T) {
	s, err := ReadSite(strings.NewReader(siteXML), "BAT25")
	require.NoError(t, err)
	assert.Equal(t, Site{Name: "BAT25", Base: "T"}, s)

	_, err = ReadSite(strings.NewReader("<MonoSeq><Site><Chrom>4</Chrom></Site></MonoSeq>"), "x")
	assert.ErrorContains(t, err, "no homopolymer element")

	_, err = ReadSite(strings.NewReader("<MonoSeq><Site>"), "x")
	assert.ErrorContains(t, err, "decode site xml")
}

func TestReadSiteFile_NameFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BAT26.xml")
	require.NoError(t, os.WriteFile(path, []byte(siteXML), 0644))

	s, err := ReadSiteFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BAT26", s.Name)
}

func TestReadProfile(t *testing.T) {
	p, err := ReadProfile(strings.NewReader(profileTxt))
	require.NoError(t, err)
	assert.Equal(t, "512", p.Coverage)
	require.Len(t, p.Freqs, 13, "lengths 0 through 12")
	assert.Equal(t, "0.9", p.Freqs[10])
}

func TestReadProfile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"one line", "header\n", "expected at least 2"},
		{"no run length", "header\n512\n", "expected coverage and run length"},
		{"bad run length", "header\n512 x 0.1\n", `invalid run length "x"`},
		{"short profile", "header\n512 3 0.1 0.2\n", "2 frequencies for lengths 0-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadProfile(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWrite(t *testing.T) {
	p, err := ReadProfile(strings.NewReader(profileTxt))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, Site{Name: "BAT25", Base: "T"}))
	assert.Equal(t, "COVERAGE\t9T-BAT25\t11T-BAT25\t10T-BAT25\n"+
		"512\t0.02\t0.08\t0.9\n", buf.String())
}

func TestRow_BadFrequency(t *testing.T) {
	p := &Profile{Coverage: "10", Freqs: []string{"0.1", "n/a"}}
	_, err := p.Row(Site{Name: "s", Base: "A"})
	assert.ErrorContains(t, err, `invalid frequency "n/a" for length 1`)
}
