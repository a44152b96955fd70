package cnv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/cache"
	"github.com/inodb/munge/internal/chrom"
)

// EGFR on 7 [1000,5000) with exons [1000,1100), [2000,2100), [4900,5000);
// a second EGFR transcript and an unrelated gene overlap it.
const testRefGene = "chr7\t1000\t5000\tEGFR\tNM_005228\t0\t+\t1050\t4950\t0\t3\t100,100,100,\t0,1000,3900,\n" +
	"chr7\t1900\t3000\tEGFR\tNM_201283\t0\t+\t1900\t3000\t0\t1\t1100,\t0,\n" +
	"chr7\t2500\t2600\tEGFR-AS1\tNR_047551\t0\t-\t2600\t2600\t0\t1\t100,\t0,\n"

func newResolver(t *testing.T) *annotate.Resolver {
	t.Helper()
	txs, err := cache.NewRefGeneLoader("refgene", chrom.Default()).Parse(strings.NewReader(testRefGene))
	require.NoError(t, err)
	idx, err := cache.BuildIndex(txs)
	require.NoError(t, err)
	return annotate.NewResolver(idx, chrom.Default())
}

func TestReadContra(t *testing.T) {
	in := "Targeted.Region.ID\tExon.Number\tChr\tOriStCoordinate\tOriEndCoordinate\tMean.of.LogRatio\tAdjusted.Mean.of.LogRatio\n" +
		"1\t1\tchr7\t1010\t1090\t0.4\t0.52\n"
	segs, err := Readers[Contra](strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Log2: "0.52", Chrom: "chr7", Start: "1010", End: "1090"}, *segs[0])
}

func TestReadCNVkit(t *testing.T) {
	in := "chromosome\tstart\tend\tgene\tdepth\tlog2\tweight\n" +
		"7\t1000\t1100\tEGFR\t250\t1.25\t0.9\n" +
		"7\t1200\t1800\tAntitarget\t3\t-0.1\t0.1\n" +
		"7\t6000\t6100\t-\t100\t0.0\t0.8\n"
	segs, err := Readers[CNVkit](strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "1.25", segs[0].Log2)
	assert.Equal(t, "6000", segs[1].Start)
}

func TestParsePackage(t *testing.T) {
	p, err := ParsePackage("CNVkit")
	require.NoError(t, err)
	assert.Equal(t, CNVkit, p)

	_, err = ParsePackage("exomedepth")
	assert.EqualError(t, err, `unknown CNV package "exomedepth" (expected contra or cnvkit)`)
}

func TestAnnotate(t *testing.T) {
	segs := []*Segment{
		{Log2: "1.2", Chrom: "7", Start: "1010", End: "1090"},
		{Log2: "0.8", Chrom: "chr7", Start: "2050", End: "2550"},
		{Log2: "0.1", Chrom: "7", Start: "1500", End: "1600"},
		{Log2: "0.0", Chrom: "7", Start: "6000", End: "6100"},
		{Log2: "0.0", Chrom: "GL000192.1", Start: "1", End: "10"},
		{Log2: "0.3", Chrom: "7", Start: "900", End: "1000"},
	}
	require.NoError(t, Annotate(segs, newResolver(t)))

	assert.Equal(t, Segment{Log2: "1.2", Chrom: "7", Start: "1010", End: "1090", Gene: "EGFR", Transcript: "NM_005228", Exon: "1"}, *segs[0])
	assert.Equal(t, "EGFR", segs[1].Gene, "sorted by gene then id")
	assert.Equal(t, "NM_005228", segs[1].Transcript)
	assert.Equal(t, "2", segs[1].Exon)
	assert.Equal(t, "", segs[2].Exon, "intronic segment")
	assert.Equal(t, Intergenic, segs[3].Gene)
	assert.Equal(t, Intergenic, segs[4].Gene)
	assert.Equal(t, "EGFR", segs[5].Gene, "end is inclusive")
	assert.Equal(t, "1", segs[5].Exon)
}

func TestAnnotate_BadCoordinate(t *testing.T) {
	err := Annotate([]*Segment{{Chrom: "7", Start: "NA", End: "10"}}, newResolver(t))
	assert.EqualError(t, err, "segment 7:NA-10: invalid start")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []*Segment{
		{Log2: "1.2", Chrom: "7", Start: "1010", End: "1090", Gene: "EGFR", Transcript: "NM_005228", Exon: "1"},
		{Log2: "0.0", Chrom: "7", Start: "6000", End: "6100", Gene: Intergenic},
	}))
	assert.Equal(t, "log2\tchr\tstart_pos\tend_pos\tgene\ttranscript\texon\n"+
		"1.2\t7\t1010\t1090\tEGFR\tNM_005228\t1\n"+
		"0.0\t7\t6000\t6100\tintergenic\t\t\n", buf.String())
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/data/run/6037_E05_OPXv4_HA0201.cnvkit.CNV_plottable.tsv",
		OutputPath("/data/run/6037_E05_OPXv4_HA0201.cnr", CNVkit))
	assert.Equal(t, "s1.contra.CNV_plottable.tsv", OutputPath("s1.CNATable.10rd.10bases.20bins.txt", Contra))
}
