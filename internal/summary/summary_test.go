package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/munge/internal/msi"
	"github.com/inodb/munge/internal/sample"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func opts() Options {
	return Options{Assays: sample.DefaultAssays()}
}

const pindelHeader = "Gene\tGene_Region\tEvent_Type\tSize\tPosition\tReads\tTranscripts\n"

func TestBuild_Pindel(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"6037_E05_OPXv4_NA12878_HA0201.Pindel_Analysis.txt": pindelHeader +
			"EGFR\tEXONIC\tDEL\t15\t7:1000-1016\t40\tNM_005228:exon19\n" +
			"KIT\tINTRONIC\tINS\t12\t4:500-501\t12\tNM_000222:intron10\n",
		"sub/5437_A01_OPXv4_HA0201.Pindel_Analysis.txt": pindelHeader +
			"EGFR\tEXONIC\tDEL\t15\t7:1000-1016\t33\tNM_005228:exon19\n",
		"5437_A01_OPXv4_HA0201.SNP_Analysis.txt": "ignored\n",
	})

	tab, err := Build(Pindel, dir, opts())
	require.NoError(t, err)
	assert.Equal(t, 2, tab.Len())

	var buf bytes.Buffer
	require.NoError(t, tab.Write(&buf))
	got := lines(&buf)
	require.Len(t, got, 3)
	assert.Equal(t, "Position\tGene\tGene_Region\tEvent_Type\tSize\tTranscripts\t6037_NA12878\t5437\tCount", got[0])
	assert.Equal(t, "4:500-501\tKIT\tINTRONIC\tINS\t12\tNM_000222:intron10\t12\t\t1", got[1])
	assert.Equal(t, "7:1000-1016\tEGFR\tEXONIC\tDEL\t15\tNM_005228:exon19\t40\t33\t2", got[2])
}

func TestBuild_SNPAndIndel(t *testing.T) {
	header := "Position\tRef_Base\tVar_Base\tGene\tRef_Reads\tVar_Reads\n"
	dir := writeFiles(t, map[string]string{
		"6037_E05_OPXv4_HA0201.SNP_Analysis.txt":   header + "chr7:140453136\tA\tT\tBRAF\t100\t45\n",
		"6037_E05_OPXv4_HA0201.INDEL_Analysis.txt": header + "chr7:55242465\tGGAATTAAGAGAAGC\t-\tEGFR\t80\t20\n",
	})

	tab, err := Build(SNP, dir, opts())
	require.NoError(t, err)
	require.Equal(t, 1, tab.Len())
	r := tab.Records()[0]
	assert.Equal(t, []string{"chr7:140453136", "A", "T"}, r.Key)
	assert.Equal(t, "100|45", r.Samples["6037_Ref|Var"])
	assert.Equal(t, "BRAF", r.Annotation["Gene"])

	tab, err = Build(Indel, dir, opts())
	require.NoError(t, err)
	require.Equal(t, 1, tab.Len())
	assert.Equal(t, "80|20", tab.Records()[0].Samples["6037_Ref|Var"])
	assert.Contains(t, tab.Columns(), "NextSeq_Freq")
}

func TestBuild_CNVAndQuality(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0228T_A01_OPXv4_CON_HA0201.CNV_Gene_Analysis.txt": "Position\tGene\tTranscripts\tAve_Adjusted_Log_Ratio\n" +
			"chr7:1000-5000\tEGFR\tNM_005228\t1.8\n",
		"0228T_A01_OPXv4_CON_HA0201.Quality_Analysis.txt": "MEAN_TARGET_COVERAGE\tPCT_OFF_BAIT\n614.82\t0.2\n",
	})

	tab, err := Build(CNVGene, dir, opts())
	require.NoError(t, err)
	assert.Equal(t, []string{"Position", "Gene", "Transcripts", "0228T_CON_Log"}, tab.Columns())
	assert.Equal(t, "1.8", tab.Records()[0].Samples["0228T_CON_Log"])

	tab, err = Build(CNVExon, dir, opts())
	require.NoError(t, err)
	assert.Equal(t, 0, tab.Len())

	tab, err = Build(Quality, dir, opts())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, tab.Write(&buf))
	assert.Equal(t, "MEAN_TARGET_COVERAGE\t0228T_CON\nMEAN_TARGET_COVERAGE\t614.82\n", buf.String())
}

func TestBuild_ClinFlagged(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"6037_E05_OPXv4_HA0201.Genotype_Analysis.txt": "Position\tRef_Base\tVar_Base\tClinically_Flagged\tReference_Reads\tVariant_Reads\n" +
			"chr12:25398284\tC\tT\tKRAS G12D\t200\t0\n",
	})
	tab, err := Build(ClinFlagged, dir, opts())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tab.Write(&buf))
	assert.Equal(t, []string{
		"Position\tRef_Base\tVar_Base\tClinically_Flagged\t6037_Variants",
		"chr12:25398284\tC\tT\tKRAS G12D\t200|0",
	}, lines(&buf))
}

func TestBuild_MSI(t *testing.T) {
	baseline, err := msi.ReadBaseline(strings.NewReader("Position\tAve\tStd\n1:100-120\t3\t0.5\n2:200-230\t2\t1\n"))
	require.NoError(t, err)

	header := "Position\tAvg_read_depth\tNumber_Peaks\n"
	dir := writeFiles(t, map[string]string{
		"S1_msi-plus.msi.txt": header + "1:100-120\t50\t5\n2:200-230\t50\t1\n",
		"S2_msi-plus.msi.txt": header + "1:100-120\t10\t5\n2:200-230\t40\t2\n",
	})

	_, err = Build(MSI, dir, opts())
	assert.EqualError(t, err, "msi summary requires a baseline")

	tab, err := Build(MSI, dir, Options{Assays: sample.DefaultAssays(), Baseline: baseline})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tab.Write(&buf))
	assert.Equal(t, []string{
		"Position\tS1\tS2",
		"1:100-120\t1\t",
		"2:200-230\t0\t0",
		"msing_score\t0.5000\t0.0000",
		"passing_loci\t2\t1",
		"unstable_loci\t1\t0",
	}, lines(&buf))
}

func TestBuild_UnknownLibrary(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"6037_E05_XYZv9_HA0201.Pindel_Analysis.txt": pindelHeader,
	})
	_, err := Build(Pindel, dir, opts())
	assert.ErrorContains(t, err, `unknown library version "XYZv9"`)
}

func TestBuild_MissingKeyColumn(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"6037_E05_OPXv4_HA0201.CNV_Exon_Analysis.txt": "Position\tAve_Adjusted_Log_Ratio\nchr1:1-2\t0.1\n",
	})
	_, err := Build(CNVExon, dir, opts())
	assert.ErrorContains(t, err, "missing column Gene")
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("cnv_exon")
	require.NoError(t, err)
	assert.Equal(t, CNVExon, typ)

	_, err = ParseType("annotsv")
	assert.EqualError(t, err, `unknown summary type "annotsv"`)

	for _, typ := range Types() {
		assert.Contains(t, Suffixes, typ, "every parser has an input suffix")
	}
}

func TestTable_OrderSamples(t *testing.T) {
	tab := NewTable([]string{"Position"}, nil)
	tab.AddSample("6037_NA12878", "6037")
	tab.AddSample("5437", "5437")
	tab.AddSample("0228T_CON", "0228T")
	tab.AddSample("9999", "9999")

	manifest, err := ReadManifest(strings.NewReader("run_number,barcode_id,sample_type\nHA0201,0228T,c\nHA0201,5437,s\nHA0201,6037,s\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0228T", "5437", "6037"}, manifest)

	tab.OrderSamples(manifest)
	assert.Equal(t, []string{"Position", "0228T_CON", "5437", "6037_NA12878", "9999"}, tab.Columns())
}

func TestReadManifestFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"configs/manifest.csv": "barcode_id\nA1\nB2\n"})
	ids, err := ReadManifestFile(filepath.Join(dir, "configs/manifest.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, ids)

	_, err = ReadManifestFile(filepath.Join(dir, "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
