package amplicon

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMetrics has a blank target header, an empty column and a trailing tab.
const runMetrics = "\tS_01\tEmpty\tS_02\t\n" +
	"AMP1\t120\t\t80\t\n" +
	"AMP2\t5\tNA\t0\t\n" +
	"AMP9\t7\t\t9\t\n"

const amplicons = "Target,Gene,Position\n" +
	"AMP2,KRAS,chr12:25398200-25398320\n" +
	"AMP1,EGFR,chr7:55241600-55241750\n" +
	"AMP3,BRAF,chr7:140453100-140453200\n"

func readMetrics(t *testing.T) *RunMetrics {
	t.Helper()
	m, err := ReadRunMetrics(strings.NewReader(runMetrics))
	require.NoError(t, err)
	return m
}

func readAmplicons(t *testing.T) *Table {
	t.Helper()
	a, err := ReadAmplicons(strings.NewReader(amplicons))
	require.NoError(t, err)
	return a
}

func TestIsCoverageFile(t *testing.T) {
	assert.True(t, IsCoverageFile("AmpliconCoverage_M1.tsv"))
	assert.False(t, IsCoverageFile("AmpliconCoverage_M1.xml"))
	assert.False(t, IsCoverageFile("Summary.tsv"))
}

func TestFindCoverageFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Alignment")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Summary.tsv"), nil, 0644))

	_, err := FindCoverageFile(dir)
	assert.ErrorContains(t, err, "no amplicon coverage file")

	want := filepath.Join(sub, "AmpliconCoverage_M1.tsv")
	require.NoError(t, os.WriteFile(want, []byte(runMetrics), 0644))
	got, err := FindCoverageFile(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "AmpliconCoverage_M2.tsv"), nil, 0644))
	_, err = FindCoverageFile(dir)
	assert.ErrorContains(t, err, "2 amplicon coverage files")
}

func TestReadRunMetrics(t *testing.T) {
	m := readMetrics(t)
	assert.Equal(t, []string{"Target", "S_01", "S_02"}, m.Columns)
	assert.Equal(t, []string{"S_01", "S_02"}, m.Samples)
	require.Len(t, m.Rows, 3)
	assert.Equal(t, map[string]string{"Target": "AMP1", "S_01": "120", "S_02": "80"}, m.Rows[0])
}

func TestReadRunMetrics_Errors(t *testing.T) {
	_, err := ReadRunMetrics(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty file")

	_, err = ReadRunMetrics(strings.NewReader("Amplicon\tS1\nA\t1\n"))
	assert.ErrorContains(t, err, "no target column")
}

func TestReadAmplicons_RequiresTarget(t *testing.T) {
	_, err := ReadAmplicons(strings.NewReader("Name,Gene\nA,B\n"))
	assert.ErrorContains(t, err, "no Target column")
}

func TestMerge(t *testing.T) {
	merged := Merge(readAmplicons(t), readMetrics(t))

	var buf bytes.Buffer
	require.NoError(t, merged.Write(&buf))
	assert.Equal(t, "Target\tGene\tPosition\tS_01\tS_02\n"+
		"AMP2\tKRAS\tchr12:25398200-25398320\t5\t0\n"+
		"AMP1\tEGFR\tchr7:55241600-55241750\t120\t80\n", buf.String(),
		"amplicon order kept, unmatched targets on either side dropped")
}

func TestMerge_SharedColumns(t *testing.T) {
	a, err := ReadAmplicons(strings.NewReader("Target,Gene,S_01\nAMP1,EGFR,note\n"))
	require.NoError(t, err)

	merged := Merge(a, readMetrics(t))
	assert.Equal(t, []string{"Target", "Gene", "S_01_x", "S_01_y", "S_02"}, merged.Columns)
	require.Len(t, merged.Rows, 1)
	assert.Equal(t, "note", merged.Rows[0]["S_01_x"])
	assert.Equal(t, "120", merged.Rows[0]["S_01_y"])
}

func TestSampleTable(t *testing.T) {
	merged := Merge(readAmplicons(t), readMetrics(t))

	st, err := SampleTable(merged, "S_02")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, st.Write(&buf))
	assert.Equal(t, "Target\tGene\tPosition\tS_02\n"+
		"AMP2\tKRAS\tchr12:25398200-25398320\t0\n"+
		"AMP1\tEGFR\tchr7:55241600-55241750\t80\n", buf.String())

	_, err = SampleTable(merged, "S_03")
	assert.ErrorContains(t, err, "no S_03 column")
}

func TestSamplePath(t *testing.T) {
	assert.Equal(t, "S-01-PROJ", SamplePrefix("S_01", "PROJ"))
	assert.Equal(t, filepath.Join("output", "S-01-PROJ", "S-01-PROJ.Amplicon_Analysis.txt"),
		SamplePath("output", "S_01", "PROJ"))
}
