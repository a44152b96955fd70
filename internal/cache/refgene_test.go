package cache

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/munge/internal/chrom"
)

const testRefGene = "chr7\t1000\t2000\tGENEA\tNM_000001\t0\t+\t1050\t1150\t0\t1\t200,\t0,\n" +
	"chr7\t5000\t9000\tGENEB\tNM_000002\t0\t-\t5500\t8500\t0\t3\t1000,500,1000,\t0,2000,3000,\n" +
	"chr6_ssto_hap7\t100\t200\tHAP\tNM_000003\t0\t+\t100\t200\t0\t1\t100,\t0,\n" +
	"chrX\t100\t500\tGENEX\tNM_000004\t0\t+\t100\t100\t0\t2\t50,100\t0,300\n"

func parseRefGene(t *testing.T, content string) ([]*Transcript, error) {
	t.Helper()
	l := NewRefGeneLoader("test.txt", chrom.Default())
	return l.Parse(strings.NewReader(content))
}

func TestRefGeneLoader_Parse(t *testing.T) {
	transcripts, err := parseRefGene(t, testRefGene)
	require.NoError(t, err)
	require.Len(t, transcripts, 3, "unsupported chromosome skipped")

	a := transcripts[0]
	assert.Equal(t, "NM_000001", a.ID)
	assert.Equal(t, "GENEA", a.GeneName)
	assert.Equal(t, chrom.Key("7"), a.Chrom)
	assert.Equal(t, int64(1000), a.Start)
	assert.Equal(t, int64(2000), a.End)
	assert.True(t, a.IsForwardStrand())
	assert.Equal(t, []Exon{{Number: 1, Start: 1000, End: 1200}}, a.Exons)
	assert.Equal(t, int64(1050), a.CDSStart)
	assert.Equal(t, int64(1150), a.CDSEnd)

	b := transcripts[1]
	assert.True(t, b.IsReverseStrand())
	assert.Equal(t, []Exon{
		{Number: 3, Start: 5000, End: 6000},
		{Number: 2, Start: 7000, End: 7500},
		{Number: 1, Start: 8000, End: 9000},
	}, b.Exons)

	x := transcripts[2]
	assert.Equal(t, chrom.Key("X"), x.Chrom)
	assert.False(t, x.IsCoding())
	assert.Len(t, x.Exons, 2, "lists without a trailing comma")
}

func TestRefGeneLoader_SkipsCommentsAndBlankLines(t *testing.T) {
	content := "#chrom\tstart\n\n" + strings.SplitAfter(testRefGene, "\n")[0]
	transcripts, err := parseRefGene(t, content)
	require.NoError(t, err)
	assert.Len(t, transcripts, 1)
}

func TestRefGeneLoader_ShortRowOnUnsupportedChromosome(t *testing.T) {
	transcripts, err := parseRefGene(t, "chrUn_gl000220\t100\t200\tHAP\n"+
		"GL000192.1\n"+
		strings.SplitAfter(testRefGene, "\n")[0])
	require.NoError(t, err)
	require.Len(t, transcripts, 1)
	assert.Equal(t, "NM_000001", transcripts[0].ID)

	_, err = parseRefGene(t, "chr7\t100\t200\tHAP\n")
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "expected 13 columns, found 4", loadErr.Reason)
	assert.Equal(t, "", loadErr.TranscriptID)
}

func TestRefGeneLoader_DuplicateIDsKept(t *testing.T) {
	row := strings.SplitAfter(testRefGene, "\n")[0]
	transcripts, err := parseRefGene(t, row+row)
	require.NoError(t, err)
	assert.Len(t, transcripts, 2)
}

func TestRefGeneLoader_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{
			name: "missing columns",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\n",
			want: "refgene test.txt line 1 (NM_9): expected 13 columns, found 9",
		},
		{
			name: "bad integer",
			row:  "chr7\tabc\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\t0\t1\t200,\t0,\n",
			want: `refgene test.txt line 1 (NM_9): invalid integer "abc" in column 2`,
		},
		{
			name: "bad strand",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t.\t1050\t1150\t0\t1\t200,\t0,\n",
			want: `refgene test.txt line 1 (NM_9): invalid strand "."`,
		},
		{
			name: "empty span",
			row:  "chr7\t2000\t2000\tGENEA\tNM_9\t0\t+\t2000\t2000\t0\t1\t1,\t0,\n",
			want: "refgene test.txt line 1 (NM_9): transcript span [2000,2000) is empty",
		},
		{
			name: "CDS outside span",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t900\t1150\t0\t1\t200,\t0,\n",
			want: "refgene test.txt line 1 (NM_9): CDS [900,1150) lies outside transcript span [1000,2000)",
		},
		{
			name: "exon count mismatch",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\t0\t2\t200,\t0,\n",
			want: "refgene test.txt line 1 (NM_9): exon count 2 does not match 1 sizes and 1 starts",
		},
		{
			name: "zero-length exon",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\t0\t2\t200,0,\t0,500,\n",
			want: "refgene test.txt line 1 (NM_9): exon 2 [1500,1500) has start >= end",
		},
		{
			name: "exon outside span",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\t0\t1\t1200,\t0,\n",
			want: "refgene test.txt line 1 (NM_9): exon 1 [1000,2200) lies outside transcript span [1000,2000)",
		},
		{
			name: "overlapping exons",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\t0\t2\t300,300,\t0,200,\n",
			want: "refgene test.txt line 1 (NM_9): exon 2 [1200,1500) overlaps or precedes exon 1 [1000,1300)",
		},
		{
			name: "unsorted exons",
			row:  "chr7\t1000\t2000\tGENEA\tNM_9\t0\t+\t1050\t1150\t0\t2\t100,100,\t500,0,\n",
			want: "refgene test.txt line 1 (NM_9): exon 2 [1000,1100) overlaps or precedes exon 1 [1500,1600)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcripts, err := parseRefGene(t, tt.row)
			require.Error(t, err)
			assert.Nil(t, transcripts, "no partial model")

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, "NM_9", loadErr.TranscriptID)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestRefGeneLoader_ErrorAfterValidRows(t *testing.T) {
	content := testRefGene + "chr7\t1000\t2000\tGENEZ\tNM_BAD\t0\t+\t1050\t1150\t0\t1\t0,\t0,\n"
	_, err := parseRefGene(t, content)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 5, loadErr.Line)
	assert.Equal(t, "NM_BAD", loadErr.TranscriptID)
}

func TestLoadRefGene_Gzip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testRefGene))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(dir, "refgene.txt.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	transcripts, err := LoadRefGene(path, chrom.Default())
	require.NoError(t, err)
	assert.Len(t, transcripts, 3)

	plain := filepath.Join(dir, "refgene.txt")
	require.NoError(t, os.WriteFile(plain, []byte(testRefGene), 0644))
	transcripts, err = LoadRefGene(plain, chrom.Default())
	require.NoError(t, err)
	assert.Len(t, transcripts, 3)
}

func TestLoadRefGene_MissingFile(t *testing.T) {
	_, err := LoadRefGene(filepath.Join(t.TempDir(), "nope.txt"), chrom.Default())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
