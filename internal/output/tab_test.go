package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/cache"
)

func TestTabWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, "Gene", "Size", "Position")
	assert.Equal(t, []string{"Gene", "Size", "Position"}, w.Columns())

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRow("BRAF", "15", "7:140453136-140453152"))
	require.NoError(t, w.WriteMap(map[string]string{"Gene": "KIT", "Position": "4:1-2"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "Gene\tSize\tPosition\nBRAF\t15\t7:140453136-140453152\nKIT\t\t4:1-2\n", buf.String())
}

func TestTabWriter_ColumnMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, "a", "b")
	assert.EqualError(t, w.WriteRow("1"), "row has 1 values, expected 2 columns")
}

func TestResultWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewResultWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write("7:1100", annotate.Result{Gene: "A", Transcripts: "NM_A:exon1", Region: cache.RegionExonic}))
	require.NoError(t, w.Write("7:3000", annotate.Result{}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "Query\tGene\tTranscripts\tRegion\n"+
		"7:1100\tA\tNM_A:exon1\tEXONIC\n"+
		"7:3000\t-\t-\tIntergenic\n", buf.String())
}
