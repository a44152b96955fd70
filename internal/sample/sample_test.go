package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefix(t *testing.T) {
	tests := []struct {
		name string
		want Prefix
	}{
		{
			name: "6037_E05_OPXv4_NA12878_HA0201.SNP_Analysis.txt",
			want: Prefix{
				SampleID: "6037", Well: "E05", Library: "OPXv4", Control: "NA12878", MachineRun: "HA0201",
				Run: "60", Pfx: "6037_E05_OPXv4_NA12878_HA0201", MiniPfx: "6037_NA12878", Assay: "oncoplex",
			},
		},
		{
			name: "/data/run/0228T_A01_BROv8_HA0201.Pindel_Analysis.txt",
			want: Prefix{
				SampleID: "0228T", Well: "A01", Library: "BROv8", MachineRun: "HA0201",
				Run: "022", Pfx: "0228T_A01_BROv8_HA0201", MiniPfx: "0228T", Assay: "coloseq",
			},
		},
		{
			name: "1234_B02_MRWv3.msi.txt",
			want: Prefix{
				SampleID: "1234", Well: "B02", Library: "MRWv3",
				Run: "12", Pfx: "1234_B02_MRWv3", MiniPfx: "1234", Assay: "marrowseq",
			},
		},
		{
			name: "SAMPLE1_msi-plus.msi.txt",
			want: Prefix{SampleID: "SAMPLE1", Library: "msi-plus", Pfx: "SAMPLE1", MiniPfx: "SAMPLE1", Assay: "msi-plus"},
		},
		{
			name: "LMG-240.SNP_Analysis.txt",
			want: Prefix{SampleID: "LMG-240", Pfx: "LMG-240", MiniPfx: "LMG-240", Assay: "coloseq"},
		},
		{
			name: "OPX-12.SNP_Analysis.txt",
			want: Prefix{SampleID: "OPX-12", Pfx: "OPX-12", MiniPfx: "OPX-12", Assay: "oncoplex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrefix(tt.name, DefaultAssays())
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParsePrefix_Errors(t *testing.T) {
	_, err := ParsePrefix("1_2_3_4_5_6.txt", DefaultAssays())
	assert.ErrorContains(t, err, "expected Plate_Well_Assay")

	_, err = ParsePrefix("6037_E05_XYZv1_HA0201.txt", DefaultAssays())
	assert.EqualError(t, err, `prefix "6037_E05_XYZv1_HA0201": unknown library version "XYZv1"`)
}

func TestAssayMap_Lookup(t *testing.T) {
	// keys as they come back from a config file
	m := AssayMap{"opxv4": "oncoplex", "NEWv1": "newplex"}

	a, ok := m.Lookup("OPXv4")
	assert.True(t, ok)
	assert.Equal(t, "oncoplex", a)

	a, ok = m.Lookup("NEWv1")
	assert.True(t, ok)
	assert.Equal(t, "newplex", a)

	_, ok = m.Lookup("BROv7")
	assert.False(t, ok)

	p, err := ParsePrefix("77_A1_NEWv1_M01.txt", m)
	require.NoError(t, err)
	assert.Equal(t, "newplex", p.Assay)
}
