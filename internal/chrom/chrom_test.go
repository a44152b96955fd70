package chrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	s := Default()

	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"1", "1", true},
		{"chr1", "1", true},
		{"CHR22", "22", true},
		{"x", "X", true},
		{"chrY", "Y", true},
		{"MT", "M", true},
		{"chrM", "M", true},
		{"23", "", false},
		{"chr6_ssto_hap7", "", false},
		{"GL000192.1", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := s.Normalize(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLabels(t *testing.T) {
	s := Default()
	assert.Equal(t, 25, s.Len())
	assert.Equal(t, "X", s.Label("X"))
	assert.Equal(t, "7", s.Label("7"))
}

func TestNewSet_CustomLabels(t *testing.T) {
	s := NewSet(map[string]string{"chr1": "chr1", "mt": "chrM", "2": ""})

	k, ok := s.Normalize("1")
	assert.True(t, ok)
	assert.Equal(t, "chr1", s.Label(k))

	k, ok = s.Normalize("MT")
	assert.True(t, ok)
	assert.Equal(t, Key("M"), k)
	assert.Equal(t, "chrM", s.Label(k))

	assert.Equal(t, "2", s.Label("2"), "empty label falls back to key")
	assert.False(t, s.Contains("3"))
}

func TestKeys_KaryotypeOrder(t *testing.T) {
	s := NewSet(map[string]string{"10": "", "2": "", "X": "", "1": "", "M": "", "Y": ""})
	assert.Equal(t, []Key{"1", "2", "10", "M", "X", "Y"}, s.Keys())
}
