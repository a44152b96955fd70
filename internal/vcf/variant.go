package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant represents a single record from a VCF file.
type Variant struct {
	Chrom   string            // Chromosome name as written (e.g., "12", "chr12")
	Pos     int64             // Position as written in the POS column
	ID      string            // Variant identifier
	Ref     string            // Reference allele
	Alt     string            // Alternate allele(s)
	Qual    float64           // Quality score
	Filter  string            // Filter status
	Info    map[string]string // INFO key-value pairs; flags map to ""
	Format  string            // FORMAT column, empty if absent
	Samples []string          // Per-sample columns after FORMAT
}

// InfoInt returns the INFO value for key as an integer.
func (v *Variant) InfoInt(key string) (int64, error) {
	s, ok := v.Info[key]
	if !ok {
		return 0, fmt.Errorf("missing INFO field %s", key)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("INFO field %s: %w", key, err)
	}
	return n, nil
}

// SVType returns the SVTYPE INFO field.
func (v *Variant) SVType() string {
	return v.Info["SVTYPE"]
}

// SampleField returns the last comma-separated value of sample column i.
// Pindel writes the supporting read count there.
func (v *Variant) SampleField(i int) (string, bool) {
	if i < 0 || i >= len(v.Samples) {
		return "", false
	}
	s := v.Samples[i]
	return s[strings.LastIndexByte(s, ',')+1:], true
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}
