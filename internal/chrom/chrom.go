// Package chrom normalizes chromosome names against a fixed allow-list.
package chrom

import (
	"sort"
	"strconv"
	"strings"
)

// Key is a normalized chromosome identifier (e.g. "1", "X", "M").
type Key string

// DefaultLabels returns the canonical human chromosome set, 1-22, X, Y and M,
// each displayed under its own name.
func DefaultLabels() map[string]string {
	labels := make(map[string]string, 25)
	for i := 1; i <= 22; i++ {
		n := strconv.Itoa(i)
		labels[n] = n
	}
	labels["X"] = "X"
	labels["Y"] = "Y"
	labels["M"] = "M"
	return labels
}

// Set is an immutable allow-list mapping canonical chromosome keys to display
// labels. A Set is safe for concurrent use.
type Set struct {
	labels map[Key]string
}

// NewSet builds a Set from a canonical name -> display label mapping.
// Names are normalized, so "chr1", "MT" or "x" are accepted as keys.
// An empty label falls back to the canonical name.
func NewSet(labels map[string]string) *Set {
	s := &Set{labels: make(map[Key]string, len(labels))}
	for name, label := range labels {
		k := normalize(name)
		if k == "" {
			continue
		}
		if label == "" {
			label = string(k)
		}
		s.labels[k] = label
	}
	return s
}

// Default returns a Set over DefaultLabels.
func Default() *Set {
	return NewSet(DefaultLabels())
}

// Normalize maps a raw chromosome name to its Key. The second return value is
// false when the chromosome is not in the allow-list.
func (s *Set) Normalize(name string) (Key, bool) {
	k := normalize(name)
	if _, ok := s.labels[k]; !ok {
		return "", false
	}
	return k, true
}

// Contains reports whether name normalizes to a supported chromosome.
func (s *Set) Contains(name string) bool {
	_, ok := s.Normalize(name)
	return ok
}

// Label returns the display label for k, or the key itself if k is unknown.
func (s *Set) Label(k Key) string {
	if l, ok := s.labels[k]; ok {
		return l
	}
	return string(k)
}

// Keys returns the supported keys in karyotype order (numeric first, then
// alphabetic).
func (s *Set) Keys() []Key {
	keys := make([]Key, 0, len(s.labels))
	for k := range s.labels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })
	return keys
}

// Len returns the number of supported chromosomes.
func (s *Set) Len() int {
	return len(s.labels)
}

// Less orders keys numerically where both are numbers, numbers before names,
// and names lexically.
func Less(a, b Key) bool {
	ai, aerr := strconv.Atoi(string(a))
	bi, berr := strconv.Atoi(string(b))
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}

func normalize(name string) Key {
	name = strings.TrimSpace(name)
	if len(name) > 3 && strings.EqualFold(name[:3], "chr") {
		name = name[3:]
	}
	switch strings.ToUpper(name) {
	case "X", "Y", "M":
		name = strings.ToUpper(name)
	case "MT":
		name = "M"
	}
	return Key(name)
}
