// Package sample parses sample identifiers out of analysis file names.
package sample

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AssayMap maps a library version (e.g. OPXv4) to its assay name.
type AssayMap map[string]string

// DefaultAssays returns the library versions known to the pipeline.
func DefaultAssays() AssayMap {
	return AssayMap{
		"BROv7":    "coloseq",
		"BROv8":    "coloseq",
		"OPXv3":    "oncoplex",
		"OPXv4":    "oncoplex",
		"OPXv5":    "oncoplex",
		"EPIv1":    "epiplex",
		"TRU":      "truseq",
		"MRWv3":    "marrowseq",
		"IMDv1":    "immunoplex",
		"TESTDATA": "testdata",
		"MSI-PLUS": "msi-plus",
	}
}

// Lookup returns the assay for a library version. Configuration keys may
// arrive lower-cased, so an exact match is tried before a case-insensitive
// one.
func (m AssayMap) Lookup(library string) (string, bool) {
	if a, ok := m[library]; ok {
		return a, true
	}
	for k, a := range m {
		if strings.EqualFold(k, library) {
			return a, true
		}
	}
	return "", false
}

// Prefix is the sample information encoded in a file name of the form
// SampleID_Well_Library[_Control]_MachineRun.type.ext.
type Prefix struct {
	SampleID   string
	Well       string
	Library    string
	Control    string
	MachineRun string
	Run        string // SampleID without its last two characters
	Pfx        string // full prefix
	MiniPfx    string // SampleID, with the control name when present
	Assay      string
}

// ParsePrefix parses the prefix of a file name, the part before the first
// '.', split on '_'.
func ParsePrefix(name string, assays AssayMap) (*Prefix, error) {
	base := filepath.Base(name)
	head, _, _ := strings.Cut(base, ".")
	parts := strings.Split(head, "_")

	p := &Prefix{SampleID: parts[0]}
	switch len(parts) {
	case 5:
		p.Well, p.Library, p.Control, p.MachineRun = parts[1], parts[2], parts[3], parts[4]
		p.MiniPfx = p.SampleID + "_" + p.Control
	case 4:
		p.Well, p.Library, p.MachineRun = parts[1], parts[2], parts[3]
		p.MiniPfx = p.SampleID
	case 3:
		p.Well, p.Library = parts[1], parts[2]
		p.MiniPfx = p.SampleID
	case 2:
		p.Library = parts[1]
		p.MiniPfx = p.SampleID
		p.Pfx = p.SampleID
		lib := p.Library
		if strings.Contains(strings.ToLower(lib), "msi") {
			lib = strings.ToUpper(lib)
		}
		assay, ok := assays.Lookup(lib)
		if !ok {
			return nil, fmt.Errorf("prefix %q: unknown library version %q", head, p.Library)
		}
		p.Assay = assay
		return p, nil
	case 1:
		p.MiniPfx = head
		p.Pfx = head
		switch {
		case strings.Contains(head, "LMG"):
			p.Assay = "coloseq"
		case strings.Contains(head, "OPX"):
			p.Assay = "oncoplex"
		}
		return p, nil
	default:
		return nil, fmt.Errorf("prefix %q: expected Plate_Well_Assay_<CONTROL>_MachinePlate.file-type.file-ext", head)
	}

	p.Pfx = head
	if len(p.SampleID) > 2 {
		p.Run = p.SampleID[:len(p.SampleID)-2]
	}
	assay, ok := assays.Lookup(p.Library)
	if !ok {
		return nil, fmt.Errorf("prefix %q: unknown library version %q", head, p.Library)
	}
	p.Assay = assay
	return p, nil
}
