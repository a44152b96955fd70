package summary

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inodb/munge/internal/msi"
	"github.com/inodb/munge/internal/sample"
	"github.com/inodb/munge/internal/tsv"
)

// Type is a kind of top-level summary.
type Type string

const (
	Pindel      Type = "pindel"
	SNP         Type = "snp"
	Indel       Type = "indel"
	CNVExon     Type = "cnv_exon"
	CNVGene     Type = "cnv_gene"
	Quality     Type = "quality"
	ClinFlagged Type = "clin_flagged"
	MSI         Type = "msi"
)

// Options carries what a parser needs beyond the file list.
type Options struct {
	Assays   sample.AssayMap
	Baseline *msi.Baseline // required for MSI
}

// ParseFunc builds a summary from analysis files.
type ParseFunc func(files []string, opts Options) (*Table, error)

// Parsers maps each summary type to its parser.
var Parsers = map[Type]ParseFunc{
	Pindel:      parsePindel,
	SNP:         parseSNP,
	Indel:       parseSNP,
	CNVExon:     parseCNV,
	CNVGene:     parseCNV,
	Quality:     parseQuality,
	ClinFlagged: parseClinFlagged,
	MSI:         parseMSI,
}

// Suffixes maps each summary type to the file name suffix of its inputs.
var Suffixes = map[Type]string{
	Pindel:      ".Pindel_Analysis.txt",
	SNP:         ".SNP_Analysis.txt",
	Indel:       ".INDEL_Analysis.txt",
	CNVExon:     ".CNV_Exon_Analysis.txt",
	CNVGene:     ".CNV_Gene_Analysis.txt",
	Quality:     ".Quality_Analysis.txt",
	ClinFlagged: ".Genotype_Analysis.txt",
	MSI:         ".msi.txt",
}

// Types returns every summary type in name order.
func Types() []Type {
	types := make([]Type, 0, len(Parsers))
	for t := range Parsers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ParseType validates a summary type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := Parsers[t]; !ok {
		return "", fmt.Errorf("unknown summary type %q", s)
	}
	return t, nil
}

// FindFiles returns every file under dir whose name ends with suffix,
// sorted by path.
func FindFiles(dir, suffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find %s files: %w", suffix, err)
	}
	sort.Strings(files)
	return files, nil
}

// Build finds the input files of type t under dir and builds the summary.
func Build(t Type, dir string, opts Options) (*Table, error) {
	parse, ok := Parsers[t]
	if !ok {
		return nil, fmt.Errorf("unknown summary type %q", t)
	}
	files, err := FindFiles(dir, Suffixes[t])
	if err != nil {
		return nil, err
	}
	return parse(files, opts)
}

// eachRow parses the sample prefix of every file and passes its rows to fn.
func eachRow(files []string, assays sample.AssayMap, fn func(p *sample.Prefix, row map[string]string) error) error {
	for _, path := range files {
		p, err := sample.ParsePrefix(path, assays)
		if err != nil {
			return err
		}
		tab, err := tsv.ReadTableFile(path)
		if err != nil {
			return err
		}
		for _, row := range tab.Rows {
			if err := fn(p, row); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return nil
}

func keyOf(row map[string]string, cols []string) ([]string, error) {
	key := make([]string, len(cols))
	for i, c := range cols {
		v, ok := row[c]
		if !ok {
			return nil, fmt.Errorf("missing column %s", c)
		}
		key[i] = v
	}
	return key, nil
}

// addSamples registers one sample column per file, in file order.
func addSamples(t *Table, files []string, assays sample.AssayMap, suffix string) (map[string]string, error) {
	names := make(map[string]string, len(files))
	for _, path := range files {
		p, err := sample.ParsePrefix(path, assays)
		if err != nil {
			return nil, err
		}
		name := p.MiniPfx + suffix
		if _, dup := names[p.Pfx]; !dup {
			t.AddSample(name, p.SampleID)
		}
		names[p.Pfx] = name
	}
	return names, nil
}

func pivot(files []string, opts Options, t *Table, suffix string, value func(row map[string]string) string) (*Table, error) {
	names, err := addSamples(t, files, opts.Assays, suffix)
	if err != nil {
		return nil, err
	}
	err = eachRow(files, opts.Assays, func(p *sample.Prefix, row map[string]string) error {
		key, err := keyOf(row, t.KeyColumns)
		if err != nil {
			return err
		}
		t.Set(key, names[p.Pfx], value(row), row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parsePindel(files []string, opts Options) (*Table, error) {
	t := NewTable(
		[]string{"Position", "Gene"},
		[]string{"Gene_Region", "Event_Type", "Size", "Transcripts"},
	)
	t.WithCount = true
	return pivot(files, opts, t, "", func(row map[string]string) string {
		if v, ok := row["Reads"]; ok {
			return v
		}
		return row["bwamemReads"]
	})
}

var snpAnnotations = []string{
	"Gene",
	"Variant_Type",
	"Transcripts",
	"Clinically_Flagged",
	"Cosmic",
	"Segdup",
	"Polyphen",
	"Sift",
	"Mutation_Taster",
	"Gerp",
	"HiSeq_Freq",
	"HiSeq_Count",
	"NextSeq_Freq",
	"NextSeq_Count",
	"MiSeq_Freq",
	"MiSeq_Count",
	"1000g_ALL",
	"EVS_esp6500_ALL",
	"1000g_AMR",
	"EVS_esp6500_AA",
	"1000g_EUR",
	"EVS_esp6500_EU",
	"1000g_ASN",
	"1000g_AFR",
}

func parseSNP(files []string, opts Options) (*Table, error) {
	t := NewTable([]string{"Position", "Ref_Base", "Var_Base"}, snpAnnotations)
	return pivot(files, opts, t, "_Ref|Var", func(row map[string]string) string {
		return row["Ref_Reads"] + "|" + row["Var_Reads"]
	})
}

func parseCNV(files []string, opts Options) (*Table, error) {
	t := NewTable([]string{"Position", "Gene"}, []string{"Transcripts"})
	return pivot(files, opts, t, "_Log", func(row map[string]string) string {
		return row["Ave_Adjusted_Log_Ratio"]
	})
}

func parseClinFlagged(files []string, opts Options) (*Table, error) {
	t := NewTable([]string{"Position", "Ref_Base", "Var_Base"}, []string{"Clinically_Flagged"})
	return pivot(files, opts, t, "_Variants", func(row map[string]string) string {
		return row["Reference_Reads"] + "|" + row["Variant_Reads"]
	})
}

const meanTargetCoverage = "MEAN_TARGET_COVERAGE"

func parseQuality(files []string, opts Options) (*Table, error) {
	t := NewTable([]string{meanTargetCoverage}, nil)
	names, err := addSamples(t, files, opts.Assays, "")
	if err != nil {
		return nil, err
	}
	err = eachRow(files, opts.Assays, func(p *sample.Prefix, row map[string]string) error {
		t.Set([]string{meanTargetCoverage}, names[p.Pfx], row[meanTargetCoverage], nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// MSI summary rows appended after the loci.
const (
	PassingLoci  = "passing_loci"
	UnstableLoci = "unstable_loci"
	MSIScore     = "msing_score"
)

func parseMSI(files []string, opts Options) (*Table, error) {
	if opts.Baseline == nil {
		return nil, fmt.Errorf("msi summary requires a baseline")
	}
	t := NewTable([]string{"Position"}, nil)
	names, err := addSamples(t, files, opts.Assays, "")
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		p, err := sample.ParsePrefix(path, opts.Assays)
		if err != nil {
			return nil, err
		}
		sites, err := msi.ReadSites(path)
		if err != nil {
			return nil, err
		}
		score := msi.ScoreSample(names[p.Pfx], sites, opts.Baseline)
		for pos, call := range score.Calls {
			v := ""
			if call != msi.NotCallable {
				v = call.String()
			}
			t.Set([]string{pos}, score.Name, v, nil)
		}
		t.Set([]string{PassingLoci}, score.Name, fmt.Sprint(score.Passing), nil)
		t.Set([]string{UnstableLoci}, score.Name, fmt.Sprint(score.Unstable), nil)
		t.Set([]string{MSIScore}, score.Name, score.FormatScore(), nil)
	}
	return t, nil
}
