package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/munge/internal/cnv"
	"github.com/inodb/munge/internal/coverage"
	"github.com/inodb/munge/internal/msi"
	"github.com/inodb/munge/internal/summary"
)

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func newCNVCmd() *cobra.Command {
	var (
		refGene    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "cnv-plottable <contra|cnvkit> <input>",
		Short: "Annotate copy number segments for plotting",
		Long: `Annotate CONTRA or CNVkit segments with the first overlapping gene,
transcript and exon. The output is written next to the input as
<prefix>.<package>.CNV_plottable.tsv unless -o is given.`,
		Example: `  munge cnv-plottable -r refGene.txt contra sample.CNATable.txt
  munge cnv-plottable -r refGene.txt cnvkit sample.cnr -o -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := cnv.ParsePackage(args[0])
			if err != nil {
				return err
			}
			resolver, err := loadResolver(refGene)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			segs, err := cnv.Readers[pkg](f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			if err := cnv.Annotate(segs, resolver); err != nil {
				return err
			}

			out := outputFile
			if out == "" {
				out = cnv.OutputPath(args[1], pkg)
			}
			logger.Info("cnv plottable", zap.Int("segments", len(segs)), zap.String("output", out))
			return writeOutput(out, func(w io.Writer) error {
				return cnv.Write(w, segs)
			})
		},
	}

	cmd.Flags().StringVarP(&refGene, "refgene", "r", "", "refGene table")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file, - for stdout")
	cmd.MarkFlagRequired("refgene")
	return cmd
}

func readBaselineFile(path string) (*msi.Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return msi.ReadBaseline(f)
}

// sampleName is the file name up to its first '.'.
func sampleName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

func newMSICountCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "msi-count <baseline> <dir>",
		Short: "Call MSI loci of every sample against a control baseline",
		Long: `Call each locus of every *.msi.txt file under dir: 1 unstable, 0 stable,
NA below the minimum read depth. Per-sample scores are logged.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := readBaselineFile(args[0])
			if err != nil {
				return err
			}
			files, err := summary.FindFiles(args[1], summary.Suffixes[summary.MSI])
			if err != nil {
				return err
			}

			scores := make([]*msi.SampleScore, 0, len(files))
			for _, path := range files {
				sites, err := msi.ReadSites(path)
				if err != nil {
					return err
				}
				s := msi.ScoreSample(sampleName(path), sites, baseline)
				logger.Info("msi sample",
					zap.String("sample", s.Name),
					zap.Int("passing_loci", s.Passing),
					zap.Int("unstable_loci", s.Unstable),
					zap.String("score", s.FormatScore()))
				scores = append(scores, s)
			}

			return writeOutput(outputFile, func(w io.Writer) error {
				return msi.WriteCounts(w, baseline, scores)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newMSIBaselineCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "msi-baseline <control.msi.txt>...",
		Short: "Build an MSI baseline from control samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controls := make([][]msi.Site, 0, len(args))
			for _, path := range args {
				sites, err := msi.ReadSites(path)
				if err != nil {
					return err
				}
				controls = append(controls, sites)
			}

			sites, err := msi.BuildBaseline(controls)
			if err != nil {
				return err
			}
			logger.Info("msi baseline", zap.Int("controls", len(controls)), zap.Int("loci", len(sites)))
			return writeOutput(outputFile, func(w io.Writer) error {
				return msi.WriteBaseline(w, sites)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		manifest   string
		control    string
		outputFile string
	)

	types := make([]string, 0, len(summary.Parsers))
	for _, t := range summary.Types() {
		types = append(types, string(t))
	}

	cmd := &cobra.Command{
		Use:   "summary <type> <dir>",
		Short: "Combine per-sample analysis files into one table",
		Long: fmt.Sprintf(`Combine the per-sample analysis files of one type found under dir into a
table with one column per sample.

Types: %s`, strings.Join(types, ", ")),
		Example: `  munge summary snp run01/ --manifest run01/manifest.csv
  munge summary msi run01/ --control msi_baseline.txt`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: types,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := summary.ParseType(args[0])
			if err != nil {
				return err
			}

			opts := summary.Options{Assays: assays()}
			if t == summary.MSI {
				if control == "" {
					return fmt.Errorf("summary msi requires --control")
				}
				if opts.Baseline, err = readBaselineFile(control); err != nil {
					return err
				}
			}

			tab, err := summary.Build(t, args[1], opts)
			if err != nil {
				return err
			}
			if manifest != "" {
				order, err := summary.ReadManifestFile(manifest)
				if err != nil {
					return err
				}
				tab.OrderSamples(order)
			}
			logger.Info("summary",
				zap.String("type", string(t)),
				zap.Int("samples", len(tab.SampleColumns)),
				zap.Int("rows", tab.Len()))

			return writeOutput(outputFile, tab.Write)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest CSV whose barcode_id column orders the samples")
	cmd.Flags().StringVar(&control, "control", "", "MSI baseline file (msi type only)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newAssaySummaryCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "assay-summary <refgene> <probes.bed> <preferred_transcripts>",
		Short: "Summarize how well an assay's probes cover its genes",
		Long: `Merge the probe intervals, intersect them with every transcript and write
per_refseq_summary.txt and overall_summary.txt to the output directory.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			chroms := chromosomes()
			idx, err := loadIndex(args[0], chroms)
			if err != nil {
				return err
			}

			probes, err := readWith(args[1], coverage.ReadProbes)
			if err != nil {
				return err
			}
			preferred, err := readWith(args[2], coverage.ReadPreferred)
			if err != nil {
				return err
			}

			s := coverage.NewSummarizer(idx, chroms)
			s.SetLogger(logger)
			sum := s.Summarize(probes, preferred)

			if err := writeOutput(filepath.Join(outDir, "per_refseq_summary.txt"), sum.WritePerRefSeq); err != nil {
				return err
			}
			return writeOutput(filepath.Join(outDir, "overall_summary.txt"), sum.WriteOverall)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "Directory for the summary files")
	return cmd
}

func readWith[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
