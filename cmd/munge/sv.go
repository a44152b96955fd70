package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/munge/internal/duckdb"
	"github.com/inodb/munge/internal/output"
	"github.com/inodb/munge/internal/svsummary"
	"github.com/inodb/munge/internal/tsv"
)

func newPindelCmd() *cobra.Command {
	var (
		outputFile string
		multiReads bool
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "pindel <refgene> <pindel.vcf>...",
		Short: "Summarize and annotate Pindel calls",
		Long: `Summarize Pindel VCFs: events larger than 10 bases on supported chromosomes
are annotated at both breakends and sorted by supporting reads.`,
		Example: `  munge pindel refGene.txt sample.pindel.vcf -o sample.Pindel_Analysis.txt
  munge pindel --multi-reads --db events.duckdb refGene.txt merged.vcf`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := loadResolver(args[0])
			if err != nil {
				return err
			}
			resolver.SetReportUTR(true)

			ps := svsummary.NewPindelSummary(resolver, chromosomes(), multiReads)
			ps.SetWorkers(workers())
			ps.SetLogger(logger)

			events, err := ps.Collect(args[1:])
			if err != nil {
				return err
			}
			logger.Info("pindel events", zap.Int("count", len(events)))

			if dbPath != "" {
				if err := storeEvents(dbPath, args[1:], events); err != nil {
					return err
				}
			}

			return writeOutput(outputFile, func(w io.Writer) error {
				return ps.Write(w, events)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&multiReads, "multi-reads", false, "VCFs carry bbmerged and bwamem sample columns")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store events in this DuckDB database")
	return cmd
}

// storeEvents replaces the stored events of every source with events.
func storeEvents(dbPath string, sources []string, events []*svsummary.PindelEvent) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, src := range sources {
		if err := store.ClearSource(src); err != nil {
			return err
		}
	}
	if err := store.WriteEvents(duckdb.PindelEvents(events)); err != nil {
		return err
	}
	logger.Debug("stored events", zap.String("db", dbPath), zap.Int("events", len(events)))
	return nil
}

func newBreakDancerCmd() *cobra.Command {
	var (
		outputFile string
		genesFile  string
	)

	cmd := &cobra.Command{
		Use:   "breakdancer <refgene> <breakdancer.ctx>",
		Short: "Summarize and annotate BreakDancer calls",
		Example: `  munge breakdancer refGene.txt sample.ctx -o sample.Breakdancer_Analysis.txt
  munge breakdancer --genes genes.txt refGene.txt sample.ctx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := loadResolver(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			events, err := svsummary.ReadBreakDancer(f, chromosomes(), resolver)
			if err != nil {
				return err
			}

			if genesFile != "" {
				genes, err := readGeneList(genesFile)
				if err != nil {
					return err
				}
				events = svsummary.FilterGenes(events, genes)
			}
			svsummary.SortBreakDancer(events)

			return writeOutput(outputFile, func(w io.Writer) error {
				return svsummary.WriteBreakDancer(w, events)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&genesFile, "genes", "", "Keep only events touching a gene listed in this file")
	return cmd
}

// readGeneList reads the first column of each line.
func readGeneList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := tsv.ReadRecords(f)
	if err != nil {
		return nil, err
	}
	genes := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) > 0 && rec[0] != "" {
			genes = append(genes, rec[0])
		}
	}
	return genes, nil
}

func newEventsCmd() *cobra.Command {
	var (
		dbPath     string
		gene       string
		sampleID   string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query stored structural variant events",
		Example: `  munge events --db events.duckdb --gene EGFR
  munge events --db events.duckdb --sample 6037_E05_OPXv4_NA12878_MA0013`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var events []duckdb.Event
			if gene != "" {
				events, err = store.EventsByGene(gene)
			} else {
				events, err = store.EventsBySample(sampleID)
			}
			if err != nil {
				return err
			}

			return writeOutput(outputFile, func(w io.Writer) error {
				return writeEvents(w, events)
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database written by munge pindel --db")
	cmd.Flags().StringVar(&gene, "gene", "", "Events touching this gene")
	cmd.Flags().StringVar(&sampleID, "sample", "", "Events of this sample")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagsOneRequired("gene", "sample")
	cmd.MarkFlagsMutuallyExclusive("gene", "sample")
	return cmd
}

func writeEvents(w io.Writer, events []duckdb.Event) error {
	tw := output.NewTabWriter(w, "Sample", "Gene", "Gene_Region", "Event_Type", "Size", "Chrom", "Start", "End", "Reads", "Transcripts", "Source")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, e := range events {
		if err := tw.WriteMap(map[string]string{
			"Sample":      e.Sample,
			"Gene":        e.Gene,
			"Gene_Region": e.GeneRegion,
			"Event_Type":  e.Type,
			"Size":        formatInt(e.Size),
			"Chrom":       e.Chrom,
			"Start":       formatInt(e.Start),
			"End":         formatInt(e.End),
			"Reads":       formatInt(e.Reads),
			"Transcripts": e.Transcripts,
			"Source":      e.Source,
		}); err != nil {
			return err
		}
	}
	return tw.Flush()
}
