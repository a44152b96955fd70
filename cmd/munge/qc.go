package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/munge/internal/amplicon"
	"github.com/inodb/munge/internal/monoseq"
)

func newMonoSeqCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monoseq <monoseq-output> <site.xml> <output>",
		Short: "Reshape a MonoSeq homopolymer profile into one row",
		Long: `Write the coverage and every homopolymer length seen at a positive
frequency as a single tab-delimited row. Length columns are named
<length><base>-<site>, where the base comes from the site XML and the site
is the XML file name without its extension.`,
		Example: `  munge monoseq sample.monoseq.txt BAT25.xml sample.BAT25.tsv`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := monoseq.ReadSiteFile(args[1])
			if err != nil {
				return err
			}
			profile, err := monoseq.ReadProfileFile(args[0])
			if err != nil {
				return err
			}
			logger.Debug("monoseq profile",
				zap.String("site", site.Name),
				zap.String("base", site.Base),
				zap.Int("lengths", len(profile.Freqs)))
			return writeOutput(args[2], func(w io.Writer) error {
				return monoseq.Write(w, profile, site)
			})
		},
	}
}

func newAmpliconMetricsCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "amplicon-metrics <amplicons.csv> <run-metrics-dir> <project> <output>",
		Short: "Join amplicon run coverage with the panel's amplicon list",
		Long: `Find the single AmpliconCoverage table under run-metrics-dir, drop its
empty columns and inner-join it with the amplicon list on Target. The joined
table goes to output; each sample also gets
<outdir>/<pfx>/<pfx>.Amplicon_Analysis.txt, where pfx is the sample name with
dashes for underscores followed by -<project>.`,
		Example: `  munge amplicon-metrics amplicons.csv run/ PROJ PROJ.Combined_Amplicons.txt`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			amps, err := amplicon.ReadAmplicons(f)
			if err != nil {
				return err
			}

			path, err := amplicon.FindCoverageFile(args[1])
			if err != nil {
				return err
			}
			metrics, err := amplicon.ReadRunMetricsFile(path)
			if err != nil {
				return err
			}

			merged := amplicon.Merge(amps, metrics)
			logger.Info("amplicon metrics",
				zap.String("coverage", path),
				zap.Int("samples", len(metrics.Samples)),
				zap.Int("targets", len(merged.Rows)))
			if err := writeOutput(args[3], merged.Write); err != nil {
				return err
			}

			project := args[2]
			for _, s := range metrics.Samples {
				st, err := amplicon.SampleTable(merged, s)
				if err != nil {
					return err
				}
				out := amplicon.SamplePath(outDir, s, project)
				if err := writeOutput(out, st.Write); err != nil {
					return err
				}
				logger.Debug("amplicon sample", zap.String("sample", s), zap.String("output", out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "output", "Directory for per-sample reports")
	return cmd
}
