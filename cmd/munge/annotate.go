package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/output"
)

func newAnnotateCmd() *cobra.Command {
	var (
		outputFile string
		reportUTR  bool
	)

	cmd := &cobra.Command{
		Use:   "annotate <refgene> <chrom:pos[-end]>...",
		Short: "Annotate positions and intervals with genes, transcripts and regions",
		Long: `Annotate 0-based positions or half-open [start,end) intervals against a
refGene table. A position reports the genes and transcripts containing it; an
interval reports every transcript it overlaps.`,
		Example: `  munge annotate refGene.txt chr7:55242464
  munge annotate --utr refGene.txt 7:55242400-55242500 chrX:100`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := make([]annotate.Query, len(args)-1)
			for i, arg := range args[1:] {
				q, err := parseQuery(arg)
				if err != nil {
					return err
				}
				queries[i] = q
			}

			resolver, err := loadResolver(args[0])
			if err != nil {
				return err
			}
			resolver.SetReportUTR(reportUTR)

			results, err := resolver.ResolveAll(queries, workers())
			if err != nil {
				return err
			}
			return writeOutput(outputFile, func(w io.Writer) error {
				rw := output.NewResultWriter(w)
				if err := rw.WriteHeader(); err != nil {
					return err
				}
				for i, r := range results {
					if err := rw.Write(args[i+1], r); err != nil {
						return err
					}
				}
				return rw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&reportUTR, "utr", false, "Report exon hits outside the coding region as UTR")
	return cmd
}

// parseQuery parses chrom:pos as a point and chrom:start-end as a range.
func parseQuery(s string) (annotate.Query, error) {
	chromName, coords, ok := strings.Cut(s, ":")
	if !ok || chromName == "" {
		return annotate.Query{}, fmt.Errorf("invalid query %q: expected chrom:pos or chrom:start-end", s)
	}
	startStr, endStr, isRange := strings.Cut(coords, "-")
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return annotate.Query{}, fmt.Errorf("invalid query %q: bad position %q", s, startStr)
	}
	if !isRange {
		return annotate.Query{Kind: annotate.QueryPoint, Chrom: chromName, Start: start}, nil
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end <= start {
		return annotate.Query{}, fmt.Errorf("invalid query %q: end must be greater than start", s)
	}
	return annotate.Query{Kind: annotate.QueryRange, Chrom: chromName, Start: start, End: end}, nil
}
