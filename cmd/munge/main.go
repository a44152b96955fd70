// Package main provides the munge command-line tool.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/munge/internal/annotate"
	"github.com/inodb/munge/internal/cache"
	"github.com/inodb/munge/internal/chrom"
	"github.com/inodb/munge/internal/duckdb"
	"github.com/inodb/munge/internal/sample"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "munge",
		Short:         "Genomic interval annotation and report munging",
		Long:          "munge annotates genomic positions and intervals against a refGene table and builds the pipeline's summary reports.",
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.munge.yaml)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug messages")

	root.AddCommand(
		newAnnotateCmd(),
		newPindelCmd(),
		newBreakDancerCmd(),
		newEventsCmd(),
		newCNVCmd(),
		newMSICountCmd(),
		newMSIBaselineCmd(),
		newSummaryCmd(),
		newAssaySummaryCmd(),
		newMonoSeqCmd(),
		newAmpliconMetricsCmd(),
		newConfigCmd(),
	)
	return root
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".munge")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("MUNGE")
	viper.AutomaticEnv()
	viper.SetDefault("workers", 0)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// chromosomes returns the configured allow-list, or the default one.
func chromosomes() *chrom.Set {
	if viper.IsSet("chromosomes") {
		return chrom.NewSet(viper.GetStringMapString("chromosomes"))
	}
	return chrom.Default()
}

// assays returns the default library map extended by configured entries.
func assays() sample.AssayMap {
	m := sample.DefaultAssays()
	for k, v := range viper.GetStringMapString("assays") {
		m[k] = v
	}
	return m
}

func workers() int {
	return viper.GetInt("workers")
}

// loadIndex loads refGenePath into an interval index, going through the
// transcript cache when cache_dir is configured.
func loadIndex(refGenePath string, chroms *chrom.Set) (*cache.Index, error) {
	loader := cache.NewRefGeneLoader(refGenePath, chroms)
	loader.SetLogger(logger)

	var (
		transcripts []*cache.Transcript
		err         error
	)
	if dir := viper.GetString("cache_dir"); dir != "" {
		var hit bool
		transcripts, hit, err = duckdb.NewTranscriptCache(dir).LoadTranscripts(loader, refGenePath, chroms)
		if err == nil {
			logger.Debug("transcript cache", zap.String("dir", dir), zap.Bool("hit", hit))
		}
	} else {
		transcripts, err = loader.Load()
	}
	if err != nil {
		return nil, err
	}

	idx, err := cache.BuildIndex(transcripts)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded refgene",
		zap.String("path", refGenePath),
		zap.Int("transcripts", idx.TranscriptCount()),
		zap.Int("chromosomes", len(idx.Chromosomes())))
	return idx, nil
}

// loadResolver builds a resolver over refGenePath.
func loadResolver(refGenePath string) (*annotate.Resolver, error) {
	chroms := chromosomes()
	idx, err := loadIndex(refGenePath, chroms)
	if err != nil {
		return nil, err
	}
	r := annotate.NewResolver(idx, chroms)
	r.SetLogger(logger)
	return r, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens path for writing; empty or "-" is stdout.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// writeOutput runs write against path and closes it, keeping the first error.
func writeOutput(path string, write func(io.Writer) error) (err error) {
	out, err := createOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return write(out)
}
