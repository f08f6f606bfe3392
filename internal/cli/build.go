package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/marka/internal/model"
	"github.com/ppiankov/marka/internal/pipeline"
)

var (
	outSnapshot string
	outXLSX     string
	workers     int
	chunkLines  int
	lookahead   int
	codePage    int
	useCache    bool
	noCache     bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [source]",
	Short: "Parse the nomenclature and write the classified catalog snapshot",
	Long: `Build parses the RTF export of the tariff nomenclature:
- Decode escaped text (\uN and \'hh escapes)
- Pair every code cell with its description
- Classify each code by the mandatory and experimental prefix tables
- Write the catalog snapshot as JSON, optionally as XLSX

The source defaults to source.path from the configuration.

Example:
  marka build
  marka build data/tnved.rtf --out data/catalog.json
  marka build data/tnved.rtf --xlsx catalog.xlsx --workers 4
  marka build --cache`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	defaults := model.DefaultConfig()

	// Output flags
	buildCmd.Flags().StringVar(&outSnapshot, "out", defaults.Output.Snapshot, "output JSON snapshot path")
	buildCmd.Flags().StringVar(&outXLSX, "xlsx", "", "output XLSX path (optional)")

	// Parser flags
	buildCmd.Flags().IntVar(&workers, "workers", defaults.Parser.Workers, "parallel parse workers (1 parses sequentially)")
	buildCmd.Flags().IntVar(&chunkLines, "chunk-lines", defaults.Parser.ChunkLines, "lines per parallel chunk")
	buildCmd.Flags().IntVar(&lookahead, "lookahead", defaults.Parser.Lookahead, "lines searched for a description after a code")
	buildCmd.Flags().IntVar(&codePage, "codepage", defaults.Source.CodePage, "ANSI code page of \\'hh escapes (1251, 1250, 1252, 866)")
	buildCmd.Flags().BoolVar(&useCache, "cache", false, "reuse snapshots stored under cache.dir")
	buildCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force a fresh parse)")
}

// applyBuildFlags overrides configuration values with flags set on the
// command line
func applyBuildFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Snapshot = outSnapshot
	}
	if flags.Changed("xlsx") {
		cfg.Output.XLSX = outXLSX
	}
	if flags.Changed("workers") {
		cfg.Parser.Workers = workers
	}
	if flags.Changed("chunk-lines") {
		cfg.Parser.ChunkLines = chunkLines
	}
	if flags.Changed("lookahead") {
		cfg.Parser.Lookahead = lookahead
	}
	if flags.Changed("codepage") {
		cfg.Source.CodePage = codePage
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = useCache
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	applyBuildFlags(cmd, cfg)

	source := cfg.Source.Path
	if len(args) == 1 {
		source = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	p.SetOutput(cmd.OutOrStdout())
	if cfg.Output.Verbose {
		p.SetProgress(cmd.ErrOrStderr())
		fmt.Fprintf(cmd.ErrOrStderr(), "Building catalog from: %s\n", source)
		fmt.Fprintf(cmd.ErrOrStderr(), "Workers: %d, lookahead: %d, cache: %v\n\n",
			cfg.Parser.Workers, cfg.Parser.Lookahead, cfg.Cache.Enabled)
	}

	result, err := p.Build(ctx, source)
	if err != nil {
		if errors.Is(err, pipeline.ErrSourceNotFound) {
			return fmt.Errorf("%w (pass the nomenclature RTF as an argument or set source.path)", err)
		}
		return fmt.Errorf("build failed: %w", err)
	}

	if err := p.RenderResult(result, cfg.Output.Snapshot, cfg.Output.XLSX, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
