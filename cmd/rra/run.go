package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/panbanda/rra/internal/cache"
	"github.com/panbanda/rra/internal/input"
	"github.com/panbanda/rra/internal/output"
	"github.com/panbanda/rra/internal/progress"
	"github.com/panbanda/rra/pkg/analyzer/fdr"
	"github.com/panbanda/rra/pkg/analyzer/lovalue"
	"github.com/panbanda/rra/pkg/analyzer/rra"
	"github.com/panbanda/rra/pkg/config"
	"github.com/panbanda/rra/pkg/models"
	"github.com/urfave/cli/v2"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Compute lo-values and FDRs for every group in an input file",
		Description: `Examples:
  rra run -i sgrna_rank.txt -o gene_summary.txt
  rra run -i sgrna_rank.txt -o gene_summary.txt -p 0.25 --passes 1000
  rra run -i sgrna_rank.txt -f json --top 0 > result.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input file of ranked items",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the tab-separated group report to file",
			},
			&cli.Float64Flag{
				Name:    "percentile",
				Aliases: []string{"p"},
				Value:   lovalue.DefaultMaxPercentile,
				Usage:   "Max percentile of items counted in a group (0.0-1.0)",
			},
			&cli.IntFlag{
				Name:  "passes",
				Value: fdr.DefaultPassesPerGroup,
				Usage: "Null groups drawn per real group for FDR estimation",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Value: fdr.DefaultSeed,
				Usage: "Seed of the null distribution",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers (0 = 2x CPU count)",
			},
			&cli.IntFlag{
				Name:  "max-weighted-items",
				Value: lovalue.DefaultMaxWeightedItems,
				Usage: "Largest group scored with inclusion probabilities (0 = no limit below 62)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   config.DefaultFormat,
				Usage:   "Terminal output format: text, tsv, json, yaml, markdown",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: config.DefaultTop,
				Usage: "Groups shown in text and markdown output (0 = all)",
			},
			&cli.BoolFlag{
				Name:  "cache",
				Usage: "Enable the result cache",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the result cache",
			},
		},
		Action: runRun,
	}
}

func runRun(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	applyRunFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Output.Verbose, c.App.ErrWriter)
	if loaded.Source != "" {
		logger.Info("loaded config", "path", loaded.Source)
	}

	inputPath := c.String("input")
	spinner := progress.NewSpinner("Reading input...")
	ds, inputHash, err := input.ReadFile(inputPath)
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.FinishSuccess()
	fmt.Fprintf(c.App.ErrWriter, "%d items\n%d groups\n%d lists\n", ds.RecordCount(), len(ds.Groups), len(ds.Lists))

	notices := output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, cfg.Output.Color)
	if len(ds.Groups) == 0 {
		notices.Warning("No groups found in %s", inputPath)
		return nil
	}

	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return err
	}
	a := cfg.Analysis
	key := cache.Key(inputHash, a.MaxPercentile, a.PassesPerGroup, a.Seed, a.CDFMaxError, a.MaxWeightedItems)

	var analysis *rra.Analysis
	if cache.Load(store, key, &analysis) {
		logger.Info("using cached result", "input", inputPath)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		analysis, err = analyze(ctx, cfg, ds, logger)
		if err != nil {
			return err
		}
		if err := cache.Store(store, key, analysis); err != nil {
			logger.Warn("failed to cache result", "error", err)
		}
	}

	if path := c.String("output"); path != "" {
		if err := output.SaveTSV(path, analysis.Groups); err != nil {
			return err
		}
		notices.Success("Wrote %d groups to %s", len(analysis.Groups), path)
	}

	formatter := output.NewWriterFormatter(output.ParseFormat(cfg.Output.Format), c.App.Writer, cfg.Output.Color)
	return formatter.Output(output.AnalysisReport(analysis, cfg.Output.Top))
}

// analyze runs the analyzer with one progress bar for group scoring and one
// for the null passes.
func analyze(ctx context.Context, cfg *config.Config, ds *models.Dataset, logger *slog.Logger) (*rra.Analysis, error) {
	a := cfg.Analysis
	analyzer := rra.New(
		rra.WithMaxPercentile(a.MaxPercentile),
		rra.WithMaxError(a.CDFMaxError),
		rra.WithPassesPerGroup(a.PassesPerGroup),
		rra.WithSeed(a.Seed),
		rra.WithWorkers(a.Workers),
		rra.WithMaxWeightedItems(a.MaxWeightedItems),
		rra.WithLogger(logger),
	)

	groupBar := progress.NewTracker("Scoring groups...", len(ds.Groups))
	passBar := progress.NewTracker("Null passes...", fdr.ScanPasses(a.PassesPerGroup*len(ds.Groups), len(ds.Groups)))
	var groupsDone sync.Once

	analysis, err := analyzer.AnalyzeWithProgress(ctx, ds, groupBar.Tick, func() {
		groupsDone.Do(groupBar.FinishSuccess)
		passBar.Tick()
	})
	groupsDone.Do(groupBar.FinishSuccess)
	if err != nil {
		passBar.FinishError(err)
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	passBar.FinishSuccess()
	return analysis, nil
}
