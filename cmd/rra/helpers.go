package main

import (
	"io"
	"log/slog"

	"github.com/panbanda/rra/pkg/config"
	"github.com/urfave/cli/v2"
)

// loadConfig loads the file named by --config, or searches the standard
// locations. A validation error is returned with the loaded result.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

// newLogger returns a debug-level text logger on w when verbose, else a
// logger that drops everything.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// applyRunFlags overrides config values with flags set on the command line.
func applyRunFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("percentile") {
		cfg.Analysis.MaxPercentile = c.Float64("percentile")
	}
	if c.IsSet("passes") {
		cfg.Analysis.PassesPerGroup = c.Int("passes")
	}
	if c.IsSet("seed") {
		cfg.Analysis.Seed = c.Uint64("seed")
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	if c.IsSet("max-weighted-items") {
		cfg.Analysis.MaxWeightedItems = c.Int("max-weighted-items")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("top") {
		cfg.Output.Top = c.Int("top")
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	} else if c.Bool("cache") {
		cfg.Cache.Enabled = true
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
}
