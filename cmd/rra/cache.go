package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/rra/internal/cache"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached results",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache statistics",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached results",
				Action: runCacheClear,
			},
		},
	}
}

// openCache opens the configured cache directory whether or not caching is
// enabled for runs.
func openCache(c *cli.Context) (*cache.Cache, string, error) {
	result, err := loadConfig(c)
	if err != nil {
		return nil, "", err
	}
	dir := result.Config.Cache.Dir
	store, err := cache.New(dir, result.Config.Cache.TTL, true)
	return store, dir, err
}

func runCacheStats(c *cli.Context) error {
	store, dir, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Cache: %s\n", dir)
	fmt.Fprintf(c.App.Writer, "  Entries: %d\n", stats.Entries)
	fmt.Fprintf(c.App.Writer, "  Size:    %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(c.App.Writer, "  Oldest:  %s ago\n", stats.OldestAge.Round(time.Second))
		fmt.Fprintf(c.App.Writer, "  Newest:  %s ago\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	store, dir, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "Cleared cache %s\n", dir)
	return nil
}
