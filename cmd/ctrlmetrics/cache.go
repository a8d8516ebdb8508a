package main

import (
	"fmt"
	"time"

	"github.com/panbanda/ctrlmetrics/internal/cache"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the analysis cache",
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

func openCache(c *cli.Context) (*cache.Cache, error) {
	result, err := loadConfigResult(c)
	if err != nil {
		return nil, err
	}
	cfg := result.Config.Cache
	return cache.New(cfg.Dir, cfg.TTL, true)
}

func runCacheStats(c *cli.Context) error {
	ch, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := ch.GetStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Directory: %s\n", ch.Dir())
	fmt.Fprintf(c.App.Writer, "Entries:   %d\n", stats.Entries)
	fmt.Fprintf(c.App.Writer, "Size:      %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(c.App.Writer, "Oldest:    %s ago\n", stats.OldestAge.Round(time.Second))
		fmt.Fprintf(c.App.Writer, "Newest:    %s ago\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	ch, err := openCache(c)
	if err != nil {
		return err
	}
	if err := ch.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cleared %s\n", ch.Dir())
	return nil
}
