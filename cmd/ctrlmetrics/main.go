package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:      "ctrlmetrics",
		Usage:     "Measure the complexity of reactive UI controllers in a Kotlin project",
		UsageText: "ctrlmetrics [flags] <root>",
		Version:   version,
		Description: `ctrlmetrics scans <root>/app/src/main for *Controller.kt files, keeps the
classes implementing ObservableTransformer<UiEvent, UiChange>, and reports
their constructor dependencies, Rx stream members and overall complexity.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CTRLMETRICS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "csv",
				Usage:   "Output format: csv, text, markdown, json, yaml, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "results.csv",
				Usage:   "Write the report to this file (- for stdout)",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Files analyzed concurrently (0 = 2x CPUs)",
			},
			&cli.BoolFlag{
				Name:  "cache",
				Usage: "Reuse and store per-file results in the cache directory",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable caching even when the config enables it",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Action: analyzeAction,
		Commands: []*cli.Command{
			configCmd(),
			cacheCmd(),
		},
	}
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(1)
	}
}
