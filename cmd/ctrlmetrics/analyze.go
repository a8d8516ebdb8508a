package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/ctrlmetrics/internal/output"
	"github.com/panbanda/ctrlmetrics/internal/progress"
	"github.com/panbanda/ctrlmetrics/internal/service/analysis"
	scannerSvc "github.com/panbanda/ctrlmetrics/internal/service/scanner"
	"github.com/panbanda/ctrlmetrics/pkg/analyzer/controller"
	"github.com/panbanda/ctrlmetrics/pkg/config"
	"github.com/panbanda/ctrlmetrics/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// stdoutTarget selects standard output instead of a report file.
const stdoutTarget = "-"

func analyzeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one <root> argument, got %d", c.NArg())
	}
	root := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Output.Verbose)

	scanResult, err := scannerSvc.New(
		scannerSvc.WithConfig(cfg),
		scannerSvc.WithWarningHandler(func(path string, err error) {
			log.WithField("path", path).Warnf("skipping unreadable entry: %v", err)
		}),
	).ScanRoot(root)
	if err != nil {
		return err
	}
	log.WithField("dir", scanResult.SourceDir).Debugf("found %d candidate files", len(scanResult.Files))

	opts := analysis.ControllerOptions{
		MaxWorkers: c.Int("jobs"),
		NoCache:    c.Bool("no-cache"),
		OnSkip:     skipLogger(log),
		OnRecord: func(r models.Record) {
			fmt.Fprintf(c.App.Writer, "Processed %s...\n", r.Name)
		},
	}
	var tracker *progress.Tracker
	if c.Bool("progress") {
		tracker = progress.NewTracker("Analyzing controllers", len(scanResult.Files))
		opts.OnProgress = tracker.Tick
	}

	report, err := analysis.New(analysis.WithConfig(cfg)).AnalyzeControllers(c.Context, scanResult.Files, opts)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		if errors.Is(err, models.ErrNoControllers) {
			return fmt.Errorf("%w under %s", err, scanResult.SourceDir)
		}
		return err
	}

	return writeReport(c.App.Writer, report, format, cfg.Output)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// applyFlags lets explicit command-line flags override file configuration.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("output") {
		cfg.Output.File = c.String("output")
	}
	if c.Bool("cache") {
		cfg.Cache.Enabled = true
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
}

func skipLogger(log *logrus.Logger) controller.SkipFunc {
	return func(path string, err error) {
		entry := log.WithField("path", path)
		if errors.Is(err, controller.ErrNotController) {
			entry.Debug("not a controller")
			return
		}
		entry.Warnf("skipped: %v", err)
	}
}

func writeReport(stdout io.Writer, report *models.Report, format output.Format, cfg config.OutputConfig) error {
	renderable := output.NewControllerReport(report)

	if cfg.File == "" || cfg.File == stdoutTarget {
		colored := cfg.Color && !color.NoColor
		return output.NewWriterFormatter(format, stdout, colored).Output(renderable)
	}

	formatter, err := output.NewFormatter(format, cfg.File, false)
	if err != nil {
		return err
	}
	if err := formatter.Output(renderable); err != nil {
		formatter.Close()
		return err
	}
	if err := formatter.Close(); err != nil {
		return err
	}

	abs, err := filepath.Abs(cfg.File)
	if err != nil {
		abs = cfg.File
	}
	color.New(color.FgGreen).Fprintf(stdout, "Wrote results to %s\n", abs)
	return nil
}
