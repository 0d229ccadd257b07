package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/daqtools/rdhscan/internal/config"
	"github.com/daqtools/rdhscan/internal/database"
	"github.com/daqtools/rdhscan/internal/log"
	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/report"
	"github.com/daqtools/rdhscan/internal/stats"
	"github.com/daqtools/rdhscan/internal/stream"
	"github.com/daqtools/rdhscan/internal/validate"
)

// pageBuffer is the depth of the channel between the scanner and the
// dispatcher. It decouples decoding from rule evaluation without letting
// the decoder run arbitrarily far ahead.
const pageBuffer = 64

// NewCheckCmd creates the check command and its profile subcommands.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a raw readout capture",
		Long: `Check decodes every page of a raw readout capture, routes pages to
per-link validators, and reports every defect found.

Profiles:
  sanity  single-record checks: header field ranges, version consistency,
          and frame marker ordering
  all     everything sanity checks, plus cross-page checks per link:
          counter monotonicity, payload size cross-checks, missing-stop
          detection, and expected-counter comparisons

Appending "its" enables the ITS payload word field checks on top of the
selected profile.

Examples:
  # Structural checks only
  rdhscan check sanity capture.raw

  # Full checks including ITS payload words
  rdhscan check all its capture.raw

  # Full checks against expected counters from a checks file
  rdhscan check all -c checks.yaml capture.raw

  # Stop after ten errors and emit the report as JSON
  rdhscan check all -e 10 --json capture.raw

Checks file (.rdhscan) example:
  checks:
    pages: 4096
    triggers: 128
    trigger_period: 198`,
	}

	// Check behavior flags
	cmd.PersistentFlags().Uint64P("max-errors", "e", 0,
		"Stop after this many findings at error severity (0 = unlimited)")
	cmd.PersistentFlags().IntP("filter-link", "f", config.FilterNone,
		"Only validate the given link id (0-255); other pages are counted and skipped")

	// Configuration file
	cmd.PersistentFlags().StringP("config", "c", "",
		"Checks file path (default: .rdhscan in current or home directory)")

	// Report flags
	cmd.PersistentFlags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.PersistentFlags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.PersistentFlags().StringP("output", "o", "",
		"Write the report to the specified file in addition to stdout")
	cmd.PersistentFlags().String("output-db", "",
		fmt.Sprintf("Append the report to the SQLite database at the given path (e.g. %s)", config.DefaultDBPath()))

	cmd.AddCommand(newCheckProfileCmd(model.ProfileSanity))
	cmd.AddCommand(newCheckProfileCmd(model.ProfileFull))

	return cmd
}

// newCheckProfileCmd creates one profile subcommand of check. The sanity and
// all subcommands differ only in the profile they run.
func newCheckProfileCmd(profile model.Profile) *cobra.Command {
	short := "Run single-record checks"
	if profile == model.ProfileFull {
		short = "Run all checks, including cross-page checks per link"
	}
	return &cobra.Command{
		Use:   profile.String() + " [its] <capture>",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckCmd(cmd, args, profile)
		},
	}
}

// runCheckCmd executes one check run end to end.
func runCheckCmd(cmd *cobra.Command, args []string, profile model.Profile) error {
	cfg, err := buildCheckConfig(cmd, args, profile)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitUsage, err: fmt.Errorf("configuration error: %w", err)}
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbosity)
	slog.SetDefault(logger)

	// Handle interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runReport, err := runChecks(ctx, cfg, logger)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	// An interrupted run reflects an arbitrary prefix of the capture; its
	// partial report is discarded rather than presented as a verdict.
	if ctx.Err() != nil {
		return &exitError{code: exitInterrupted}
	}

	if err := writeReport(cfg, runReport); err != nil {
		logger.Error("report failed", "error", err)
	}
	if cfg.DBPath != "" {
		if err := exportReport(cfg, runReport, logger); err != nil {
			logger.Error("failed to save report", "db", cfg.DBPath, "error", err)
		}
	}

	switch {
	case runReport.Fatal != "":
		return &exitError{code: exitFatal}
	case runReport.ErrorCount() > 0:
		return &exitError{code: exitFindings}
	default:
		return nil
	}
}

// buildCheckConfig creates a Config from cobra command flags and arguments.
func buildCheckConfig(cmd *cobra.Command, args []string, profile model.Profile) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Profile = profile
	cfg.Verbosity = getVerbosity(cmd)

	// Positional arguments: an optional target system, then the capture.
	if len(args) == 2 {
		cfg.Target = args[0]
		cfg.InputFile = args[1]
	} else {
		cfg.InputFile = args[0]
	}

	var err error

	cfg.MaxErrors, err = cmd.Flags().GetUint64("max-errors")
	if err != nil {
		return nil, err
	}

	cfg.FilterLink, err = cmd.Flags().GetInt("filter-link")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load expected counters from the checks file.
	// If user explicitly specified a checks file path, error if not found.
	// If no path specified, silently run without expectations.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Checks, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load checks file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("checks file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.DBPath, err = cmd.Flags().GetString("output-db")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runChecks opens the capture and drives the scanner and dispatcher to the
// end of the stream. The returned report is complete and final; an error
// return means the capture could not be opened at all.
func runChecks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Report, error) {
	f, err := os.Open(cfg.InputFile) //nolint:gosec // User-provided capture path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	var collectorOpts []stats.Option
	if cfg.MaxErrors > 0 {
		collectorOpts = append(collectorOpts, stats.WithMaxErrors(cfg.MaxErrors))
	}
	if cfg.Checks != nil {
		collectorOpts = append(collectorOpts, stats.WithExpectations(stats.Expectations{
			Pages:    cfg.Checks.Checks.Pages,
			Triggers: cfg.Checks.Checks.Triggers,
		}))
	}
	collector := stats.NewCollector(cfg.InputFile, cfg.Profile, collectorOpts...)

	scanner := stream.NewScanner(f,
		stream.WithFindingSink(collector.RecordFinding),
		stream.WithLogger(logger),
	)

	dispatcherOpts := []validate.DispatcherOption{
		validate.WithITSChecks(cfg.ITSChecks()),
		validate.WithErrorLimit(collector.LimitReached),
		validate.WithFirstPageHook(collector.ObserveStream),
	}
	if cfg.FilterLink != config.FilterNone {
		dispatcherOpts = append(dispatcherOpts, validate.WithFilterLink(cfg.FilterLink))
	}
	if cfg.Checks != nil && cfg.Checks.Checks.TriggerPeriod > 0 {
		dispatcherOpts = append(dispatcherOpts, validate.WithTriggerPeriod(cfg.Checks.Checks.TriggerPeriod))
	}
	dispatcher := validate.NewDispatcher(collector, cfg.Profile, dispatcherOpts...)

	logger.Info("starting run",
		"input", cfg.InputFile,
		"profile", cfg.Profile.String(),
		"its_checks", cfg.ITSChecks(),
	)
	start := time.Now()

	// The dispatcher stops reading when the error limit trips or the
	// context is cancelled; cancelling scanCtx then unblocks the scanner.
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages := make(chan stream.CDP, pageBuffer)
	scanDone := make(chan error, 1)
	go func() {
		scanDone <- scanner.Run(scanCtx, pages)
	}()

	dispErr := dispatcher.Run(scanCtx, pages)
	cancel()
	scanErr := <-scanDone

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
		var decodeErr *stream.DecodeError
		if errors.As(scanErr, &decodeErr) && decodeErr.Kind == stream.KindTruncated {
			collector.RecordFinding(model.NewFinding(
				model.CodeTruncated, model.NoLink, decodeErr.Offset, decodeErr.Err.Error()))
		}
		collector.RecordFatal(scanErr.Error())
	}

	switch {
	case errors.Is(dispErr, validate.ErrErrorLimit):
		logger.Warn("error limit reached, stopping", "max_errors", cfg.MaxErrors)
	case dispErr != nil && !errors.Is(dispErr, context.Canceled):
		collector.RecordFatal(dispErr.Error())
	}

	return collector.Finalize(time.Since(start)), nil
}

// writeReport writes the report in the requested format to stdout and,
// when configured, to the report file.
func writeReport(cfg *config.Config, runReport *model.Report) error {
	writers := []report.Writer{formatWriter(cfg, os.Stdout)}

	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writers = append(writers, formatWriter(cfg, f))
	}

	_, err := report.NewMultiWriter(writers...).Write(runReport)
	return err
}

// formatWriter creates the report writer for the configured format.
func formatWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewTextWriter(output)
	}
}

// exportReport appends the report to the SQLite database.
func exportReport(cfg *config.Config, runReport *model.Report, logger *slog.Logger) error {
	sdb, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer sdb.Close()

	if err := sdb.SaveReport(context.Background(), runReport); err != nil {
		return err
	}
	logger.Info("report saved to database", "db", cfg.DBPath)
	return nil
}
