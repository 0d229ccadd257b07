package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daqtools/rdhscan/internal/log"
	"github.com/daqtools/rdhscan/internal/stream"
	"github.com/daqtools/rdhscan/internal/view"
)

// pageView is the common surface of the table renderers.
type pageView interface {
	Page(p stream.CDP)
	Flush() error
}

// NewViewCmd creates the view command and its mode subcommands.
func NewViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render a raw readout capture as a table",
		Long: `View decodes a capture and renders it for manual inspection, without
running any checks.

Modes:
  rdh  one line per page header
  hbf  one line per page header and per status word, so the heartbeat
       frame structure reads top to bottom

Examples:
  rdhscan view rdh capture.raw
  rdhscan view hbf capture.raw | less`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rdh <capture>",
		Short: "Show one line per page header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewCmd(cmd, args[0], view.NewRDHView(os.Stdout), true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "hbf <capture>",
		Short: "Show the heartbeat frame structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewCmd(cmd, args[0], view.NewHBFView(os.Stdout), false)
		},
	})

	return cmd
}

// runViewCmd renders every page of the capture through v. The header-only
// mode skips payload bytes entirely; the frame mode needs them to walk the
// status words.
func runViewCmd(cmd *cobra.Command, inputFile string, v pageView, headerOnly bool) error {
	logger := log.NewLogger(os.Stderr, getVerbosity(cmd))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(inputFile) //nolint:gosec // User-provided capture path is intentional
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	defer f.Close()

	scanner := stream.NewScanner(f,
		stream.WithLogger(logger),
		stream.WithSkipPayload(headerOnly),
	)

	for {
		select {
		case <-ctx.Done():
			_ = v.Flush() //nolint:errcheck // Best effort before exiting
			return &exitError{code: exitInterrupted}
		default:
		}

		p, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = v.Flush() //nolint:errcheck // Best effort before reporting
			return &exitError{code: exitFatal, err: err}
		}
		v.Page(p)
	}

	return v.Flush()
}
