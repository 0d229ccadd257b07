package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daqtools/rdhscan/internal/config"
)

// Exit codes. Scripts branch on these, so they are part of the interface.
const (
	// exitOK means the run completed and every check passed.
	exitOK = 0

	// exitUsage means the run never started: bad flags, missing input,
	// unreadable checks file.
	exitUsage = 1

	// exitFatal means processing stopped early on an unrecoverable
	// condition, such as an undecodable first page or a read failure.
	exitFatal = 2

	// exitFindings means the run completed but findings reached error
	// severity.
	exitFindings = 3

	// exitInterrupted means the run was cancelled by SIGINT or SIGTERM.
	exitInterrupted = 130
)

// exitError carries the process exit code out of a cobra RunE function.
type exitError struct {
	code int
	err  error
}

// Error implements the error interface.
func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// Unwrap returns the underlying cause.
func (e *exitError) Unwrap() error { return e.err }

// NewRootCmd creates the root command for rdhscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rdhscan",
		Short: "Validator and inspector for raw detector readout captures",
		Long: `rdhscan validates and inspects raw binary readout captures: sequences of
RDH-headed pages as written to disk by the data acquisition chain.

The check commands decode every page, demultiplex pages per readout link,
and verify header fields, frame structure, and running counters. The view
commands render the capture as a table for manual inspection.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().IntP("verbosity", "v", config.DefaultVerbosity,
		"Log detail on stderr, 0 (errors only) to 4 (per-word trace)")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewViewCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, ee.err)
			}
			return ee.code
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	return exitOK
}

// getVerbosity retrieves the verbosity flag from the command or its root.
func getVerbosity(cmd *cobra.Command) int {
	verbosity, err := cmd.Flags().GetInt("verbosity")
	if err != nil {
		verbosity, err = cmd.Root().PersistentFlags().GetInt("verbosity")
		if err != nil {
			return config.DefaultVerbosity
		}
	}
	return verbosity
}
