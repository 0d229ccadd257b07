package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/daqtools/rdhscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "rdhscan"

	// DefaultVerbosity logs warnings and above. Findings are part of the
	// report, not the log, so quiet runs still show every defect.
	DefaultVerbosity = 1

	// MaxVerbosity is the most detailed log level (per-page trace output).
	MaxVerbosity = 4

	// FilterNone disables link filtering.
	FilterNone = -1

	// TargetITS enables the ITS payload word checks.
	TargetITS = "its"
)

// Config holds all options for one run.
// This struct is populated from CLI flags and the optional checks file, and
// passed through the application via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CheckConfig, OutputConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// InputFile is the capture to process.
	InputFile string

	// Profile selects the rule profile for check runs.
	Profile model.Profile

	// Target is the detector system whose payload words are checked.
	// Empty means header and frame structure checks only.
	Target string

	// Verbosity is the log detail level, 0 (errors only) to 4 (trace).
	Verbosity int

	// MaxErrors stops processing after this many findings at error
	// severity or above. Zero means unlimited.
	MaxErrors uint64

	// FilterLink restricts validation to one link id, or FilterNone.
	FilterLink int

	// ConfigFilePath is the path to the checks file. If empty, the tool
	// searches for .rdhscan in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// Checks holds the expected counters loaded from the checks file.
	Checks *File

	// JSONReport switches the report to JSON output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport switches the report to Markdown output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is an additional report destination. When set, the report
	// is written both to stdout and to this file.
	ReportFile string

	// DBPath is the SQLite file finished reports are exported to.
	// Empty disables the export.
	DBPath string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because some defaults are non-zero (verbosity, the disabled
// link filter). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Profile:    model.ProfileSanity,
		Verbosity:  DefaultVerbosity,
		FilterLink: FilterNone,
	}
}

// XDGDataDir returns the XDG data directory for rdhscan.
// On Linux: ~/.local/share/rdhscan
// On macOS: ~/Library/Application Support/rdhscan
// On Windows: %LOCALAPPDATA%\rdhscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultDBPath returns the default location of the report database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataDir(), "reports.db")
}

// ITSChecks reports whether the ITS payload word checks are enabled.
func (c *Config) ITSChecks() bool {
	return c.Target == TargetITS
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before the capture is opened.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return ErrNoInput
	}
	if c.Verbosity < 0 || c.Verbosity > MaxVerbosity {
		return ErrInvalidVerbosity
	}
	if c.FilterLink != FilterNone && (c.FilterLink < 0 || c.FilterLink > 255) {
		return ErrInvalidFilterLink
	}
	if c.Target != "" && c.Target != TargetITS {
		return ErrInvalidTarget
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
