package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when no capture file is specified.
	ErrNoInput = errors.New("no input specified: provide a capture file")

	// ErrInvalidVerbosity is returned when the verbosity is outside 0-4.
	ErrInvalidVerbosity = errors.New("invalid verbosity: must be between 0 and 4")

	// ErrInvalidFilterLink is returned when the link filter is outside the
	// 8-bit link id range. Use -1 (the default) to disable filtering.
	ErrInvalidFilterLink = errors.New("invalid filter link: must be between 0 and 255")

	// ErrInvalidTarget is returned for an unknown check target.
	ErrInvalidTarget = errors.New("invalid target: only \"its\" is supported")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConfigNotFound is returned when the checks file does not exist.
	ErrConfigNotFound = errors.New("checks file not found")
)
