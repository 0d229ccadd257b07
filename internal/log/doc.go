// Package log provides the application logger, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Hexadecimal rendering of stream offsets in log output
//   - A numeric verbosity scale (0-4) mapped onto slog levels,
//     including a trace level below slog.LevelDebug
//   - Consistent log formatting across the application
//
// # Offsets
//
// Positions in a raw capture are universally communicated in hex: that is
// how they appear in report lines and how engineers address bytes in a hex
// dump. The OffsetHandler rewrites integer attributes whose key is "offset"
// (or ends in "_offset") so log lines agree with the report:
//
//	logger.Debug("loaded RDH", "offset", uint64(160))
//	// renders offset=0x000000A0
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbosity)
//	slog.SetDefault(logger)
package log
