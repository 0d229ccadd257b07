// Package database provides persistent storage of run reports using SQLite.
//
// Every completed run can be appended to a local database so that the
// history of a capture (or a whole production period) is queryable later
// with plain SQL. The schema keeps two tables:
//
//   - runs: one row per processed capture, including the full report as JSON
//   - findings: one row per finding, for querying defects across runs
//
// The database uses modernc.org/sqlite, a pure Go SQLite implementation,
// so no CGo or external dependencies are required.
package database
