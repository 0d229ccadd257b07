// Package stats aggregates the observations of a run into one report.
//
// The Collector is the single sink shared by the scanner and every per-link
// validator. Recording methods are safe for concurrent use; Finalize must
// only be called after all producers have stopped, which the dispatcher
// guarantees by joining its workers before returning.
package stats
