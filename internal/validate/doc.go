// Package validate evaluates rule profiles over the decoded page stream.
//
// Pages are demultiplexed by link id onto lazily created worker goroutines,
// one per link, so the per-link ordering invariants can be checked without
// ever buffering more than a bounded window of pages. Each worker runs a
// LinkValidator: single-record field checks plus a frame state machine that
// tracks the open/payload/close cycle of heartbeat frames.
//
// Validators report through the Sink interface. Implementations must be safe
// for concurrent use; every worker shares the one sink.
package validate
