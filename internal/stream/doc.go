// Package stream turns a raw capture into a forward-only sequence of decoded
// pages.
//
// Decoding is fundamentally sequential: each header's declared memory size is
// what locates the next header, so page boundaries cannot be discovered out
// of order. The Scanner exposes the sequence two ways: Next for inline
// consumers (the view commands) and Run, which pumps pages into a bounded
// channel so the rule-evaluation stages can lag behind without unbounded
// buffering.
//
// Recovery policy: a malformed header is reported through the finding sink
// and the scanner skips the header's declared extent to resynchronize at the
// next presumed page boundary. Bytes are never discarded silently. A header
// whose declared extent is unusable, a truncation, or any I/O failure ends
// the stream with an error; the caller decides the exit status.
package stream
