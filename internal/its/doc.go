// Package its decodes the ITS status words embedded in page payloads.
//
// Payloads carry a sequence of 80-bit (10-byte) GBT words. A word's last
// byte identifies it: IHW opens a heartbeat frame, TDH starts trigger data,
// TDT trails it (carrying the stop flag), and DDW0 is the diagnostic word
// closing a data-taking segment. Any other identifier is detector data.
//
// How words are packed depends on the RDH data format: format 0 pads every
// word to 16 bytes, format 2 packs the 10-byte words back to back. WordStride
// returns the spacing so callers can walk a payload without caring which
// flavor produced it.
package its
