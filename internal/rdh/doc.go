// Package rdh decodes Raw Data Header (RDH) pages, the fixed 64-byte records
// that prefix every chunk of readout data in a capture.
//
// An RDH is self-describing: it carries its own version, header size, and the
// memory size of the page (header plus payload), which is what lets a scanner
// locate the next page without any outer file framing. Versions 6 and 7 share
// the same 64-byte layout; version 7 additionally defines the data format
// byte that selects how payload words are packed.
//
// All multi-byte fields are little-endian, matching the CRU firmware output.
package rdh
