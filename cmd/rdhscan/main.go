// Package main provides the entry point for the rdhscan CLI.
//
// rdhscan validates and inspects raw binary readout captures: sequences of
// RDH-headed pages as written to disk by the data acquisition chain.
//
// Usage:
//
//	rdhscan check sanity <capture>
//	rdhscan check all its <capture>
//	rdhscan view rdh <capture>
//
// See --help for all available options.
package main

import "os"

// main is the entry point for rdhscan.
func main() {
	os.Exit(Execute())
}
