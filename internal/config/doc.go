// Package config holds the run configuration and the optional checks file.
//
// Configuration flows one way: cobra flags populate a Config, the checks
// file (if any) is merged in, Validate runs once, and the resulting struct
// is passed down by dependency injection. Nothing reads configuration from
// global state after startup.
package config
