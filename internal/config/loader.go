package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default checks file name.
const DefaultConfigFile = ".rdhscan"

// Checks are the expected end-of-run counters for a capture. Values are
// compared against what was actually decoded; zero disables a check.
type Checks struct {
	// Pages is the expected total page count.
	Pages uint64 `yaml:"pages"`

	// Triggers is the expected total trigger count.
	Triggers uint64 `yaml:"triggers"`

	// TriggerPeriod is the expected spacing between triggers in bunch
	// crossings.
	TriggerPeriod uint32 `yaml:"trigger_period"`
}

// File is the parsed checks file.
type File struct {
	// Checks holds the expected counters.
	Checks Checks `yaml:"checks"`
}

// LoadConfigFile loads expected counters from a YAML checks file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse checks file %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the checks file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .rdhscan in the current directory
// 3. Look for .rdhscan in the user's home directory
//
// Returns the path to the checks file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
