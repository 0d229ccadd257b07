// Package model defines the core data types shared across rdhscan:
// severities, the error-code registry, findings, and the aggregated report.
//
// Every structural defect the tool can detect is identified by a stable
// numeric code registered in this package. The registry is the single source
// of truth for code metadata (severity, rule profile, summary text); its
// global uniqueness is enforced by a registry test rather than runtime logic.
package model
