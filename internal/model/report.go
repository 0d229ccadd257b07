package model

import (
	"sort"
	"time"
)

// LinkStats holds the running counters of one readout link.
// Links are created on first sight of their id and finalized at end of
// stream; closed heartbeat frames only survive as the HBFs counter.
type LinkStats struct {
	// Pages is the number of RDH pages routed to this link.
	Pages uint64 `json:"pages"`

	// HBFs is the number of heartbeat frames counted for this link,
	// including incomplete frames flagged by a finding.
	HBFs uint64 `json:"hbfs"`

	// Errors is the number of findings at error severity or above
	// attributed to this link.
	Errors uint64 `json:"errors"`
}

// Report is the aggregate outcome of one run over one capture.
//
// Design decision: The report holds plain counters and the ordered finding
// list rather than any per-page data, so memory stays bounded regardless of
// capture size. Two runs over the same input produce identical reports; there
// is no hidden cross-run state.
type Report struct {
	// InputFile is the capture the report describes.
	InputFile string `json:"input_file"`

	// Profile is the rule profile the run was executed with.
	Profile string `json:"profile"`

	// Version is the RDH version observed on the first page. All
	// subsequent pages are expected to carry the same version.
	Version uint8 `json:"rdh_version"`

	// DataFormat is the payload data format observed on the first page.
	DataFormat uint8 `json:"data_format"`

	// TriggerType is the trigger-type bit mask of the first page.
	TriggerType uint32 `json:"trigger_type"`

	// TotalPages is the number of pages decoded, across all links.
	TotalPages uint64 `json:"total_pages"`

	// TotalHBFs is the number of heartbeat frames counted, across all links.
	TotalHBFs uint64 `json:"total_hbfs"`

	// TotalTriggers is the number of trigger headers counted, across all
	// links. Continuation headers resume an earlier trigger and do not count.
	TotalTriggers uint64 `json:"total_triggers"`

	// PayloadBytes is the total number of payload bytes consumed.
	PayloadBytes uint64 `json:"payload_bytes"`

	// FilteredPages is the number of pages skipped by a link filter.
	FilteredPages uint64 `json:"filtered_pages,omitempty"`

	// Links maps each observed link id to its counters.
	Links map[int]*LinkStats `json:"links"`

	// CodeCounts maps each code that occurred to its occurrence count.
	CodeCounts map[Code]uint64 `json:"code_counts"`

	// Findings is the ordered list of findings, sorted by stream offset.
	Findings []Finding `json:"findings"`

	// Fatal holds the message of the fatal condition that ended the run
	// early, if any. A fatal run has no verdict.
	Fatal string `json:"fatal,omitempty"`

	// Elapsed is the wall-clock processing time of the run.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// NewReport creates an empty report for the given input and profile.
func NewReport(inputFile string, profile Profile) *Report {
	return &Report{
		InputFile:  inputFile,
		Profile:    profile.String(),
		Links:      make(map[int]*LinkStats),
		CodeCounts: make(map[Code]uint64),
	}
}

// LinkIDs returns the observed link ids in ascending order.
func (r *Report) LinkIDs() []int {
	ids := make([]int, 0, len(r.Links))
	for id := range r.Links {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ErrorCount returns the number of findings at error severity or above.
func (r *Report) ErrorCount() uint64 {
	var n uint64
	for _, f := range r.Findings {
		if f.Severity >= SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity findings.
func (r *Report) WarningCount() uint64 {
	var n uint64
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Success reports the run verdict: true only when the run completed without
// a fatal condition and no finding reached error severity.
func (r *Report) Success() bool {
	return r.Fatal == "" && r.ErrorCount() == 0
}

// FindingsAtOrAbove returns the findings at or above the given severity,
// preserving stream-offset order.
func (r *Report) FindingsAtOrAbove(min Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity >= min {
			out = append(out, f)
		}
	}
	return out
}
