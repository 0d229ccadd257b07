package model

import (
	"fmt"
	"sort"
)

// Code is the stable numeric identifier of a defect kind.
// Codes are globally unique across the whole taxonomy: no two finding kinds
// ever share a number, and numbers are never reused once released.
type Code int

// The defect taxonomy. Ranges group codes by the record type they concern:
// 1x RDH pages, 3x IHW, 4x TDH, 5x TDT, 6x DDW0, 7x payload data words,
// 8x frame completion, 9x expected-counter comparisons. Code 1 is the sole
// warning-level code.
const (
	// CodeRDHSanity flags an RDH field outside its legal range.
	CodeRDHSanity Code = 10

	// CodeVersionMismatch flags a page whose version differs from the
	// version observed on the first page of the stream.
	CodeVersionMismatch Code = 11

	// CodeMalformedHeader flags a header that is not self-consistent,
	// e.g. a declared header size that does not match its version.
	CodeMalformedHeader Code = 12

	// CodeUnsupportedVersion flags a header with an unknown version.
	CodeUnsupportedVersion Code = 13

	// CodeTruncated flags a page cut short by the end of the stream.
	CodeTruncated Code = 14

	// CodeSizeMismatch flags a page whose declared memory size disagrees
	// with the declared offset to the next page.
	CodeSizeMismatch Code = 15

	// CodeCounterRegression flags a per-link packet counter that moved
	// backwards or skipped.
	CodeCounterRegression Code = 16

	// CodeIHWSanity flags an IHW with reserved bits set.
	CodeIHWSanity Code = 30

	// CodeIHWWhileOpen flags an open-frame marker seen while the link's
	// frame is already open.
	CodeIHWWhileOpen Code = 32

	// CodeTDHSanity flags a TDH with reserved bits set.
	CodeTDHSanity Code = 40

	// CodeTDHWithoutIHW flags a trigger header with no preceding open marker.
	CodeTDHWithoutIHW Code = 41

	// CodeTriggerPeriodMismatch flags a TDH whose trigger spacing differs
	// from the configured expected period.
	CodeTriggerPeriodMismatch Code = 44

	// CodeTDTSanity flags a TDT with reserved bits set.
	CodeTDTSanity Code = 50

	// CodeTDTWithoutTDH flags a trigger trailer with no preceding trigger
	// header.
	CodeTDTWithoutTDH Code = 51

	// CodeDDWSanity flags a DDW0 with reserved bits set.
	CodeDDWSanity Code = 60

	// CodeDDWMisplaced flags a diagnostic word anywhere but immediately
	// after a stop-flagged trailer at the end of a data-taking segment.
	CodeDDWMisplaced Code = 61

	// CodeOrphanRecord flags a data word seen while no frame is open.
	CodeOrphanRecord Code = 70

	// CodeMissingStop flags a frame whose trailer lacked the stop flag
	// before the next open marker arrived.
	CodeMissingStop Code = 80

	// CodeUnterminatedFrame flags a frame still open at the end of the
	// stream.
	CodeUnterminatedFrame Code = 81

	// CodePageCountMismatch flags a total page count that differs from the
	// expected count configured in the checks file.
	CodePageCountMismatch Code = 90

	// CodeTriggerCountMismatch flags a total trigger count that differs
	// from the expected count configured in the checks file.
	CodeTriggerCountMismatch Code = 91

	// CodeEmptyPayload flags a page carrying no payload bytes.
	CodeEmptyPayload Code = 1
)

// CodeInfo contains the registry metadata of a code: its severity, the
// smallest profile that detects it, and a short summary for reports.
type CodeInfo struct {
	Severity Severity
	Profile  Profile
	Summary  string
}

// codeRegistry maps every code to its metadata.
//
// Design decision: We use a map rather than embedding metadata in each
// finding because:
// 1. It provides a single source of truth for severities and profiles
// 2. The uniqueness requirement is checked once, over this table
// 3. Report writers can enumerate the whole taxonomy without decoding logic
var codeRegistry = map[Code]CodeInfo{
	CodeRDHSanity:             {SeverityError, ProfileSanity, "RDH sanity check failed"},
	CodeVersionMismatch:       {SeverityError, ProfileSanity, "RDH version differs from first page"},
	CodeMalformedHeader:       {SeverityError, ProfileSanity, "malformed RDH"},
	CodeUnsupportedVersion:    {SeverityError, ProfileSanity, "unsupported RDH version"},
	CodeTruncated:             {SeverityFatal, ProfileSanity, "page truncated by end of stream"},
	CodeSizeMismatch:          {SeverityError, ProfileFull, "memory size and next-page offset disagree"},
	CodeCounterRegression:     {SeverityError, ProfileFull, "packet counter regression"},
	CodeIHWSanity:             {SeverityError, ProfileSanity, "IHW sanity check failed"},
	CodeIHWWhileOpen:          {SeverityError, ProfileSanity, "IHW while frame already open"},
	CodeTDHSanity:             {SeverityError, ProfileSanity, "TDH sanity check failed"},
	CodeTDHWithoutIHW:         {SeverityError, ProfileSanity, "TDH without preceding IHW"},
	CodeTriggerPeriodMismatch: {SeverityError, ProfileFull, "trigger period mismatch"},
	CodeTDTSanity:             {SeverityError, ProfileSanity, "TDT sanity check failed"},
	CodeTDTWithoutTDH:         {SeverityError, ProfileSanity, "TDT without preceding TDH"},
	CodeDDWSanity:             {SeverityError, ProfileSanity, "DDW0 sanity check failed"},
	CodeDDWMisplaced:          {SeverityError, ProfileSanity, "DDW0 outside end of segment"},
	CodeOrphanRecord:          {SeverityError, ProfileSanity, "data word outside heartbeat frame"},
	CodeMissingStop:           {SeverityError, ProfileFull, "stop flag missing before next open marker"},
	CodeUnterminatedFrame:     {SeverityError, ProfileFull, "frame open at end of stream"},
	CodePageCountMismatch:     {SeverityError, ProfileFull, "total page count differs from expected"},
	CodeTriggerCountMismatch:  {SeverityError, ProfileFull, "total trigger count differs from expected"},
	CodeEmptyPayload:          {SeverityWarning, ProfileFull, "page carries no payload"},
}

// Info returns the registry metadata for the code.
// Unknown codes report SeverityError so that a finding recorded with an
// unregistered code can never silently pass the run.
func (c Code) Info() CodeInfo {
	if info, ok := codeRegistry[c]; ok {
		return info
	}
	return CodeInfo{Severity: SeverityError, Profile: ProfileSanity, Summary: "unregistered code"}
}

// Severity returns the severity registered for the code.
func (c Code) Severity() Severity {
	return c.Info().Severity
}

// String renders the code in its stable display form, e.g. "E80" or "W01".
// The prefix is derived from the registered severity.
func (c Code) String() string {
	var prefix string
	switch c.Info().Severity {
	case SeverityWarning:
		prefix = "W"
	case SeverityInfo:
		prefix = "I"
	default:
		prefix = "E"
	}
	return fmt.Sprintf("%s%02d", prefix, int(c))
}

// Codes returns every registered code in ascending numeric order.
// Report writers rely on this for a stable per-code breakdown.
func Codes() []Code {
	codes := make([]Code, 0, len(codeRegistry))
	for c := range codeRegistry {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
