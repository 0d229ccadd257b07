package model

import "fmt"

// NoLink marks a finding not attributable to a single readout link,
// e.g. the expected-counter comparisons evaluated at end of stream.
const NoLink = -1

// Finding is one recorded defect or notable event. It is immutable once
// created and appended to the report in stream-offset order.
type Finding struct {
	// Code is the stable numeric identifier of the defect kind.
	Code Code `json:"code"`

	// Severity is the weight of the finding, copied from the registry at
	// creation time so serialized findings stand on their own.
	Severity Severity `json:"severity"`

	// Message describes the specific occurrence, e.g. the offending field
	// values. The code summary describes the kind; the message the instance.
	Message string `json:"message"`

	// Link is the readout link the finding belongs to, or NoLink.
	Link int `json:"link"`

	// Offset is the stream byte offset of the page the finding was
	// detected on.
	Offset uint64 `json:"offset"`
}

// NewFinding creates a finding for the given code, stamping the registered
// severity.
func NewFinding(code Code, link int, offset uint64, message string) Finding {
	return Finding{
		Code:     code,
		Severity: code.Severity(),
		Message:  message,
		Link:     link,
		Offset:   offset,
	}
}

// String renders the finding as one report line. The offset is printed in
// hex because that is how engineers address positions in a raw capture.
func (f Finding) String() string {
	if f.Link == NoLink {
		return fmt.Sprintf("%s 0x%08X: [%s] %s", f.Severity, f.Offset, f.Code, f.Message)
	}
	return fmt.Sprintf("%s 0x%08X: [%s] link %d: %s", f.Severity, f.Offset, f.Code, f.Link, f.Message)
}
