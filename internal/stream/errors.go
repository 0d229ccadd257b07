package stream

import "fmt"

// DecodeErrorKind classifies why a page could not be decoded.
type DecodeErrorKind int

const (
	// KindTruncated means the stream ended inside a header or its
	// declared payload.
	KindTruncated DecodeErrorKind = iota

	// KindMalformedHeader means the header was read in full but is not
	// self-consistent.
	KindMalformedHeader

	// KindUnsupportedVersion means the header id is not a known version.
	KindUnsupportedVersion
)

// String returns the kind name.
func (k DecodeErrorKind) String() string {
	switch k {
	case KindTruncated:
		return "Truncated"
	case KindMalformedHeader:
		return "MalformedHeader"
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	default:
		return "Unknown"
	}
}

// DecodeError reports a page that could not be decoded, with the stream
// offset it was attempted at. A DecodeError returned (rather than reported
// through the finding sink) means the scanner could not resynchronize past
// it.
type DecodeError struct {
	Kind   DecodeErrorKind
	Offset uint64
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at 0x%X: %v", e.Kind, e.Offset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// IOError reports a failed read from the capture. I/O failures are always
// fatal: the input is a complete static capture, so a short or failed read
// can never be retried into success.
type IOError struct {
	Offset uint64
	Err    error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("read failed at 0x%X: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error { return e.Err }
