package model

// Severity represents the weight of a finding.
// It decides whether a finding fails the run: the report's success predicate
// only considers findings at SeverityError or above.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational observations with no impact on
	// the verdict. Examples: stream-end notices, decoded run metadata.
	SeverityInfo Severity = iota

	// SeverityWarning indicates a suspicious but tolerable condition.
	// Examples: a page with an empty payload. Warnings never fail the run.
	SeverityWarning

	// SeverityError indicates a structural or protocol violation.
	// Any finding at this level makes the run fail.
	SeverityError

	// SeverityFatal indicates a condition the decoder cannot recover from,
	// such as an undecodable first page or an I/O failure mid-stream.
	// Processing stops at the point of occurrence.
	SeverityFatal
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Profile identifies a rule profile. Profiles are additive: the full profile
// runs every sanity check plus the cross-page running checks.
type Profile int

const (
	// ProfileSanity enables single-record checks evaluable with O(1) memory:
	// header field ranges, version consistency, and frame marker ordering.
	ProfileSanity Profile = iota

	// ProfileFull adds cross-page, bounded-lookback checks per link:
	// counter monotonicity, payload size cross-checks, missing-stop
	// detection, and expected-counter comparisons.
	ProfileFull
)

// String returns the profile name as used on the command line.
func (p Profile) String() string {
	switch p {
	case ProfileSanity:
		return "sanity"
	case ProfileFull:
		return "all"
	default:
		return "unknown"
	}
}

// Includes reports whether a check registered for profile other runs under p.
// Sanity checks run under every profile; full checks only under ProfileFull.
func (p Profile) Includes(other Profile) bool {
	return other <= p
}
