package rdh

// Canonical headers for tests and synthetic stream builders. These mirror
// real CRU output for an ITS link at the start of a continuous run; fixtures
// across packages derive their pages from copies of these values.
//
// They live in the package proper rather than a _test file so that stream,
// validate, and cmd tests can all build captures from the same words.

// CorrectV7 is a sane version-7 header opening a heartbeat frame:
// trigger type 0x6A03 (ORBIT HB SOC TF RT RS), packed data format,
// no payload declared.
var CorrectV7 = RDH{
	Version:     V7,
	HeaderSize:  HeaderBytes,
	FEEID:       0x502A,
	SystemID:    32,
	OffsetNext:  HeaderBytes,
	MemorySize:  HeaderBytes,
	LinkID:      0,
	CRUID:       0x18,
	Orbit:       0x0B7DD575,
	DataFormat:  DataFormatPacked,
	TriggerType: 0x6A03,
}

// CorrectV6 is the version-6 twin of CorrectV7. Version 6 predates the data
// format byte, so it is left zero.
var CorrectV6 = RDH{
	Version:     V6,
	HeaderSize:  HeaderBytes,
	FEEID:       0x502A,
	SystemID:    32,
	OffsetNext:  HeaderBytes,
	MemorySize:  HeaderBytes,
	LinkID:      0,
	CRUID:       0x18,
	Orbit:       0x0B7DD575,
	TriggerType: 0x6A03,
}

// WithPayload returns a copy of h declaring a payload of n bytes.
func WithPayload(h RDH, n int) RDH {
	h.MemorySize = uint16(HeaderBytes + n)
	h.OffsetNext = h.MemorySize
	return h
}

// WithLink returns a copy of h on the given link.
func WithLink(h RDH, link uint8) RDH {
	h.LinkID = link
	return h
}

// WithStop returns a copy of h with the stop flag set.
func WithStop(h RDH) RDH {
	h.Stop = 1
	return h
}
