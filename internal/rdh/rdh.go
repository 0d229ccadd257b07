package rdh

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderBytes is the size of an RDH for every supported version.
const HeaderBytes = 64

// Supported RDH versions. The version observed on the first page of a stream
// becomes the expected version for all subsequent pages.
const (
	V6 = 6
	V7 = 7
)

// Payload data formats defined by RDH v7. Format 0 pads each 80-bit GBT word
// to 16 bytes; format 2 packs the 10-byte words back to back.
const (
	DataFormatPadded = 0
	DataFormatPacked = 2
)

// MaxBC is the number of bunch crossings per orbit; a BC field at or above
// this value cannot have come from the LHC clock.
const MaxBC = 3564

// Decode failure modes. The scanner wraps these with the stream offset.
var (
	// ErrUnsupportedVersion is returned for a header id that is not a
	// known RDH version.
	ErrUnsupportedVersion = errors.New("unsupported RDH version")

	// ErrHeaderSize is returned when the declared header size does not
	// match the expected size for the decoded version.
	ErrHeaderSize = errors.New("declared header size does not match version")

	// ErrShortBuffer is returned when fewer than HeaderBytes are available.
	ErrShortBuffer = errors.New("buffer shorter than an RDH")
)

// RDH is one decoded page header. It is immutable once decoded; the decode
// pipeline owns it transiently and hands copies to per-link validators.
type RDH struct {
	// Version is the header id byte (6 or 7).
	Version uint8

	// HeaderSize is the declared header size in bytes. Must be 64.
	HeaderSize uint8

	// FEEID identifies the front-end electronics unit that produced the
	// page.
	FEEID uint16

	// Priority is the priority bit from the first subword.
	Priority uint8

	// SystemID identifies the detector system (ITS is 32).
	SystemID uint8

	// OffsetNext is the byte offset from the start of this header to the
	// next page header.
	OffsetNext uint16

	// MemorySize is the total size of the page, header included. The
	// payload size is MemorySize - HeaderBytes.
	MemorySize uint16

	// LinkID identifies the readout link the page belongs to.
	LinkID uint8

	// PacketCounter counts pages per link, wrapping at 255.
	PacketCounter uint8

	// CRUID identifies the readout unit (12 bits).
	CRUID uint16

	// Endpoint is the CRU endpoint (4 bits).
	Endpoint uint8

	// BC is the bunch-crossing counter (12 bits).
	BC uint16

	// Orbit is the LHC orbit counter.
	Orbit uint32

	// DataFormat selects the payload word packing (v7; reserved on v6).
	DataFormat uint8

	// TriggerType is the trigger-type bit mask. See TriggerBits.
	TriggerType uint32

	// PagesCounter counts pages within the current heartbeat frame.
	PagesCounter uint16

	// Stop is set on the last page of a heartbeat frame.
	Stop uint8

	// DetectorField carries detector-specific status bits.
	DetectorField uint32

	// PAR is the pause-and-reset field.
	PAR uint16
}

// Decode parses one RDH from the first HeaderBytes of buf.
//
// All fields are decoded before validation so that a malformed header still
// yields its declared sizes: the scanner uses them to resynchronize at the
// next presumed page boundary instead of scanning byte by byte. The returned
// error distinguishes an unknown version from a self-inconsistent header.
func Decode(buf []byte) (RDH, error) {
	if len(buf) < HeaderBytes {
		return RDH{}, ErrShortBuffer
	}

	cruidDW := binary.LittleEndian.Uint16(buf[14:16])
	h := RDH{
		Version:       buf[0],
		HeaderSize:    buf[1],
		FEEID:         binary.LittleEndian.Uint16(buf[2:4]),
		Priority:      buf[4],
		SystemID:      buf[5],
		OffsetNext:    binary.LittleEndian.Uint16(buf[8:10]),
		MemorySize:    binary.LittleEndian.Uint16(buf[10:12]),
		LinkID:        buf[12],
		PacketCounter: buf[13],
		CRUID:         cruidDW & 0x0FFF,
		Endpoint:      uint8(cruidDW >> 12),
		BC:            binary.LittleEndian.Uint16(buf[16:18]) & 0x0FFF,
		Orbit:         binary.LittleEndian.Uint32(buf[20:24]),
		DataFormat:    buf[24],
		TriggerType:   binary.LittleEndian.Uint32(buf[32:36]),
		PagesCounter:  binary.LittleEndian.Uint16(buf[36:38]),
		Stop:          buf[38],
		DetectorField: binary.LittleEndian.Uint32(buf[48:52]),
		PAR:           binary.LittleEndian.Uint16(buf[52:54]),
	}

	if h.Version != V6 && h.Version != V7 {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.HeaderSize != HeaderBytes {
		return h, fmt.Errorf("%w: got %d", ErrHeaderSize, h.HeaderSize)
	}
	return h, nil
}

// PayloadSize returns the number of payload bytes that follow the header.
// A malformed MemorySize smaller than the header counts as zero payload.
func (h RDH) PayloadSize() int {
	if h.MemorySize < HeaderBytes {
		return 0
	}
	return int(h.MemorySize) - HeaderBytes
}

// StopSet reports whether the stop flag marks this page as the last of its
// heartbeat frame.
func (h RDH) StopSet() bool {
	return h.Stop != 0
}

// SanityProblems returns a description of every field that is outside its
// legal range, or nil when the header is sane. Version consistency against
// the first page is a stream-level property and checked by the rule engine,
// not here.
func (h RDH) SanityProblems() []string {
	var problems []string
	if h.BC >= MaxBC {
		problems = append(problems, fmt.Sprintf("BC %d out of range", h.BC))
	}
	if h.OffsetNext != 0 && h.OffsetNext < HeaderBytes {
		problems = append(problems, fmt.Sprintf("offset to next page %d smaller than header", h.OffsetNext))
	}
	if h.MemorySize < HeaderBytes {
		problems = append(problems, fmt.Sprintf("memory size %d smaller than header", h.MemorySize))
	}
	if h.Version == V7 && h.DataFormat != DataFormatPadded && h.DataFormat != DataFormatPacked {
		problems = append(problems, fmt.Sprintf("data format %d unknown", h.DataFormat))
	}
	if h.Stop > 1 {
		problems = append(problems, fmt.Sprintf("stop field %d not a flag", h.Stop))
	}
	return problems
}

// Bytes serializes the header back to its 64-byte wire form. Reserved bytes
// are written as zero. Used by fixtures and the synthetic stream builders.
func (h RDH) Bytes() []byte {
	buf := make([]byte, HeaderBytes)
	buf[0] = h.Version
	buf[1] = h.HeaderSize
	binary.LittleEndian.PutUint16(buf[2:4], h.FEEID)
	buf[4] = h.Priority
	buf[5] = h.SystemID
	binary.LittleEndian.PutUint16(buf[8:10], h.OffsetNext)
	binary.LittleEndian.PutUint16(buf[10:12], h.MemorySize)
	buf[12] = h.LinkID
	buf[13] = h.PacketCounter
	binary.LittleEndian.PutUint16(buf[14:16], h.CRUID&0x0FFF|uint16(h.Endpoint)<<12)
	binary.LittleEndian.PutUint16(buf[16:18], h.BC&0x0FFF)
	binary.LittleEndian.PutUint32(buf[20:24], h.Orbit)
	buf[24] = h.DataFormat
	binary.LittleEndian.PutUint32(buf[32:36], h.TriggerType)
	binary.LittleEndian.PutUint16(buf[36:38], h.PagesCounter)
	buf[38] = h.Stop
	binary.LittleEndian.PutUint32(buf[48:52], h.DetectorField)
	binary.LittleEndian.PutUint16(buf[52:54], h.PAR)
	return buf
}
