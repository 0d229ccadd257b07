package its

import (
	"encoding/binary"
	"fmt"

	"github.com/daqtools/rdhscan/internal/rdh"
)

// WordBytes is the size of one unpacked GBT status word.
const WordBytes = 10

// Status word identifiers, carried in the last byte of each word.
const (
	IDIHW  = 0xE0
	IDTDH  = 0xE8
	IDTDT  = 0xF0
	IDDDW0 = 0xE4
)

// WordType classifies one payload word.
type WordType int

const (
	// WordData is any word that is not a status word: detector data.
	WordData WordType = iota

	// WordIHW opens a heartbeat frame and announces the active lanes.
	WordIHW

	// WordTDH starts the data of one trigger.
	WordTDH

	// WordTDT trails the data of one trigger; its packet-done flag closes
	// the heartbeat frame.
	WordTDT

	// WordDDW0 is the diagnostic word ending a data-taking segment.
	WordDDW0
)

// String returns the conventional short name of the word type.
func (t WordType) String() string {
	switch t {
	case WordIHW:
		return "IHW"
	case WordTDH:
		return "TDH"
	case WordTDT:
		return "TDT"
	case WordDDW0:
		return "DDW"
	case WordData:
		return "DATA"
	default:
		return "?"
	}
}

// Identify classifies a payload word by its identifier byte.
// Words shorter than WordBytes classify as data; the caller flags short
// trailing bytes separately.
func Identify(word []byte) WordType {
	if len(word) < WordBytes {
		return WordData
	}
	switch word[WordBytes-1] {
	case IDIHW:
		return WordIHW
	case IDTDH:
		return WordTDH
	case IDTDT:
		return WordTDT
	case IDDDW0:
		return WordDDW0
	default:
		return WordData
	}
}

// WordStride returns the byte spacing between consecutive words for the
// given RDH data format. Unknown formats fall back to the padded stride,
// which keeps the walker aligned on flavor-0 hardware output.
func WordStride(dataFormat uint8) int {
	if dataFormat == rdh.DataFormatPacked {
		return WordBytes
	}
	return 16
}

// Walk calls fn for every complete word in payload, observing the stride of
// the given data format. It returns the number of trailing bytes too short
// to form a word (nonzero only on malformed payloads).
func Walk(payload []byte, dataFormat uint8, fn func(word []byte)) int {
	stride := WordStride(dataFormat)
	off := 0
	for off+WordBytes <= len(payload) {
		fn(payload[off : off+WordBytes])
		if off+stride > len(payload) {
			// Padded flavor allows the final word to omit padding.
			off = len(payload)
			break
		}
		off += stride
	}
	return len(payload) - off
}

// IHW is the frame-open marker.
type IHW struct {
	// ActiveLanes is the mask of lanes participating in the frame.
	ActiveLanes uint32
}

// DecodeIHW decodes an IHW from a 10-byte word.
func DecodeIHW(word []byte) IHW {
	return IHW{ActiveLanes: binary.LittleEndian.Uint32(word[0:4]) & 0x0FFFFFFF}
}

// SanityProblems returns descriptions of reserved bits illegally set.
func SanityProblems(word []byte) []string {
	var problems []string
	switch Identify(word) {
	case WordIHW:
		if word[3]&0xF0 != 0 || word[4]|word[5]|word[6]|word[7]|word[8] != 0 {
			problems = append(problems, "IHW reserved bits set")
		}
	case WordTDH:
		if word[8] != 0 {
			problems = append(problems, "TDH reserved byte set")
		}
	case WordTDT:
		if word[7] != 0 {
			problems = append(problems, "TDT reserved byte set")
		}
		if word[8]&0xF0 != 0 {
			problems = append(problems, "TDT reserved flags set")
		}
	case WordDDW0:
		if word[7] != 0 {
			problems = append(problems, "DDW0 reserved byte set")
		}
		if index := word[8] >> 4; index != 0 {
			problems = append(problems, fmt.Sprintf("DDW index %d not zero", index))
		}
	}
	return problems
}

// TDH is the trigger-header marker.
type TDH struct {
	// TriggerType is the 12-bit trigger-type field.
	TriggerType uint16

	// InternalTrigger is set for internally generated triggers.
	InternalTrigger bool

	// NoData is set when the trigger carries no detector data.
	NoData bool

	// Continuation is set when the trigger continues from the previous
	// page.
	Continuation bool

	// BC is the bunch crossing of the trigger.
	BC uint16

	// Orbit is the orbit of the trigger.
	Orbit uint32
}

// DecodeTDH decodes a TDH from a 10-byte word.
func DecodeTDH(word []byte) TDH {
	flags := binary.LittleEndian.Uint16(word[0:2])
	return TDH{
		TriggerType:     flags & 0x0FFF,
		InternalTrigger: flags&(1<<12) != 0,
		NoData:          flags&(1<<13) != 0,
		Continuation:    flags&(1<<14) != 0,
		BC:              binary.LittleEndian.Uint16(word[2:4]) & 0x0FFF,
		Orbit:           binary.LittleEndian.Uint32(word[4:8]),
	}
}

// TDT is the trigger-trailer marker.
type TDT struct {
	// LaneStatus packs the 2-bit status of each lane (56 bits used).
	LaneStatus uint64

	// PacketDone closes the heartbeat frame when set: it is the stop
	// flag of the frame protocol.
	PacketDone bool

	// TransmissionTimeout is set when a lane timed out mid-frame.
	TransmissionTimeout bool

	// PacketOverflow is set when lane data exceeded the packet budget.
	PacketOverflow bool

	// LaneStartsViolation is set when lanes started out of order.
	LaneStartsViolation bool
}

// DecodeTDT decodes a TDT from a 10-byte word.
func DecodeTDT(word []byte) TDT {
	var lanes uint64
	for i := 0; i < 7; i++ {
		lanes |= uint64(word[i]) << (8 * i)
	}
	flags := word[8]
	return TDT{
		LaneStatus:          lanes,
		PacketDone:          flags&1 != 0,
		TransmissionTimeout: flags&(1<<1) != 0,
		PacketOverflow:      flags&(1<<2) != 0,
		LaneStartsViolation: flags&(1<<3) != 0,
	}
}

// DDW0 is the diagnostic word ending a data-taking segment.
type DDW0 struct {
	// LaneStatus packs the 2-bit end-of-segment status of each lane.
	LaneStatus uint64

	// TransmissionTimeout is set when a lane timed out in the segment.
	TransmissionTimeout bool

	// LaneWarning is set when any lane reported a warning.
	LaneWarning bool
}

// DecodeDDW0 decodes a DDW0 from a 10-byte word.
func DecodeDDW0(word []byte) DDW0 {
	var lanes uint64
	for i := 0; i < 7; i++ {
		lanes |= uint64(word[i]) << (8 * i)
	}
	flags := word[8]
	return DDW0{
		LaneStatus:          lanes,
		TransmissionTimeout: flags&1 != 0,
		LaneWarning:         flags&(1<<1) != 0,
	}
}
