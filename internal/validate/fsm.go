package validate

import (
	"fmt"
	"strings"

	"github.com/daqtools/rdhscan/internal/its"
	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
	"github.com/daqtools/rdhscan/internal/stream"
)

// Sink receives findings and stream observations from validators.
// Implementations must be safe for concurrent use by multiple workers.
type Sink interface {
	// RecordFinding records one defect. Findings arrive in per-link order
	// but interleave freely across links.
	RecordFinding(model.Finding)

	// RecordPage records one decoded page attributed to a link.
	RecordPage(link int, payloadBytes uint64)

	// RecordFrame records one completed (or force-closed) heartbeat frame.
	RecordFrame(link int)

	// RecordTrigger records one non-continuation trigger header.
	RecordTrigger(link int)

	// RecordFiltered records a page dropped by the link filter.
	RecordFiltered()
}

// frameState is the position of a link within its heartbeat frame cycle.
type frameState int

const (
	// stateIdle means no frame is open on the link.
	stateIdle frameState = iota

	// stateFrameOpen means an IHW was seen and the first TDH is pending.
	stateFrameOpen

	// stateFramePayload means a TDH was seen and trigger data may follow.
	stateFramePayload

	// stateFrameClosing means a stop-flagged TDT just closed the frame;
	// the next word observes the post-frame rules (DDW0 becomes legal).
	stateFrameClosing
)

// LinkConfig parameterizes one LinkValidator.
type LinkConfig struct {
	// Link is the readout link id the validator is responsible for.
	Link int

	// Profile selects which registered checks may produce findings.
	Profile model.Profile

	// ITSChecks enables the payload word field checks (reserved bits,
	// trigger spacing). The frame state machine runs regardless.
	ITSChecks bool

	// ExpectVersion is the header version fixed by the first page of the
	// stream.
	ExpectVersion uint8

	// TriggerPeriod is the expected spacing in bunch crossings between
	// consecutive non-continuation trigger headers; zero disables the check.
	TriggerPeriod uint32
}

// LinkValidator checks the pages of one readout link. It is not safe for
// concurrent use; the dispatcher gives each link its own instance.
type LinkValidator struct {
	cfg  LinkConfig
	sink Sink

	state       frameState
	stopPending bool
	lastClosed  bool

	seenPage   bool
	prevPacket uint8
	lastOffset uint64

	haveTrigger bool
	prevTrigger uint64
}

// NewLinkValidator creates a validator for one link.
func NewLinkValidator(cfg LinkConfig, sink Sink) *LinkValidator {
	return &LinkValidator{cfg: cfg, sink: sink}
}

// record emits a finding if the configured profile includes the code's
// registered profile. Counting (pages, frames) never depends on the profile;
// only finding emission does.
func (v *LinkValidator) record(code model.Code, offset uint64, message string) {
	if !v.cfg.Profile.Includes(code.Info().Profile) {
		return
	}
	v.sink.RecordFinding(model.NewFinding(code, v.cfg.Link, offset, message))
}

// Process checks one page: header fields first, then every payload word
// through the frame state machine.
func (v *LinkValidator) Process(p stream.CDP) {
	h := p.RDH
	v.lastOffset = p.Offset
	v.sink.RecordPage(v.cfg.Link, uint64(len(p.Payload)))

	if problems := h.SanityProblems(); len(problems) > 0 {
		v.record(model.CodeRDHSanity, p.Offset, strings.Join(problems, "; "))
	}
	if h.Version != v.cfg.ExpectVersion {
		v.record(model.CodeVersionMismatch, p.Offset,
			fmt.Sprintf("version %d differs from first page version %d", h.Version, v.cfg.ExpectVersion))
	}
	if h.OffsetNext != h.MemorySize {
		v.record(model.CodeSizeMismatch, p.Offset,
			fmt.Sprintf("offset to next page %d disagrees with memory size %d", h.OffsetNext, h.MemorySize))
	}
	if v.seenPage && h.PacketCounter != v.prevPacket+1 {
		v.record(model.CodeCounterRegression, p.Offset,
			fmt.Sprintf("packet counter jumped from %d to %d", v.prevPacket, h.PacketCounter))
	}
	v.seenPage = true
	v.prevPacket = h.PacketCounter

	if len(p.Payload) == 0 {
		v.record(model.CodeEmptyPayload, p.Offset, "page carries no payload")
		return
	}

	trailing := its.Walk(p.Payload, h.DataFormat, func(word []byte) {
		v.word(word, p.Offset)
	})
	if trailing > 0 {
		v.record(model.CodeSizeMismatch, p.Offset,
			fmt.Sprintf("%d trailing payload bytes do not form a word", trailing))
	}
}

// word advances the frame state machine by one payload word.
func (v *LinkValidator) word(word []byte, offset uint64) {
	if v.state == stateFrameClosing {
		// The stop-flagged trailer has been observed; the link is idle
		// again but lastClosed keeps the post-frame window open for DDW0.
		v.state = stateIdle
	}

	t := its.Identify(word)
	if v.cfg.ITSChecks && t != its.WordData {
		if problems := its.SanityProblems(word); len(problems) > 0 {
			v.record(wordSanityCode(t), offset, strings.Join(problems, "; "))
		}
	}

	switch t {
	case its.WordIHW:
		v.handleIHW(offset)
	case its.WordTDH:
		v.handleTDH(its.DecodeTDH(word), offset)
	case its.WordTDT:
		v.handleTDT(its.DecodeTDT(word), offset)
	case its.WordDDW0:
		v.handleDDW(offset)
	default:
		v.handleData(offset)
	}
}

// wordSanityCode maps a status word type to its field-check code.
func wordSanityCode(t its.WordType) model.Code {
	switch t {
	case its.WordIHW:
		return model.CodeIHWSanity
	case its.WordTDH:
		return model.CodeTDHSanity
	case its.WordTDT:
		return model.CodeTDTSanity
	default:
		return model.CodeDDWSanity
	}
}

func (v *LinkValidator) handleIHW(offset uint64) {
	switch v.state {
	case stateIdle:
		if v.stopPending {
			// The previous frame paused without a stop flag and is now
			// abandoned by a fresh open marker. Close it as one frame so
			// frame counting stays aligned with the open markers seen.
			v.record(model.CodeMissingStop, offset, "stop flag missing before next IHW")
			v.sink.RecordFrame(v.cfg.Link)
			v.stopPending = false
		}
	default:
		v.record(model.CodeIHWWhileOpen, offset, "IHW while frame already open")
	}
	v.state = stateFrameOpen
	v.lastClosed = false
}

func (v *LinkValidator) handleTDH(tdh its.TDH, offset uint64) {
	if !tdh.Continuation {
		v.sink.RecordTrigger(v.cfg.Link)
	}
	if v.cfg.ITSChecks && v.cfg.TriggerPeriod > 0 && !tdh.Continuation {
		current := uint64(tdh.Orbit)*rdh.MaxBC + uint64(tdh.BC)
		if v.haveTrigger {
			if spacing := current - v.prevTrigger; spacing != uint64(v.cfg.TriggerPeriod) {
				v.record(model.CodeTriggerPeriodMismatch, offset,
					fmt.Sprintf("trigger spacing %d BCs, expected %d", spacing, v.cfg.TriggerPeriod))
			}
		}
		v.haveTrigger = true
		v.prevTrigger = current
	}

	if v.state == stateIdle {
		if v.stopPending {
			// Continuation of the paused frame on a new page.
			v.stopPending = false
		} else {
			v.record(model.CodeTDHWithoutIHW, offset, "TDH without preceding IHW")
		}
	}
	v.state = stateFramePayload
}

func (v *LinkValidator) handleTDT(tdt its.TDT, offset uint64) {
	switch {
	case v.state == stateFramePayload:
	case v.state == stateFrameOpen:
		v.record(model.CodeTDTWithoutTDH, offset, "TDT without preceding TDH")
	case v.stopPending:
		// Trailer of a paused frame resuming on a new page.
	default:
		v.record(model.CodeTDTWithoutTDH, offset, "TDT without preceding TDH")
		v.state = stateIdle
		return
	}

	if tdt.PacketDone {
		v.sink.RecordFrame(v.cfg.Link)
		v.state = stateFrameClosing
		v.lastClosed = true
		v.stopPending = false
	} else {
		v.state = stateIdle
		v.stopPending = true
		v.lastClosed = false
	}
}

func (v *LinkValidator) handleDDW(offset uint64) {
	if v.state != stateIdle || !v.lastClosed {
		v.record(model.CodeDDWMisplaced, offset, "DDW0 outside end of segment")
		v.state = stateIdle
		v.stopPending = false
	}
}

func (v *LinkValidator) handleData(offset uint64) {
	if v.state == stateIdle {
		v.record(model.CodeOrphanRecord, offset, "data word outside heartbeat frame")
	}
}

// Finish closes out the link at end of stream. A frame still open or paused
// counts as one frame so totals reflect every open marker observed.
func (v *LinkValidator) Finish() {
	if v.state == stateFrameOpen || v.state == stateFramePayload || v.stopPending {
		v.record(model.CodeUnterminatedFrame, v.lastOffset, "frame open at end of stream")
		v.sink.RecordFrame(v.cfg.Link)
	}
}
