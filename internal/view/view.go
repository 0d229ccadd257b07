package view

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/daqtools/rdhscan/internal/its"
	"github.com/daqtools/rdhscan/internal/rdh"
	"github.com/daqtools/rdhscan/internal/stream"
)

// RDHView writes one line per page header.
type RDHView struct {
	tw *tabwriter.Writer
}

// NewRDHView creates a header view writing to w, including the column
// header line.
func NewRDHView(w io.Writer) *RDHView {
	v := &RDHView{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	fmt.Fprintln(v.tw, "OFFSET\tVER\tLINK\tFEE\tCNT\tSIZE\tORBIT\tBC\tSTOP\tTRIGGER")
	return v
}

// Page writes the line for one page.
func (v *RDHView) Page(p stream.CDP) {
	h := p.RDH
	fmt.Fprintf(v.tw, "0x%08X:\tv%d\t%d\t0x%04X\t%d\t%d\t0x%08X\t%d\t%d\t%s\n",
		p.Offset, h.Version, h.LinkID, h.FEEID, h.PacketCounter,
		h.MemorySize, h.Orbit, h.BC, h.Stop, rdh.TriggerBits(h.TriggerType))
}

// Flush writes any buffered alignment state to the underlying writer.
func (v *RDHView) Flush() error {
	return v.tw.Flush()
}

// HBFView writes one line per page header and one line per status word, so
// the frame structure of a capture reads top to bottom. Detector data words
// are skipped; they carry no frame semantics.
type HBFView struct {
	tw *tabwriter.Writer
}

// NewHBFView creates a frame view writing to w.
func NewHBFView(w io.Writer) *HBFView {
	v := &HBFView{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	fmt.Fprintln(v.tw, "OFFSET\tWORD\tDETAIL")
	return v
}

// Page writes the header line and the status word lines of one page.
func (v *HBFView) Page(p stream.CDP) {
	h := p.RDH
	fmt.Fprintf(v.tw, "0x%08X:\tRDH\tv%d link %d counter %d stop %d\n",
		p.Offset, h.Version, h.LinkID, h.PacketCounter, h.Stop)

	stride := its.WordStride(h.DataFormat)
	wordOffset := p.Offset + rdh.HeaderBytes
	its.Walk(p.Payload, h.DataFormat, func(word []byte) {
		if t := its.Identify(word); t != its.WordData {
			fmt.Fprintf(v.tw, "0x%08X:\t%s\t%s\n", wordOffset, t, wordDetail(t, word))
		}
		wordOffset += uint64(stride)
	})
}

// Flush writes any buffered alignment state to the underlying writer.
func (v *HBFView) Flush() error {
	return v.tw.Flush()
}

// wordDetail renders the fields of one status word.
func wordDetail(t its.WordType, word []byte) string {
	switch t {
	case its.WordIHW:
		return fmt.Sprintf("lanes 0x%X", its.DecodeIHW(word).ActiveLanes)
	case its.WordTDH:
		tdh := its.DecodeTDH(word)
		detail := fmt.Sprintf("trigger 0x%03X orbit 0x%08X bc %d", tdh.TriggerType, tdh.Orbit, tdh.BC)
		if tdh.Continuation {
			detail += " continuation"
		}
		if tdh.NoData {
			detail += " no-data"
		}
		return detail
	case its.WordTDT:
		tdt := its.DecodeTDT(word)
		if tdt.PacketDone {
			return "packet done"
		}
		return "packet continues"
	case its.WordDDW0:
		ddw := its.DecodeDDW0(word)
		detail := fmt.Sprintf("lane status 0x%X", ddw.LaneStatus)
		if ddw.TransmissionTimeout {
			detail += " timeout"
		}
		return detail
	default:
		return ""
	}
}
