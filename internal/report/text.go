package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
)

// TextWriter outputs human-readable text reports for terminal display:
// the run metadata, every finding as one greppable line, a per-link
// summary table, and the verdict.
//
// Design decision: We use plain text with ASCII table formatting rather
// than ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// minSeverity filters which findings are listed individually.
	// The counters always cover everything.
	minSeverity model.Severity

	// printer renders counters with thousands separators.
	printer *message.Printer
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithMinSeverity lists only findings at or above the given severity.
func WithMinSeverity(min model.Severity) TextWriterOption {
	return func(w *TextWriter) { w.minSeverity = min }
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter:  newBaseWriter(output),
		minSeverity: model.SeverityWarning,
		printer:     message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeFindings(&sb, report)
	w.writeSummary(&sb, report)
	w.writeVerdict(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run metadata block.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	fmt.Fprintf(sb, "Input:    %s\n", report.InputFile)
	fmt.Fprintf(sb, "Profile:  %s\n", report.Profile)
	if report.Version != 0 {
		fmt.Fprintf(sb, "RDH:      v%d, data format %d\n", report.Version, report.DataFormat)
		fmt.Fprintf(sb, "Trigger:  0x%04X (%s)\n", report.TriggerType, rdh.TriggerBits(report.TriggerType))
	}
	sb.WriteString("\n")
}

// writeFindings writes one line per finding at or above the configured
// severity, in stream-offset order.
func (w *TextWriter) writeFindings(sb *strings.Builder, report *model.Report) {
	findings := report.FindingsAtOrAbove(w.minSeverity)
	if len(findings) == 0 {
		return
	}
	for _, f := range findings {
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the per-link counter table and the per-code
// breakdown.
func (w *TextWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"LINK", "PAGES", "HBFS", "ERRORS"})
	for _, id := range report.LinkIDs() {
		ls := report.Links[id]
		t.AppendRow(table.Row{
			id,
			w.printer.Sprintf("%d", ls.Pages),
			w.printer.Sprintf("%d", ls.HBFs),
			w.printer.Sprintf("%d", ls.Errors),
		})
	}
	t.AppendFooter(table.Row{
		"TOTAL",
		w.printer.Sprintf("%d", report.TotalPages),
		w.printer.Sprintf("%d", report.TotalHBFs),
		w.printer.Sprintf("%d", report.ErrorCount()),
	})
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	if report.FilteredPages > 0 {
		fmt.Fprintf(sb, "Filtered: %s pages outside the link filter\n\n",
			w.printer.Sprintf("%d", report.FilteredPages))
	}

	for _, code := range model.Codes() {
		if n := report.CodeCounts[code]; n > 0 {
			fmt.Fprintf(sb, "  [%s] %s: %s\n", code, code.Info().Summary, w.printer.Sprintf("%d", n))
		}
	}
	if len(report.CodeCounts) > 0 {
		sb.WriteString("\n")
	}
}

// writeVerdict writes the final result line.
func (w *TextWriter) writeVerdict(sb *strings.Builder, report *model.Report) {
	switch {
	case report.Fatal != "":
		fmt.Fprintf(sb, "Result: FATAL - %s\n", report.Fatal)
	case report.Success():
		fmt.Fprintf(sb, "Result: OK (%s pages, %s triggers in %s)\n",
			w.printer.Sprintf("%d", report.TotalPages),
			w.printer.Sprintf("%d", report.TotalTriggers),
			report.Elapsed.Round(time.Millisecond))
	default:
		fmt.Fprintf(sb, "Result: FAIL (%s errors, %s warnings)\n",
			w.printer.Sprintf("%d", report.ErrorCount()),
			w.printer.Sprintf("%d", report.WarningCount()))
	}
}
