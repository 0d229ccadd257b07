package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing run results.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writeLinkTable(md, report)
	w.writeCodeBreakdown(md, report)
	w.writeFindings(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the run metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Readout Capture Check")
	md.PlainText("")

	status := "✅ OK"
	switch {
	case report.Fatal != "":
		status = "❌ Fatal - " + report.Fatal
	case !report.Success():
		status = "❌ Failed"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input", "`" + report.InputFile + "`"},
			{"Profile", report.Profile},
			{"RDH version", strconv.Itoa(int(report.Version))},
			{"Trigger type", fmt.Sprintf("`0x%04X` (%s)", report.TriggerType, rdh.TriggerBits(report.TriggerType))},
			{"Pages", strconv.FormatUint(report.TotalPages, 10)},
			{"Heartbeat frames", strconv.FormatUint(report.TotalHBFs, 10)},
			{"Triggers", strconv.FormatUint(report.TotalTriggers, 10)},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeAlert writes an alert matching the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	switch {
	case report.Fatal != "":
		md.Cautionf("Processing stopped early: %s. Counters cover the decoded prefix only.", report.Fatal)
	case report.ErrorCount() > 0:
		md.Warningf("%d finding(s) at error severity. The capture violates the readout protocol.", report.ErrorCount())
	case report.WarningCount() > 0:
		md.Note(fmt.Sprintf("%d warning(s) recorded; the capture is structurally valid.", report.WarningCount()))
	default:
		md.Tip("No defects detected.")
	}
	md.PlainText("")
}

// writeLinkTable writes the per-link counters.
func (w *MarkdownWriter) writeLinkTable(md *markdown.Markdown, report *model.Report) {
	md.H2("Links")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Links))
	for _, id := range report.LinkIDs() {
		ls := report.Links[id]
		rows = append(rows, []string{
			strconv.Itoa(id),
			strconv.FormatUint(ls.Pages, 10),
			strconv.FormatUint(ls.HBFs, 10),
			strconv.FormatUint(ls.Errors, 10),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Link", "Pages", "HBFs", "Errors"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCodeBreakdown writes the per-code occurrence chart and table.
func (w *MarkdownWriter) writeCodeBreakdown(md *markdown.Markdown, report *model.Report) {
	if len(report.CodeCounts) == 0 {
		return
	}

	md.H2("Findings by Code")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Distribution"),
		piechart.WithShowData(true),
	)
	rows := make([][]string, 0, len(report.CodeCounts))
	for _, code := range model.Codes() {
		n := report.CodeCounts[code]
		if n == 0 {
			continue
		}
		chart.LabelAndIntValue(code.String(), n)
		rows = append(rows, []string{
			code.String(),
			code.Info().Summary,
			strconv.FormatUint(n, 10),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Code", "Summary", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFindings writes the ordered finding list.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.Report) {
	md.H2("Findings")
	md.PlainText("")

	if len(report.Findings) == 0 {
		md.PlainText("No findings recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Findings))
	for i, f := range report.Findings {
		link := "-"
		if f.Link != model.NoLink {
			link = strconv.Itoa(f.Link)
		}
		rows[i] = []string{
			fmt.Sprintf("`0x%08X`", f.Offset),
			f.Code.String(),
			f.Severity.String(),
			link,
			f.Message,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Offset", "Code", "Severity", "Link", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}
