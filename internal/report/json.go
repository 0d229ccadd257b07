package report

import (
	"encoding/json"
	"io"

	"github.com/daqtools/rdhscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// toolVersion is stamped into the envelope so consumers can tell
	// which release produced a stored report.
	toolVersion string

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, toolVersion string, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:  newBaseWriter(output),
		toolVersion: toolVersion,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the envelope around a serialized run report.
//
// Design decision: We wrap the report rather than adding a version field to
// model.Report because the envelope is an output concern; the core data
// structure stays serialization-agnostic.
type JSONReport struct {
	// ToolVersion is the release that generated this report.
	ToolVersion string `json:"tool_version"`

	// Success is the run verdict, duplicated here so consumers need not
	// re-derive it from the findings.
	Success bool `json:"success"`

	// Report is the full run report.
	Report *model.Report `json:"report"`
}

// Write outputs the report, wrapped in its envelope, in JSON format.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	wrapped := &JSONReport{
		ToolVersion: w.toolVersion,
		Success:     report.Success(),
		Report:      report,
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(wrapped, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(wrapped)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for better terminal output.
	data = append(data, '\n')
	return w.output.Write(data)
}
