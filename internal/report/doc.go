// Package report renders a finished run report in the supported output
// formats:
//   - TextWriter: human-readable terminal output with a summary table
//   - JSONWriter: structured output for tool integration
//   - MarkdownWriter: shareable run documentation
//
// Design decision: We separate report writing from the report data
// (which lives in the model package) so new output formats never touch
// the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-destination output.
package report
