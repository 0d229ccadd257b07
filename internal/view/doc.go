// Package view renders decoded pages as line-oriented text for inspection.
//
// Output is one record per line, offset first, so captures can be grepped
// and diffed: the formatters never wrap, reorder, or summarize. Columns are
// aligned with a tabwriter because the views are primarily read by humans
// scanning down a column.
package view
