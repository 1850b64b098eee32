// Package ui renders sync progress and summaries for the terminal with lipgloss styles.
//
// [ConsoleReporter] implements tasks.Reporter: every progress update becomes one styled line,
// prefixed with the item counter for per-item updates. [RenderSummary] formats the final counts.
package ui
