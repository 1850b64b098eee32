package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/tasks"
)

// ConsoleReporter writes progress updates to w as they arrive.
type ConsoleReporter struct {
	w      io.Writer
	dryRun bool
	mu     sync.Mutex
}

// NewConsoleReporter creates a reporter writing to w. dryRun changes the summary labels.
func NewConsoleReporter(w io.Writer, dryRun bool) *ConsoleReporter {
	return &ConsoleReporter{w: w, dryRun: dryRun}
}

// Report implements tasks.Reporter.
func (c *ConsoleReporter) Report(u tasks.ProgressUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.Phase == tasks.RunComplete {
		if summary, ok := u.Data.(models.SyncSummary); ok {
			fmt.Fprint(c.w, RenderSummary(summary, c.dryRun))
			return
		}
	}

	if line := FormatUpdate(u); line != "" {
		fmt.Fprintln(c.w, line)
	}
}

// FormatUpdate renders a single progress update as one line.
func FormatUpdate(u tasks.ProgressUpdate) string {
	msg := u.Message
	if u.Phase.IsItem() && u.Total > 0 {
		msg = fmt.Sprintf("[%d/%d] %s", u.Step, u.Total, msg)
	}

	switch u.Phase {
	case tasks.LoadDataset, tasks.ResolveList, tasks.SnapshotCaptured:
		return styles.muted.Render("→ ") + msg
	case tasks.CreateList:
		return styles.ok.Render("+ ") + msg
	case tasks.ItemAdded, tasks.ItemWouldAdd:
		return styles.ok.Render("✓ ") + msg
	case tasks.ItemAlreadyPresent, tasks.ItemDuplicate:
		return styles.muted.Render("• ") + msg
	case tasks.ItemNotFound:
		return styles.warn.Render("✗ ") + msg
	case tasks.ItemFailed:
		return styles.err.Render("✗ ") + msg
	case tasks.RunWarning:
		return styles.warn.Render("⚠ " + msg)
	case tasks.RunAborted:
		return styles.err.Render("✗ " + msg)
	default:
		return msg
	}
}

// RenderSummary formats the final counts of a run.
func RenderSummary(summary models.SyncSummary, dryRun bool) string {
	var b strings.Builder

	title := "Summary"
	addedLabel := "Added:"
	if dryRun {
		title = "Summary (dry run)"
		addedLabel = "Would add:"
	}

	b.WriteString("\n" + styles.title.Render(title) + "\n")
	row := func(label string, n int) {
		fmt.Fprintf(&b, "  %s%d\n", styles.label.Render(label), n)
	}
	row(addedLabel, summary.Added)
	row("Already in list:", summary.AlreadyInList)
	row("Not found:", summary.NotFound)
	if summary.Failed > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("  (%d of the not found were rejected additions)", summary.Failed)) + "\n")
	}

	return b.String()
}
