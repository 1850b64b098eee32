// package formatter exports sync results to report files (CSV, JSON, YAML, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/desertthunder/listsync/internal/tasks"
	"gopkg.in/yaml.v3"
)

// Format is a report file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// FormatFor picks the report format from the file extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unsupported report extension %q (use .csv, .json, .yaml or .md)", shared.ErrInvalidArgument, filepath.Ext(path))
	}
}

// ReportRow is one desired item as it appears in a report.
type ReportRow struct {
	Position     int    `json:"position" yaml:"position"`
	Title        string `json:"title" yaml:"title"`
	Year         string `json:"year,omitempty" yaml:"year,omitempty"`
	Disposition  string `json:"disposition" yaml:"disposition"`
	Outcome      string `json:"outcome" yaml:"outcome"`
	ExternalID   string `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	MatchedTitle string `json:"matched_title,omitempty" yaml:"matched_title,omitempty"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the document written for a run in the JSON and YAML formats.
type Report struct {
	List    string             `json:"list" yaml:"list"`
	ListID  string             `json:"list_id,omitempty" yaml:"list_id,omitempty"`
	DryRun  bool               `json:"dry_run" yaml:"dry_run"`
	Summary models.SyncSummary `json:"summary" yaml:"summary"`
	Items   []ReportRow        `json:"items" yaml:"items"`
}

// NewReport builds the report document for result.
func NewReport(result *tasks.SyncResult) Report {
	return Report{
		List:    result.List.Name,
		ListID:  result.List.ID,
		DryRun:  result.DryRun,
		Summary: result.Summary,
		Items:   Rows(result),
	}
}

// Rows flattens the item results of a run in dataset order.
func Rows(result *tasks.SyncResult) []ReportRow {
	rows := make([]ReportRow, 0, len(result.Items))
	for i, res := range result.Items {
		row := ReportRow{
			Position:    i + 1,
			Title:       res.Item.Title,
			Year:        res.Item.YearString(),
			Disposition: res.Disposition.String(),
			Outcome:     res.Outcome.String(),
		}
		if res.Match != nil {
			row.ExternalID = res.Match.ExternalID
			row.MatchedTitle = res.Match.DisplayTitle
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportToCSV writes one row per item with columns: Position, Title, Year, Disposition, Outcome, ExternalID, MatchedTitle, Error
func ExportToCSV(result *tasks.SyncResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Year", "Disposition", "Outcome", "ExternalID", "MatchedTitle", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range Rows(result) {
		record := []string{
			strconv.Itoa(row.Position),
			row.Title,
			row.Year,
			row.Disposition,
			row.Outcome,
			row.ExternalID,
			row.MatchedTitle,
			row.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON writes the run summary and items as an indented JSON document
func ExportToJSON(result *tasks.SyncResult) ([]byte, error) {
	return shared.MarshalJSON(NewReport(result), true)
}

// ExportToYAML writes the same document as ExportToJSON with two-space indentation
func ExportToYAML(result *tasks.SyncResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(NewReport(result)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown writes a summary followed by one section per disposition
func ExportToMarkdown(result *tasks.SyncResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", result.List.Name)
	if result.DryRun {
		buf.WriteString("_Dry run: nothing was changed._\n\n")
	}

	s := result.Summary
	buf.WriteString("| Added | Already in list | Not found |\n")
	buf.WriteString("|---|---|---|\n")
	fmt.Fprintf(&buf, "| %d | %d | %d |\n\n", s.Added, s.AlreadyInList, s.NotFound)

	sections := []struct {
		heading string
		keep    func(ReportRow) bool
	}{
		{"Added", func(r ReportRow) bool { return r.Outcome == models.Added.String() }},
		{"Already in list", func(r ReportRow) bool { return r.Outcome == models.Skipped.String() }},
		{"Not found", func(r ReportRow) bool {
			return r.Outcome == models.OutcomeNotFound.String() || r.Outcome == models.Failed.String()
		}},
	}

	rows := Rows(result)
	for _, section := range sections {
		var lines []string
		for _, row := range rows {
			if section.keep(row) {
				lines = append(lines, markdownLine(row))
			}
		}
		if len(lines) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s\n\n", section.heading)
		for _, line := range lines {
			buf.WriteString(line + "\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func markdownLine(row ReportRow) string {
	line := fmt.Sprintf("%d. %s", row.Position, row.Title)
	if row.Year != "" {
		line += fmt.Sprintf(" (%s)", row.Year)
	}
	if row.ExternalID != "" {
		line += fmt.Sprintf(" [%s]", row.ExternalID)
	}
	if row.Error != "" {
		line += fmt.Sprintf(" - %s", row.Error)
	}
	return line
}

// WriteReport exports result to path in the format its extension selects.
func WriteReport(result *tasks.SyncResult, path string) (Format, error) {
	format, err := FormatFor(path)
	if err != nil {
		return "", err
	}

	var data []byte
	switch format {
	case FormatCSV:
		data, err = ExportToCSV(result)
	case FormatJSON:
		data, err = ExportToJSON(result)
	case FormatYAML:
		data, err = ExportToYAML(result)
	case FormatMarkdown:
		data, err = ExportToMarkdown(result)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return format, nil
}
