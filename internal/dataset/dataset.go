// package dataset reads desired items from tabular files
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/shared"
)

const (
	titleColumn = "title"
	yearColumn  = "year"
)

// File is a dataset stored at Path. It implements tasks.DatasetSource.
type File struct {
	Path string
}

// Load reads the file with [ReadFile].
func (f File) Load(context.Context) ([]models.DesiredItem, error) {
	return ReadFile(f.Path)
}

// ReadFile opens path and reads it with [Read].
func ReadFile(path string) ([]models.DesiredItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDatasetUnreadable, err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses CSV with a header row into desired items, preserving row order.
//
// A title column is required and a year column is optional (matched case-insensitively).
// Other columns are ignored. Blank years are absent; a non-integer year or an empty title is an error.
func Read(r io.Reader) ([]models.DesiredItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", shared.ErrDatasetUnreadable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", shared.ErrDatasetUnreadable, err)
	}

	titleIdx, yearIdx := columns(header)
	if titleIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", shared.ErrDatasetUnreadable, titleColumn)
	}

	var items []models.DesiredItem
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", shared.ErrDatasetUnreadable, row, err)
		}
		if isBlank(record) {
			continue
		}

		item, err := parseRecord(record, row, titleIdx, yearIdx)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func columns(header []string) (titleIdx, yearIdx int) {
	titleIdx, yearIdx = -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case name == titleColumn && titleIdx < 0:
			titleIdx = i
		case name == yearColumn && yearIdx < 0:
			yearIdx = i
		}
	}
	return titleIdx, yearIdx
}

func parseRecord(record []string, row, titleIdx, yearIdx int) (models.DesiredItem, error) {
	item := models.DesiredItem{Row: row}

	if titleIdx < len(record) {
		item.Title = record[titleIdx]
	}
	if strings.TrimSpace(item.Title) == "" {
		return item, fmt.Errorf("%w: row %d: empty title", shared.ErrInvalidInput, row)
	}

	if yearIdx >= 0 && yearIdx < len(record) {
		raw := strings.TrimSpace(record[yearIdx])
		if raw != "" {
			year, err := parseYear(raw)
			if err != nil {
				return item, fmt.Errorf("%w: row %d: year %q is not an integer", shared.ErrInvalidInput, row, raw)
			}
			item.Year = &year
		}
	}

	return item, nil
}

// parseYear accepts integers and integral floats ("2010.0"), which spreadsheet exports produce for sparse columns.
func parseYear(raw string) (int, error) {
	if year, err := strconv.Atoi(raw); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid year")
	}
	return int(f), nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
