// Package importer turns uploaded store lists into validated store inputs.
// Both CSV and XLSX uploads use the same two-column layout: a "name,level"
// header followed by one store per line.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"salesmonitor/backend/internal/domain"
)

var (
	ErrEmptyFile         = errors.New("import file is empty")
	ErrInvalidHeader     = errors.New(`invalid header: expected "name,level"`)
	ErrUnsupportedFormat = errors.New("unsupported import format")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromFilename picks the format from the upload's extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Result holds the rows that passed validation and one error per rejected line.
type Result struct {
	Rows   []domain.StoreInput
	Errors []domain.LineError
}

func Parse(format Format, r io.Reader) (Result, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatXLSX:
		return ParseXLSX(r)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// line is one physical row of the upload, numbered from 1.
type line struct {
	number int
	cells  []string
}

func parseLines(lines []line) (Result, error) {
	if len(lines) == 0 {
		return Result{}, ErrEmptyFile
	}
	if !isHeader(lines[0].cells) {
		return Result{}, ErrInvalidHeader
	}

	res := Result{
		Rows:   make([]domain.StoreInput, 0, len(lines)-1),
		Errors: make([]domain.LineError, 0),
	}
	for _, l := range lines[1:] {
		input, reason := parseRow(l.cells)
		if reason != "" {
			res.Errors = append(res.Errors, domain.LineError{Line: l.number, Reason: reason})
			continue
		}
		res.Rows = append(res.Rows, input)
	}
	return res, nil
}

func isHeader(cells []string) bool {
	if len(cells) != 2 {
		return false
	}
	return strings.EqualFold(cells[0], "name") && strings.EqualFold(cells[1], "level")
}

func parseRow(cells []string) (domain.StoreInput, string) {
	name := cell(cells, 0)
	level := cell(cells, 1)
	if name == "" {
		return domain.StoreInput{}, "missing store name"
	}
	if level == "" {
		return domain.StoreInput{}, "missing store level"
	}
	parsed, err := domain.ParseStoreLevel(level)
	if err != nil {
		return domain.StoreInput{}, fmt.Sprintf("unknown store level %q", level)
	}
	return domain.StoreInput{Name: name, Level: parsed}, ""
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
