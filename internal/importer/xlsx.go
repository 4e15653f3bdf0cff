package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var errNoWorksheet = errors.New("no worksheet found")

// ParseXLSX reads the first worksheet of a workbook. Row numbers in errors are
// spreadsheet row numbers.
func ParseXLSX(r io.Reader) (Result, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return Result{}, errNoWorksheet
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	lines := make([]line, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		cells := make([]string, len(row))
		for j := range row {
			cells[j] = cell(row, j)
		}
		lines = append(lines, line{number: i + 1, cells: trimTrailingEmpty(cells)})
	}
	return parseLines(lines)
}

// trimTrailingEmpty drops empty cells after the last filled one; spreadsheets
// often carry formatted but empty columns.
func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
