package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxLineBytes = 1 << 20

// ParseCSV reads a comma separated store list. Cells are not quoted; a comma
// always separates columns. Blank lines are skipped but still counted, so
// reported line numbers match what an editor shows.
func ParseCSV(r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := make([]line, 0)
	number := 0
	for scanner.Scan() {
		number++
		text := scanner.Text()
		if number == 1 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		cells := strings.Split(text, ",")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		lines = append(lines, line{number: number, cells: cells})
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}
	return parseLines(lines)
}
