package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxToText dumps every sheet in workbook order as a "--- name ---" header line
// followed by the sheet's rows as CSV.
func xlsxToText(data []byte) (text string, sheets int, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	parts := make([]string, 0, 2*len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", 0, fmt.Errorf("read sheet %q: %w", name, err)
		}
		csvText, err := rowsToCSV(rows)
		if err != nil {
			return "", 0, fmt.Errorf("render sheet %q: %w", name, err)
		}
		parts = append(parts, "--- "+name+" ---", csvText)
	}
	return strings.Join(parts, "\n"), len(names), nil
}

// rowsToCSV pads ragged rows to the widest row so every line has the same column count.
func rowsToCSV(rows [][]string) (string, error) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			r = padded
		}
		if err := w.Write(r); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
