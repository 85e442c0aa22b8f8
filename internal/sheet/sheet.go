// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet loads bibliographic rows from an .xlsx workbook. The first
// row of the sheet is the header; the first column is the index, the third
// the title, and the remarks come from the last header column or a column
// picked by name.
package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// Fixed column positions, 0-based.
const (
	indexColumn = 0
	titleColumn = 2
	minColumns  = 3
)

var (
	// ErrTooFewColumns is returned when the header has fewer than three columns.
	ErrTooFewColumns = errors.New("sheet has fewer than 3 columns")

	// ErrColumnNotFound is returned when the requested URL column is not in the header.
	ErrColumnNotFound = errors.New("column not found")

	// ErrEmptySheet is returned when the sheet has no header row.
	ErrEmptySheet = errors.New("sheet is empty")
)

// Error locates a structural problem in the workbook.
type Error struct {
	Sheet string
	// Row is the 1-based spreadsheet row, 0 when the problem is not tied to a row.
	Row int
	Err error
}

func (e *Error) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("sheet %q row %d: %v", e.Sheet, e.Row, e.Err)
	}
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load opens path and returns its data rows in order.
func Load(path string, cfg types.SheetConfig) ([]types.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	return Rows(f, cfg)
}

// Rows reads the rows of an open workbook.
func Rows(f *excelize.File, cfg types.SheetConfig) ([]types.Row, error) {
	name := cfg.Sheet
	if name == "" {
		name = f.GetSheetName(f.GetActiveSheetIndex())
		if list := f.GetSheetList(); name == "" && len(list) > 0 {
			name = list[0]
		}
	}

	raw, err := f.GetRows(name)
	if err != nil {
		return nil, &Error{Sheet: name, Err: err}
	}
	if len(raw) == 0 {
		return nil, &Error{Sheet: name, Err: ErrEmptySheet}
	}

	header := raw[0]
	if len(header) < minColumns {
		return nil, &Error{Sheet: name, Row: 1, Err: fmt.Errorf("%w (found %d)", ErrTooFewColumns, len(header))}
	}

	remarkCol := len(header) - 1
	if cfg.URLColumn != "" {
		remarkCol = columnIndex(header, cfg.URLColumn)
		if remarkCol < 0 {
			return nil, &Error{Sheet: name, Row: 1, Err: fmt.Errorf("%w: %q (available: %s)",
				ErrColumnNotFound, cfg.URLColumn, strings.Join(header, ", "))}
		}
	}

	var rows []types.Row
	// Blank rows stay in the result so the batch reports them like any other
	// row without links.
	for i, cells := range raw[1:] {
		sheetRow := i + 2
		row := types.Row{
			Number: i + 1,
			Index:  cell(cells, indexColumn),
			Title:  cell(cells, titleColumn),
			Remark: cell(cells, remarkCol),
		}
		if cfg.IncludeLinks {
			row.Remark = withHyperlink(f, name, remarkCol, sheetRow, row.Remark)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex finds the header named want, ignoring surrounding spaces.
func columnIndex(header []string, want string) int {
	want = strings.TrimSpace(want)
	for i, h := range header {
		if strings.TrimSpace(h) == want {
			return i
		}
	}
	return -1
}

// cell returns the text of column col as stored, surrounding spaces included,
// so file names match those of earlier runs.
func cell(cells []string, col int) string {
	if col < len(cells) {
		return cells[col]
	}
	return ""
}

// withHyperlink appends the cell's hyperlink target to text when it is not
// already there. Display text and target often differ.
func withHyperlink(f *excelize.File, sheetName string, col, row int, text string) string {
	cellName, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return text
	}
	ok, target, err := f.GetCellHyperLink(sheetName, cellName)
	if err != nil || !ok || target == "" || strings.Contains(text, target) {
		return text
	}
	if text == "" {
		return target
	}
	return text + " " + target
}
