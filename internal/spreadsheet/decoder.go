// Package spreadsheet decodes uploaded member sheets (.xlsx or .csv) into
// header-keyed rows and builds the import template.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// zipMagic opens every .xlsx file.
var zipMagic = []byte("PK\x03\x04")

// oleMagic opens legacy .xls workbooks, which are not supported.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	errLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx")
	errNotText        = errors.New("file is neither an .xlsx workbook nor UTF-8 CSV text")
)

// Decoder implements core.WorkbookDecoder.
type Decoder struct{}

var _ core.WorkbookDecoder = Decoder{}

// Decode reads an .xlsx workbook, or CSV text when data is not a zip
// archive. Legacy .xls files and binary or non-UTF-8 payloads are
// rejected. The whole workbook is materialized; callers bound the size.
func (Decoder) Decode(data []byte) (core.Workbook, error) {
	var (
		wb  *Workbook
		err error
	)
	switch {
	case bytes.HasPrefix(data, zipMagic):
		wb, err = decodeXLSX(data)
	case bytes.HasPrefix(data, oleMagic):
		err = errLegacyWorkbook
	default:
		wb, err = decodeCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// Workbook is a fully decoded set of sheets.
type Workbook struct {
	names  []string
	sheets map[string][]map[string]any
}

func (w *Workbook) SheetNames() []string { return w.names }

func (w *Workbook) Rows(sheet string) ([]map[string]any, error) {
	rows, ok := w.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	return rows, nil
}

func decodeXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb := &Workbook{sheets: make(map[string][]map[string]any)}
	for _, name := range f.GetSheetList() {
		grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.names = append(wb.names, name)
		wb.sheets[name] = toRecords(grid, func(r, c int, raw string) any {
			return xlsxValue(f, name, r, c, raw)
		})
	}
	return wb, nil
}

// xlsxValue types a raw cell: numbers (including date serials) become
// float64 and booleans become bool, matching what a form would post.
func xlsxValue(f *excelize.File, sheet string, r, c int, raw string) any {
	cell, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

func decodeCSV(data []byte) (*Workbook, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, errNotText
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	const name = "Sheet1"
	return &Workbook{
		names: []string{name},
		sheets: map[string][]map[string]any{
			name: toRecords(grid, func(_, _ int, raw string) any { return raw }),
		},
	}, nil
}

// toRecords turns a grid whose first row is the header into header-keyed
// rows. Empty cells are nil, fully blank rows are dropped, unnamed columns
// are ignored and repeated headers get a numeric suffix.
func toRecords(grid [][]string, value func(r, c int, raw string) any) []map[string]any {
	if len(grid) == 0 {
		return []map[string]any{}
	}
	headers := uniqueHeaders(grid[0])

	rows := make([]map[string]any, 0, len(grid)-1)
	for r := 1; r < len(grid); r++ {
		row := make(map[string]any, len(headers))
		blank := true
		for c, h := range headers {
			if h == "" {
				continue
			}
			var raw string
			if c < len(grid[r]) {
				raw = grid[r][c]
			}
			if strings.TrimSpace(raw) == "" {
				row[h] = nil
				continue
			}
			blank = false
			row[h] = value(r, c, raw)
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}

func uniqueHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}
	return headers
}
