package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is the raw parsed file: headers from row 1, data rows from
// row 2 onward. Fully empty rows are dropped.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseFile parses an uploaded tabular file by extension. Spreadsheet
// cells come back formatted: dates and formula cells yield their
// displayed value.
func ParseFile(filename string, data []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return parseSpreadsheet(data)
	case ".csv":
		return parseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

func parseSpreadsheet(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return tableFrom(rows)
}

func parseCSV(data []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, record)
	}
	return tableFrom(rows)
}

// sniffDelimiter checks the header line for a semicolon-delimited file,
// common in French locale exports.
func sniffDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func tableFrom(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Cell returns the trimmed value at the named column, and whether the
// column exists in the header row.
func (t *Table) Cell(row []string, column string) (string, bool) {
	for i, h := range t.Headers {
		if strings.EqualFold(h, column) {
			if i < len(row) {
				return strings.TrimSpace(row[i]), true
			}
			return "", true
		}
	}
	return "", false
}
