package main

import (
	"errors"
	"fmt"
	"strings"
)

// Bank exports put account details above the table, header is expected in first rows.
const defaultHeaderSearchRows = 20

// defaultHeaderMatchPercent is minimal share of required columns a header row must contain.
const defaultHeaderMatchPercent = 70

var errHeaderNotFound = errors.New("header row not found")

// HeaderLocator finds the row with column labels.
type HeaderLocator struct {
	RequiredColumns []string
	MaxSearchRows   int
	MatchPercent    int
}

// Locate returns index of the first row in the search window whose cells contain enough of
// required columns. Required column counts as matched when it is a substring of any
// non-empty lowercased trimmed cell.
func (l HeaderLocator) Locate(table [][]CellValue) (int, error) {
	required := make([]string, 0, len(l.RequiredColumns))
	for _, column := range l.RequiredColumns {
		if column = normalizeLabel(column); column != "" {
			required = append(required, column)
		}
	}
	if len(required) == 0 {
		return -1, fmt.Errorf("no required columns: %w", errHeaderNotFound)
	}
	maxRows := l.MaxSearchRows
	if maxRows <= 0 {
		maxRows = defaultHeaderSearchRows
	}
	if maxRows > len(table) {
		maxRows = len(table)
	}
	percent := l.MatchPercent
	if percent <= 0 {
		percent = defaultHeaderMatchPercent
	}

	for i := 0; i < maxRows; i++ {
		cellTexts := make([]string, 0, len(table[i]))
		for _, cell := range table[i] {
			if cell.IsBlank() {
				continue
			}
			cellTexts = append(cellTexts, normalizeLabel(cell.String()))
		}
		if len(cellTexts) == 0 {
			continue
		}
		matches := 0
		for _, column := range required {
			for _, text := range cellTexts {
				if strings.Contains(text, column) {
					matches++
					break
				}
			}
		}
		// Integer comparison avoids 0.7*10 float rounding.
		if matches*100 >= len(required)*percent {
			return i, nil
		}
	}
	return -1, fmt.Errorf(
		"after scanning %d rows can't find header with %d%% of columns %v: %w",
		maxRows, percent, l.RequiredColumns, errHeaderNotFound,
	)
}

// extractRows re-keys rows after header by header labels. Missing trailing cells become
// empty, cells beyond header width are dropped, blank rows are discarded.
func extractRows(table [][]CellValue, headerIndex int) []Row {
	if headerIndex < 0 || headerIndex >= len(table) {
		return nil
	}
	header := table[headerIndex]
	columns := make([]string, len(header))
	for i, cell := range header {
		columns[i] = strings.TrimSpace(cell.String())
		if columns[i] == "" {
			columns[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	rows := []Row{}
	for i := headerIndex + 1; i < len(table); i++ {
		cells := table[i]
		row := Row{Number: i + 1, Fields: make([]Field, len(columns))}
		for j, column := range columns {
			value := EmptyCell()
			if j < len(cells) {
				value = cells[j]
			}
			row.Fields[j] = Field{Column: column, Value: value}
		}
		if row.IsBlank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// RowSource produces data rows of one statement file.
type RowSource struct {
	Profile       ProcessorProfile
	MaxSearchRows int
	MatchPercent  int
}

// Extract reads the file, locates header and returns data rows.
// Any error here is fatal for the whole file.
func (s RowSource) Extract(filePath string) ([]Row, error) {
	table, err := readTable(filePath)
	if err != nil {
		return nil, err
	}
	locator := HeaderLocator{
		RequiredColumns: s.Profile.RequiredColumns,
		MaxSearchRows:   s.MaxSearchRows,
		MatchPercent:    s.MatchPercent,
	}
	headerIndex, err := locator.Locate(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return extractRows(table, headerIndex), nil
}
