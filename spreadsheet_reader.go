package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
)

var errUnsupportedFormat = errors.New("unsupported spreadsheet format")

// readTable reads first sheet of the spreadsheet as rows of cells.
// Format is chosen by file extension.
func readTable(filePath string) ([][]CellValue, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return readXlsxTable(filePath)
	case ".csv":
		return readCsvTable(filePath)
	}
	return nil, fmt.Errorf("%s: %w", filePath, errUnsupportedFormat)
}

func readXlsxTable(filePath string) ([][]CellValue, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("%s: no sheets found", filePath)
	}

	firstSheet := f.Sheets[0]
	table := make([][]CellValue, 0, len(firstSheet.Rows))
	for _, row := range firstSheet.Rows {
		if row == nil {
			table = append(table, nil)
			continue
		}
		cells := make([]CellValue, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cellValueFromXlsx(cell))
		}
		table = append(table, cells)
	}
	return table, nil
}

// cellValueFromXlsx keeps numeric cells as numbers only when their formatted text is a plain
// number. Dates and other formatted numerics stay text exactly as the bank shows them.
func cellValueFromXlsx(cell *xlsx.Cell) CellValue {
	if cell == nil {
		return EmptyCell()
	}
	text := strings.TrimSpace(cell.String())
	if text == "" {
		return EmptyCell()
	}
	if cell.Type() == xlsx.CellTypeNumeric {
		if number, err := strconv.ParseFloat(text, 64); err == nil {
			return NumberCell(number)
		}
	}
	return TextCell(text)
}

func readCsvTable(filePath string) ([][]CellValue, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	fileData = bytes.TrimPrefix(fileData, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(fileData))
	reader.FieldsPerRecord = -1 // Bank exports have preamble rows of other widths.
	reader.LazyQuotes = true

	table := [][]CellValue{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read CSV row %d: %w", filePath, len(table)+1, err)
		}
		cells := make([]CellValue, 0, len(record))
		for _, value := range record {
			value = strings.TrimSpace(strings.Trim(value, `"`))
			if value == "" {
				cells = append(cells, EmptyCell())
			} else {
				cells = append(cells, TextCell(value))
			}
		}
		table = append(table, cells)
	}
	return table, nil
}
