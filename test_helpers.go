package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tealeg/xlsx"
)

func checkErrorContainsSubstring(t *testing.T, err error, substring string) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error containing '%s', got nil", substring)
		return
	}
	if !strings.Contains(err.Error(), substring) {
		t.Errorf(
			"Expected error message to contain '%s', got '%s'",
			substring,
			err.Error(),
		)
	}
}

func createTempFileWithContent(content string) *os.File {
	tempFile, err := os.CreateTemp("", "test_config_*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tempFile.WriteString(content); err != nil {
		panic(err)
	}
	return tempFile
}

// writeTestFile writes content into dir/name and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// writeTestXlsx saves rows into a single-sheet XLSX file. float64 values become numeric cells,
// everything else is written as string.
func writeTestXlsx(t *testing.T, path string, rows [][]any) {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sheet1")
	if err != nil {
		t.Fatalf("Failed to add sheet: %v", err)
	}
	for _, values := range rows {
		row := sheet.AddRow()
		for _, value := range values {
			cell := row.AddCell()
			switch v := value.(type) {
			case float64:
				cell.SetFloat(v)
			case string:
				cell.SetString(v)
			}
		}
	}
	if err := file.Save(path); err != nil {
		t.Fatalf("Failed to save %s: %v", path, err)
	}
}

// iciciStatementCsv is a statement in ICICI layout with account preamble above the table.
const iciciStatementCsv = `DETAILED STATEMENT,,,,,,,,
Account Number,000401234567,,,,,,,
,,,,,,,,
S No.,Value Date,Transaction Date,Cheque Number,Transaction Remarks,Withdrawal Amount (INR ),Deposit Amount (INR ),Balance (INR )
1,01/01/2023,01/01/2023,,UPI-SWIGGY,450.00,,49550.00
2,02/01/2023,02/01/2023,,NEFT-ACME CORP SALARY,,"1,00,000.00","1,49,550.00"
,,,,,,,,
3,03/01/2023,03/01/2023,,UPI-ZOMATO ORDER,320.50,,"1,49,229.50"
`
