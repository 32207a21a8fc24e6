package main

import (
	"testing"
)

// iciciRow builds a row in ICICI layout.
func iciciRow(date, remarks, withdrawal, deposit string) Row {
	cell := func(s string) CellValue {
		if s == "" {
			return EmptyCell()
		}
		return TextCell(s)
	}
	return Row{Number: 5, Fields: []Field{
		{Column: "S No.", Value: TextCell("1")},
		{Column: "Transaction Date", Value: cell(date)},
		{Column: "Cheque Number", Value: EmptyCell()},
		{Column: "Transaction Remarks", Value: cell(remarks)},
		{Column: "Withdrawal Amount (INR )", Value: cell(withdrawal)},
		{Column: "Deposit Amount (INR )", Value: cell(deposit)},
		{Column: "Balance (INR )", Value: TextCell("49550.00")},
	}}
}

func TestTransactionValidator_Validate(t *testing.T) {
	validator := TransactionValidator{Profile: processorRegistry[ProcessorICICIBank]}

	tests := []struct {
		name string
		row  Row
		want string
	}{
		{name: "valid debit", row: iciciRow("01/01/2023", "UPI-SWIGGY", "450.00", ""), want: ""},
		{name: "zero amount is essential", row: iciciRow("01/01/2023", "UPI-SWIGGY", "0.00", ""), want: ""},
		{name: "negative amount is essential", row: iciciRow("01/01/2023", "REVERSAL", "", "-10"), want: ""},
		{name: "no date", row: iciciRow("", "UPI-SWIGGY", "450.00", ""), want: reasonMissingEssentialFields},
		{name: "nan date", row: iciciRow("NaN", "UPI-SWIGGY", "450.00", ""), want: reasonMissingEssentialFields},
		{name: "no amount", row: iciciRow("01/01/2023", "UPI-SWIGGY", "", "abc"), want: reasonMissingEssentialFields},
		{name: "header echo", row: iciciRow("01/01/2023", "Transaction Remarks", "1", ""), want: reasonHeaderLikeRow},
		{name: "cheque number header", row: iciciRow("01/01/2023", "CHEQUE NUMBER", "1", ""), want: reasonHeaderLikeRow},
		{name: "empty remarks", row: iciciRow("01/01/2023", "  ", "1", ""), want: reasonEmptyDescription},
		{name: "none remarks", row: iciciRow("01/01/2023", "None", "1", ""), want: reasonEmptyDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validator.Validate(tt.row); got != tt.want {
				t.Errorf("expected reason '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestTransactionValidator_IsHeaderLike(t *testing.T) {
	genericRow := func(description string) Row {
		return Row{Number: 3, Fields: []Field{
			{Column: "Date", Value: TextCell("2023-01-02")},
			{Column: "Description", Value: TextCell(description)},
			{Column: "Debit", Value: TextCell("10.00")},
		}}
	}

	tests := []struct {
		name    string
		profile ProcessorKind
		row     Row
		want    bool
	}{
		{name: "generic echo", profile: ProcessorGenericCsv, row: genericRow(" Description "), want: true},
		{name: "generic other label", profile: ProcessorGenericCsv, row: genericRow("BALANCE"), want: true},
		{name: "generic word inside text", profile: ProcessorGenericCsv, row: genericRow("Fee, see description on invoice"), want: false},
		{name: "generic full label inside text", profile: ProcessorGenericCsv, row: genericRow("Transaction Description"), want: true},
		{name: "icici balance label", profile: ProcessorICICIBank, row: iciciRow("", "Balance (USD )", "", ""), want: true},
		{name: "icici remarks", profile: ProcessorICICIBank, row: iciciRow("", "UPI-SWIGGY", "", ""), want: false},
		{name: "icici balance word", profile: ProcessorICICIBank, row: iciciRow("", "MIN BALANCE CHARGES", "", ""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := TransactionValidator{Profile: processorRegistry[tt.profile]}

			if got := validator.IsHeaderLike(tt.row); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
