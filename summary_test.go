package main

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func TestDumpFileReport(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	tests := []struct {
		name     string
		report   FileReport
		totals   []CategoryTotal
		expected string
	}{
		{
			name: "completed with totals",
			report: FileReport{
				File:     ProcessedFile{Name: "stmt.xlsx"},
				Status:   RunCompleted,
				Counters: FileProcessingCounters{Total: 4, Processed: 3, Duplicate: 1},
				Duration: 1234567 * time.Microsecond,
			},
			totals: []CategoryTotal{
				{Category: "income", Currency: "INR", Count: 1, Income: 100000},
				{Category: "food", Currency: "INR", Count: 2, Expense: 770.5},
			},
			expected: "\nstmt.xlsx: completed\n" +
				"  rows 4, processed 3, skipped 0, duplicate 1, auto-skipped 0 in 1.235s\n" +
				"  by category:\n" +
				"    food                   2  -₹770.50\n" +
				"    income                 1  +₹100000.00\n",
		},
		{
			name: "interrupted",
			report: FileReport{
				File:        ProcessedFile{Name: "stmt.csv"},
				Status:      RunPartiallyCompleted,
				Interrupted: true,
				Counters:    FileProcessingCounters{Total: 10, Processed: 4},
			},
			expected: "\nstmt.csv: partially_completed\n" +
				"  rows 10, processed 4, skipped 0, duplicate 0, auto-skipped 0 in 0s\n" +
				"  interrupted, 6 rows left untouched, run again to continue\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			DumpFileReport(tt.report, tt.totals, &buf)

			if diff := cmp.Diff(tt.expected, buf.String()); diff != "" {
				t.Errorf("report mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}

func TestSQLiteStore_CategoryTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	file := newTestFile(t, store)
	salary := swiggyTransaction()
	salary.Description = "SALARY"
	salary.Debit = nil
	salary.Credit = floatPtr(1000)
	salary.Type = TransactionCredit
	for _, item := range []struct {
		tx       NormalizedTransaction
		category string
	}{
		{tx: swiggyTransaction(), category: "food"},
		{tx: salary, category: "income"},
	} {
		_, err := store.CreateTransaction(ctx, TransactionRecord{
			NormalizedTransaction: item.tx,
			Key:                   transactionKey(item.tx),
			InstitutionID:         file.InstitutionID,
			FileID:                file.ID,
			TransactionCategory:   item.category,
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	totals, err := store.CategoryTotals(ctx, file.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sorted := CategoryTotalList(totals)
	sort.Sort(sorted)
	expected := CategoryTotalList{
		{Category: "food", Currency: "INR", Count: 1, Expense: 450},
		{Category: "income", Currency: "INR", Count: 1, Income: 1000},
	}
	if diff := cmp.Diff(expected, sorted); diff != "" {
		t.Errorf("totals mismatch (-expected +got):\n%s", diff)
	}
}
