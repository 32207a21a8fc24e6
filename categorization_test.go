package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPatternMatcher_Match(t *testing.T) {
	patterns := []CategoryPattern{
		{ID: 1, Name: "food_delivery", Substrings: []string{"swiggy", "zomato"}, Category: "food"},
		{ID: 2, Name: "upi_transaction", Substrings: []string{"upi"}, Category: "transfers"},
		{ID: 3, Name: "salary", Substrings: []string{"SALARY", ""}, Category: "income"},
	}
	matcher := newPatternMatcher(patterns)

	tests := []struct {
		description string
		wantID      int64
		wantOK      bool
	}{
		{description: "UPI-SWIGGY", wantID: 1, wantOK: true},
		{description: "UPI-PHONEPE", wantID: 2, wantOK: true},
		{description: "NEFT ACME Salary Jan", wantID: 3, wantOK: true},
		{description: "ATM WITHDRAWAL", wantOK: false},
		{description: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, ok := matcher.match(tt.description)

			if ok != tt.wantOK {
				t.Fatalf("expected match=%v, got %v", tt.wantOK, ok)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("expected pattern %d, got %d", tt.wantID, got.ID)
			}
		})
	}
}

func TestPatternMatcher_FirstPatternWinsForSharedPrefix(t *testing.T) {
	patterns := []CategoryPattern{
		{ID: 1, Substrings: []string{"amazon prime"}},
		{ID: 2, Substrings: []string{"amazon"}},
	}
	matcher := newPatternMatcher(patterns)

	got, ok := matcher.match("AMAZON PRIME VIDEO")

	if !ok || got.ID != 1 {
		t.Errorf("expected pattern 1, got %d (%v)", got.ID, ok)
	}
}

func TestSuggestPatternWords(t *testing.T) {
	tests := []struct {
		description string
		expected    []string
	}{
		{description: "UPI-SWIGGY", expected: []string{"upi-swiggy"}},
		{description: "POS (AMAZON) 1234", expected: []string{"pos", "amazon", "1234"}},
		{description: "Transfer to the Savings account at HDFC", expected: []string{"transfer", "savings", "account", "hdfc"}},
		{description: "a b c de", expected: []string{}},
		{description: "one two three four five six seven", expected: []string{"one", "two", "three", "four", "five"}},
		{description: "NEFT NEFT acme", expected: []string{"neft", "acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, suggestPatternWords(tt.description)); diff != "" {
				t.Errorf("suggestions mismatch (-expected +got):\n%s", diff)
			}
		})
	}
}
