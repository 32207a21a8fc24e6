package main

import (
	"strings"
)

const (
	reasonMissingEssentialFields = "missing essential fields: date or amount"
	reasonHeaderLikeRow          = "header-like row inside the table"
	reasonEmptyDescription       = "empty transaction description"
)

// isDegenerateMarker reports values spreadsheets leave in place of nothing.
func isDegenerateMarker(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// TransactionValidator applies per-row heuristics of one processor layout.
type TransactionValidator struct {
	Profile ProcessorProfile
}

// HasEssentialFields requires a date and at least one amount parseable as a number.
// Sign is not checked and zero is a valid amount here.
func (v TransactionValidator) HasEssentialFields(row Row) bool {
	if isDegenerateMarker(row.Lookup(v.Profile.Columns.Date).String()) {
		return false
	}
	for _, label := range []string{v.Profile.Columns.Debit, v.Profile.Columns.Credit} {
		if _, err := cellAmount(row.Lookup(label)); err == nil {
			return true
		}
	}
	return false
}

// IsHeaderLike flags repeated header bands which some exports insert mid-file.
func (v TransactionValidator) IsHeaderLike(row Row) bool {
	description := normalizeLabel(row.Lookup(v.Profile.Columns.Description).String())
	for _, label := range v.Profile.RequiredColumns {
		if description == label {
			return true
		}
	}
	for _, indicator := range v.Profile.HeaderIndicators {
		if strings.Contains(description, indicator) {
			return true
		}
	}
	return false
}

// Validate returns reason why the row is not a transaction, or empty string for a valid row.
func (v TransactionValidator) Validate(row Row) string {
	if !v.HasEssentialFields(row) {
		return reasonMissingEssentialFields
	}
	if v.IsHeaderLike(row) {
		return reasonHeaderLikeRow
	}
	if isDegenerateMarker(row.Lookup(v.Profile.Columns.Description).String()) {
		return reasonEmptyDescription
	}
	return ""
}
