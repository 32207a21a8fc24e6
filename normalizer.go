package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const maxDescriptionLength = 1000

var errInvalidRow = errors.New("invalid row")

// invalidRow builds error with human-readable reason which wraps errInvalidRow.
func invalidRow(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRow, fmt.Sprintf(format, args...))
}

// Excel counts days from 1899-12-30.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Normalizer turns a validated row into a NormalizedTransaction.
type Normalizer struct {
	Profile    ProcessorProfile
	Location   *time.Location
	Currencies CurrencyResolver
}

// parseDate tries profile date formats in order. Time part after the date is ignored.
func (n Normalizer) parseDate(cell CellValue) (time.Time, error) {
	location := n.Location
	if location == nil {
		location = time.UTC
	}
	if cell.Kind() == CellNumber {
		days := math.Floor(cell.number)
		if days > 0 {
			serial := excelEpoch.AddDate(0, 0, int(days))
			return time.Date(serial.Year(), serial.Month(), serial.Day(), 0, 0, 0, 0, location), nil
		}
	}
	fields := strings.Fields(cell.String())
	if len(fields) == 0 {
		return time.Time{}, invalidRow("empty date")
	}
	for _, format := range n.Profile.DateFormats {
		if date, err := time.ParseInLocation(format, fields[0], location); err == nil {
			return date, nil
		}
	}
	return time.Time{}, invalidRow("unparseable date '%s', expected one of %v", cell.String(), n.Profile.DateFormats)
}

// Normalize parses date and amounts and attaches currency. Rows which can't be parsed give
// error wrapping errInvalidRow. Zero and negative amounts are treated as absent.
func (n Normalizer) Normalize(ctx context.Context, row Row) (NormalizedTransaction, error) {
	columns := n.Profile.Columns
	date, err := n.parseDate(row.Lookup(columns.Date))
	if err != nil {
		return NormalizedTransaction{}, err
	}

	description := strings.TrimSpace(row.Lookup(columns.Description).String())
	if isDegenerateMarker(description) {
		return NormalizedTransaction{}, invalidRow(reasonEmptyDescription)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		description = string([]rune(description)[:maxDescriptionLength])
	}

	tx := NormalizedTransaction{
		Date:        date,
		Description: description,
		Type:        TransactionCredit,
	}
	if debit, ok := positiveAmount(row.Lookup(columns.Debit)); ok {
		tx.Debit = &debit
		tx.Type = TransactionDebit
	}
	if credit, ok := positiveAmount(row.Lookup(columns.Credit)); ok {
		tx.Credit = &credit
	}
	if tx.Debit == nil && tx.Credit == nil {
		return NormalizedTransaction{}, invalidRow("no positive withdrawal or deposit amount")
	}
	if balance, err := cellAmount(row.Lookup(columns.Balance)); err == nil {
		tx.Balance = &balance
	}
	if reference := strings.TrimSpace(row.Lookup(columns.Reference).String()); !isDegenerateMarker(reference) {
		tx.Reference = reference
	}

	currency, err := n.Currencies.Resolve(ctx, row)
	if err != nil {
		return NormalizedTransaction{}, err
	}
	tx.Currency = currency
	return tx, nil
}
