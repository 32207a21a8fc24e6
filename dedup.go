package main

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DedupKey is hex SHA-256 digest identifying a transaction across runs and files.
type DedupKey string

// dedupKey digests the canonical fields. Case and whitespace of description don't matter,
// amounts are compared with 2 decimal places.
func dedupKey(date time.Time, description string, debit, credit float64) DedupKey {
	canonical := strings.ToLower(strings.Join([]string{
		date.Format(OutputDateFormat),
		strings.Join(strings.Fields(description), " "),
		strconv.FormatFloat(debit, 'f', 2, 64),
		strconv.FormatFloat(credit, 'f', 2, 64),
	}, "|"))
	sum := sha256.Sum256([]byte(canonical))
	return DedupKey(hex.EncodeToString(sum[:]))
}

// transactionKey is dedupKey of a normalized transaction, absent amounts count as 0.
func transactionKey(t NormalizedTransaction) DedupKey {
	var debit, credit float64
	if t.Debit != nil {
		debit = *t.Debit
	}
	if t.Credit != nil {
		credit = *t.Credit
	}
	return dedupKey(t.Date, t.Description, debit, credit)
}

// rawRowKey identifies a row which can't be normalized, by its trimmed lowercased cells.
func rawRowKey(row Row) DedupKey {
	parts := make([]string, 0, len(row.Fields)+1)
	parts = append(parts, "raw")
	for _, field := range row.Fields {
		parts = append(parts, normalizeLabel(field.Column)+"="+strings.ToLower(strings.TrimSpace(field.Value.String())))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return DedupKey(hex.EncodeToString(sum[:]))
}
