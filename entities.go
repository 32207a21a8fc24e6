package main

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// OutputDateFormat format for dates in outputs and storage.
const OutputDateFormat = "2006-01-02"

// CellKind tells which variant a CellValue holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// CellValue is a single spreadsheet cell: text, number or nothing.
type CellValue struct {
	kind   CellKind
	text   string
	number float64
}

func TextCell(s string) CellValue {
	return CellValue{kind: CellText, text: s}
}

func NumberCell(f float64) CellValue {
	return CellValue{kind: CellNumber, number: f}
}

func EmptyCell() CellValue {
	return CellValue{}
}

func (c CellValue) Kind() CellKind {
	return c.kind
}

// IsBlank reports whether cell has no content. Whitespace-only text is blank, zero is not.
func (c CellValue) IsBlank() bool {
	switch c.kind {
	case CellText:
		return strings.TrimSpace(c.text) == ""
	case CellNumber:
		return false
	}
	return true
}

// String returns cell content as text. Numbers are printed without trailing zeros.
func (c CellValue) String() string {
	switch c.kind {
	case CellText:
		return c.text
	case CellNumber:
		return strconv.FormatFloat(c.number, 'f', -1, 64)
	}
	return ""
}

// MarshalJSON writes text as string, number as number and empty as null.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellText:
		return json.Marshal(c.text)
	case CellNumber:
		return json.Marshal(c.number)
	}
	return []byte("null"), nil
}

// Field is one column of a Row.
type Field struct {
	Column string
	Value  CellValue
}

// Row is a data row re-keyed by the header labels, in header order.
type Row struct {
	// Number is 1-based row number in the source sheet.
	Number int
	Fields []Field
}

// normalizeLabel lowercases label and collapses whitespace.
func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Lookup returns value of the first column whose normalized label contains the normalized
// label provided. Missing column gives an empty cell.
func (r Row) Lookup(label string) CellValue {
	wanted := normalizeLabel(label)
	if wanted == "" {
		return EmptyCell()
	}
	for _, field := range r.Fields {
		if strings.Contains(normalizeLabel(field.Column), wanted) {
			return field.Value
		}
	}
	return EmptyCell()
}

func (r Row) IsBlank() bool {
	for _, field := range r.Fields {
		if !field.Value.IsBlank() {
			return false
		}
	}
	return true
}

// MarshalJSON writes row as JSON object keeping column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// NormalizedTransaction is a validated row with parsed values.
// At least one of Debit and Credit is set.
type NormalizedTransaction struct {
	Date        time.Time
	Description string
	Debit       *float64
	Credit      *float64
	Balance     *float64
	Reference   string
	Type        TransactionType
	// Currency is 3-letter ISO code.
	Currency string
}

// Amount returns debit amount if present, credit amount otherwise.
func (t NormalizedTransaction) Amount() float64 {
	if t.Debit != nil {
		return *t.Debit
	}
	if t.Credit != nil {
		return *t.Credit
	}
	return 0
}

// CategoryPattern (aka "enum") maps description substrings to a default category.
type CategoryPattern struct {
	ID         int64
	Name       string
	Substrings []string
	Category   string
	Processor  ProcessorKind
	Active     bool
}

type ClassificationAction string

const (
	ActionProcess   ClassificationAction = "process"
	ActionSkip      ClassificationAction = "skip"
	ActionCreateNew ClassificationAction = "create_new"
)

// ClassificationDecision is the outcome of classifying one transaction.
type ClassificationDecision struct {
	Action              ClassificationAction
	PatternID           int64
	PatternName         string
	Category            string
	TransactionCategory string
	Reason              string
	Splits              []Split
	// Interrupted is set when decision was forced by cancellation.
	Interrupted bool
}

// Split allocates a percentage of transaction amount to a person.
type Split struct {
	Person     string
	Percentage float64
	Amount     float64
}

// FileProcessingCounters accumulate outcomes of one file run.
type FileProcessingCounters struct {
	Total       int
	Processed   int
	Skipped     int
	Duplicate   int
	AutoSkipped int
}

// Handled returns number of rows which reached a final outcome.
func (c FileProcessingCounters) Handled() int {
	return c.Processed + c.Skipped + c.Duplicate + c.AutoSkipped
}

type RunStatus string

const (
	RunCompleted          RunStatus = "completed"
	RunPartiallyCompleted RunStatus = "partially_completed"
	RunError              RunStatus = "error"
)

type FileStatus string

const (
	FileProcessing         FileStatus = "processing"
	FileCompleted          FileStatus = "completed"
	FilePartiallyProcessed FileStatus = "partially_processed"
	FileFailed             FileStatus = "failed"
)

type Institution struct {
	ID   int64
	Name string
	Type string
}

type ProcessedFile struct {
	ID            int64
	InstitutionID int64
	Path          string
	Name          string
	Size          int64
	Processor     ProcessorKind
	Status        FileStatus
}

// TransactionRecord is an accepted transaction ready to be stored.
type TransactionRecord struct {
	NormalizedTransaction
	Key                 DedupKey
	InstitutionID       int64
	FileID              int64
	PatternID           int64
	Category            string
	TransactionCategory string
	Reason              string
}

// SkippedTransaction keeps raw row of a rejected or skipped transaction.
type SkippedTransaction struct {
	Key           DedupKey
	InstitutionID int64
	FileID        int64
	Row           Row
	Reason        string
}

type ProcessingLog struct {
	FileID   int64
	RunID    string
	Counters FileProcessingCounters
	Duration time.Duration
}
