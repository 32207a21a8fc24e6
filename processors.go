package main

import (
	"fmt"
	"sort"
	"strings"
)

// ProcessorKind names a source-format profile, e.g. one bank's export layout.
type ProcessorKind string

const (
	ProcessorICICIBank  ProcessorKind = "icici_bank"
	ProcessorGenericCsv ProcessorKind = "generic_csv"
)

// ColumnMap holds header labels (or their distinctive part) of logical transaction fields.
type ColumnMap struct {
	Date        string
	Description string
	Debit       string
	Credit      string
	Balance     string
	Reference   string
}

// ProcessorProfile bundles everything needed to turn one bank export into transactions.
type ProcessorProfile struct {
	Kind            ProcessorKind
	RequiredColumns []string
	Columns         ColumnMap
	// DateFormats are tried in order, first successful wins.
	DateFormats []string
	// HeaderIndicators are header labels which mark an echoed header when found inside the
	// description field. A description equal to any required column label is an echo too.
	HeaderIndicators []string
	DefaultCurrency  string
	// Extensions of files which may be picked from the extraction folder.
	Extensions []string
}

var iciciBankColumns = ColumnMap{
	Date:        "transaction date",
	Description: "transaction remarks",
	Debit:       "withdrawal amount",
	Credit:      "deposit amount",
	Balance:     "balance",
	Reference:   "s no.",
}

var genericCsvColumns = ColumnMap{
	Date:        "date",
	Description: "description",
	Debit:       "debit",
	Credit:      "credit",
	Balance:     "balance",
	Reference:   "reference",
}

// processorRegistry is resolved once at startup, there is no dynamic lookup of processors.
var processorRegistry = map[ProcessorKind]ProcessorProfile{
	ProcessorICICIBank: {
		Kind: ProcessorICICIBank,
		RequiredColumns: []string{
			iciciBankColumns.Date,
			iciciBankColumns.Description,
			iciciBankColumns.Debit,
			iciciBankColumns.Credit,
			iciciBankColumns.Balance,
			iciciBankColumns.Reference,
		},
		Columns:     iciciBankColumns,
		DateFormats: []string{"02-01-2006", "02/01/2006"},
		HeaderIndicators: []string{
			"transaction remarks",
			"transaction date",
			"withdrawal amount",
			"deposit amount",
			"balance (",
			"cheque number",
		},
		DefaultCurrency: "INR",
		Extensions:      []string{".xlsx", ".csv"},
	},
	ProcessorGenericCsv: {
		Kind: ProcessorGenericCsv,
		RequiredColumns: []string{
			genericCsvColumns.Date,
			genericCsvColumns.Description,
			genericCsvColumns.Debit,
			genericCsvColumns.Credit,
			genericCsvColumns.Balance,
			genericCsvColumns.Reference,
		},
		Columns:          genericCsvColumns,
		DateFormats:      []string{"02-01-2006", "02/01/2006", "2006-01-02"},
		HeaderIndicators: []string{"transaction description"},
		DefaultCurrency:  "USD",
		Extensions:       []string{".csv", ".xlsx"},
	},
}

// lookupProcessor returns registered profile by its configuration name.
func lookupProcessor(name string) (ProcessorProfile, error) {
	profile, ok := processorRegistry[ProcessorKind(strings.TrimSpace(name))]
	if !ok {
		return ProcessorProfile{}, fmt.Errorf(
			"unknown processor '%s', supported: %s",
			name, strings.Join(registeredProcessorNames(), ", "),
		)
	}
	return profile, nil
}

func registeredProcessorNames() []string {
	names := make([]string, 0, len(processorRegistry))
	for kind := range processorRegistry {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}

// institutionNameFor builds human-readable institution name from processor kind,
// "icici_bank" becomes "Icici Bank".
func institutionNameFor(kind ProcessorKind) string {
	words := strings.Fields(strings.ReplaceAll(string(kind), "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
