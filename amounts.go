package main

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAbsAmount bounds amounts, larger values are garbage in the cell.
var maxAbsAmount = decimal.New(1, 12)

var errEmptyAmount = errors.New("empty amount")

var amountGlyphsReplacer = newAmountGlyphsReplacer()

// newAmountGlyphsReplacer removes separators and currency symbols. Longer symbols go first
// so "A$" is removed as a whole rather than leaving "A" after "$".
func newAmountGlyphsReplacer() *strings.Replacer {
	symbols := make([]string, 0, len(currencySymbols))
	seen := map[string]bool{}
	for _, symbol := range currencySymbols {
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}
	sort.Slice(symbols, func(i, j int) bool {
		if len(symbols[i]) != len(symbols[j]) {
			return len(symbols[i]) > len(symbols[j])
		}
		return symbols[i] < symbols[j]
	})
	oldnew := []string{",", "", " ", "", "\u00a0", ""}
	for _, symbol := range symbols {
		oldnew = append(oldnew, symbol, "")
	}
	return strings.NewReplacer(oldnew...)
}

// Currency words around the number, like "Rs. 500" or "500 INR".
var amountCurrencyWordRegexp = regexp.MustCompile(`(?i)^(rs\.?|[a-z]{3})\s*|\s*(rs\.?|[a-z]{3})$`)

// parseAmountDecimal strips thousands separators and currency glyphs and parses the rest as
// a decimal number. Sign is kept.
func parseAmountDecimal(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = amountCurrencyWordRegexp.ReplaceAllString(s, "")
	s = amountGlyphsReplacer.Replace(s)
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("can't parse amount '%s': %w", text, err)
	}
	if value.Abs().GreaterThan(maxAbsAmount) {
		return decimal.Zero, fmt.Errorf("amount '%s' is out of range", text)
	}
	return value, nil
}

// parseAmount is the raw amount parse: any sign, zero included.
func parseAmount(text string) (float64, error) {
	value, err := parseAmountDecimal(text)
	if err != nil {
		return 0, err
	}
	return value.InexactFloat64(), nil
}

// cellAmount parses amount from a cell of any kind.
func cellAmount(cell CellValue) (float64, error) {
	switch cell.Kind() {
	case CellEmpty:
		return 0, errEmptyAmount
	case CellNumber:
		value := decimal.NewFromFloat(cell.number)
		if value.Abs().GreaterThan(maxAbsAmount) {
			return 0, fmt.Errorf("amount %s is out of range", cell.String())
		}
		return cell.number, nil
	}
	return parseAmount(cell.String())
}

// positiveAmount returns amount of the cell only when it is greater than zero.
// Zero, negative and unparseable values are treated as absent.
func positiveAmount(cell CellValue) (float64, bool) {
	value, err := cellAmount(cell)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// formatAmount prints amount with 2 decimal places.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// splitAmount returns percentage/100 * amount.
func splitAmount(percentage, amount float64) float64 {
	return decimal.NewFromFloat(percentage).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromFloat(amount)).
		InexactFloat64()
}
