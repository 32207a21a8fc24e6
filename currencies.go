package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// currencyPatterns detect a currency by symbol, ISO code or common name.
var currencyPatterns = map[string][]*regexp.Regexp{
	"USD": compileCurrencyPatterns(`(?:^|[^a-z])\$`, isoCodePattern("USD"), `\bdollars?\b`, `united states`, `\bus\s+dollar`),
	"EUR": compileCurrencyPatterns(`€`, isoCodePattern("EUR"), `\beuros?\b`, `\beuropean\b`),
	"GBP": compileCurrencyPatterns(`£`, isoCodePattern("GBP"), `\bpounds?\b`, `\bsterling\b`, `\bbritish\b`),
	"INR": compileCurrencyPatterns(`₹`, isoCodePattern("INR"), `\brupees?\b`, `\brs\.`, `\bindian\b`),
	"JPY": compileCurrencyPatterns(`¥`, isoCodePattern("JPY"), `\byen\b`, `\bjapanese\b`),
	"CNY": compileCurrencyPatterns(`¥`, isoCodePattern("CNY"), `\byuan\b`, `\brmb\b`, `\bchinese\b`),
	"AUD": compileCurrencyPatterns(isoCodePattern("AUD"), `\baustralian\b`, `\ba\$`),
	"CAD": compileCurrencyPatterns(isoCodePattern("CAD"), `\bcanadian\b`, `\bc\$`),
	"CHF": compileCurrencyPatterns(isoCodePattern("CHF"), `\bswiss\b`, `\bfrancs?\b`),
	"SGD": compileCurrencyPatterns(isoCodePattern("SGD"), `\bsingapore\b`, `\bs\$`),
}

// isoCodePattern matches the code not glued to other letters, digits around it are fine:
// "USD100.00" and "100 usd" match, "NEURON" doesn't match "EUR".
func isoCodePattern(code string) string {
	return `(?:^|[^a-z])` + regexp.QuoteMeta(strings.ToLower(code)) + `(?:[^a-z]|$)`
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
	"CNY": "¥",
	"AUD": "A$",
	"CAD": "C$",
	"CHF": "CHF",
	"SGD": "S$",
}

func compileCurrencyPatterns(expressions ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(expressions))
	for i, expression := range expressions {
		patterns[i] = regexp.MustCompile(`(?i)` + expression)
	}
	return patterns
}

// currencySymbol returns display symbol or the code itself.
func currencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}

func isValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// normalizeCurrencies uppercases codes, drops invalid ones and duplicates.
func normalizeCurrencies(codes []string) (valid []string, dropped []string) {
	seen := map[string]bool{}
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !isValidCurrencyCode(code) {
			dropped = append(dropped, code)
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		valid = append(valid, code)
	}
	return valid, dropped
}

// currencyMatches reports whether text mentions the currency. Codes without known patterns
// are matched by the code only.
func currencyMatches(code, text string) bool {
	patterns, ok := currencyPatterns[code]
	if !ok {
		patterns = compileCurrencyPatterns(isoCodePattern(code))
	}
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// detectCurrency returns currency only when exactly one of the candidates matches text.
func detectCurrency(text string, candidates []string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	found := ""
	for _, code := range candidates {
		if !currencyMatches(code, text) {
			continue
		}
		if found != "" {
			return "", false
		}
		found = code
	}
	return found, found != ""
}

// CurrencyResolver determines currency of a row from processor currencies.
type CurrencyResolver struct {
	Profile    ProcessorProfile
	Currencies []string
	Answerer   Answerer
}

// Resolve returns the only configured currency, or detects currency first in amount cells
// and then in description, or asks the operator. Operator choice is not remembered.
func (r CurrencyResolver) Resolve(ctx context.Context, row Row) (string, error) {
	switch len(r.Currencies) {
	case 0:
		return r.Profile.DefaultCurrency, nil
	case 1:
		return r.Currencies[0], nil
	}

	amounts := []string{
		row.Lookup(r.Profile.Columns.Debit).String(),
		row.Lookup(r.Profile.Columns.Credit).String(),
	}
	for _, amount := range amounts {
		if code, ok := detectCurrency(amount, r.Currencies); ok {
			return code, nil
		}
	}
	amountsText := strings.Join(amounts, " ")
	description := row.Lookup(r.Profile.Columns.Description).String()
	if code, ok := detectCurrency(description, r.Currencies); ok {
		return code, nil
	}
	if r.Answerer == nil {
		return "", fmt.Errorf("can't detect currency of '%s' among %v", description, r.Currencies)
	}

	choices := make([]string, len(r.Currencies))
	for i, code := range r.Currencies {
		choices[i] = fmt.Sprintf("%s (%s)", code, currencySymbol(code))
	}
	prompt := Prompt{
		Kind: PromptCurrency,
		Question: fmt.Sprintf(
			"Currency of row %d '%s' (amount %s) is unclear, choose one:",
			row.Number, description, strings.TrimSpace(amountsText),
		),
		Choices: choices,
		Hint:    "Enter number or currency code.",
	}
	return ask(ctx, r.Answerer, prompt, func(answer string) (string, string) {
		if choice, ok := choiceByNumber(answer, choices); ok {
			return r.Currencies[indexOf(choices, choice)], ""
		}
		code := strings.ToUpper(answer)
		for _, currency := range r.Currencies {
			if currency == code {
				return currency, ""
			}
		}
		return "", fmt.Sprintf("'%s' is not one of %s", answer, strings.Join(r.Currencies, ", "))
	})
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}
