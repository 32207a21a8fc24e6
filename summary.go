package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// CategoryTotal is the sum of one run's transactions in one category and currency.
type CategoryTotal struct {
	Category string
	Currency string
	Count    int
	Expense  float64
	Income   float64
}

type CategoryTotalList []CategoryTotal

func (g CategoryTotalList) Len() int {
	return len(g)
}

func (g CategoryTotalList) Less(i, j int) bool {
	if g[i].Currency != g[j].Currency {
		return g[i].Currency < g[j].Currency
	}
	if g[i].Expense != g[j].Expense {
		return g[i].Expense > g[j].Expense
	}
	return g[i].Category < g[j].Category
}

func (g CategoryTotalList) Swap(i, j int) {
	g[i], g[j] = g[j], g[i]
}

func (c CategoryTotal) String() string {
	category := c.Category
	if category == "" {
		category = "(none)"
	}
	parts := []string{}
	if c.Expense > 0 {
		parts = append(parts, "-"+currencySymbol(c.Currency)+formatAmount(c.Expense))
	}
	if c.Income > 0 {
		parts = append(parts, "+"+currencySymbol(c.Currency)+formatAmount(c.Income))
	}
	return fmt.Sprintf("%-20s %3d  %s", category, c.Count, strings.Join(parts, " "))
}

func statusColor(status RunStatus) *color.Color {
	switch status {
	case RunCompleted:
		return color.New(color.FgGreen, color.Bold)
	case RunPartiallyCompleted:
		return color.New(color.FgYellow, color.Bold)
	}
	return color.New(color.FgRed, color.Bold)
}

// DumpFileReport writes counters and category totals of the run to writer.
func DumpFileReport(report FileReport, totals []CategoryTotal, writer io.Writer) {
	fmt.Fprintf(writer, "\n%s: ", report.File.Name)
	statusColor(report.Status).Fprintln(writer, report.Status)
	counters := report.Counters
	fmt.Fprintf(writer, "  rows %d, processed %d, skipped %d, duplicate %d, auto-skipped %d in %s\n",
		counters.Total, counters.Processed, counters.Skipped, counters.Duplicate, counters.AutoSkipped,
		report.Duration.Round(time.Millisecond),
	)
	if report.Interrupted {
		color.New(color.FgYellow).Fprintf(writer,
			"  interrupted, %d rows left untouched, run again to continue\n",
			counters.Total-counters.Handled(),
		)
	}
	if len(totals) == 0 {
		return
	}
	sorted := append(CategoryTotalList(nil), totals...)
	sort.Sort(sorted)
	fmt.Fprintln(writer, "  by category:")
	for _, total := range sorted {
		fmt.Fprintf(writer, "    %s\n", total)
	}
}
