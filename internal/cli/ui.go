package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/accounting"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	profitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	totalsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F59E0B")).
			Padding(0, 1).
			MarginTop(1)
)

var summaryColumns = []string{
	"Symbol", "Name", "Status", "Qty", "Avg Cost", "Price", "Value", "Unrealized", "Return %", "Plan %", "Weight %",
}

// firstNumericColumn is the index of the first right-aligned column.
const firstNumericColumn = 3

const maxNameWidth = 24

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(1)
}

// signed colours a figure by the sign of d.
func signed(d decimal.Decimal, s string) string {
	switch d.Sign() {
	case 1:
		return profitStyle.Render(s)
	case -1:
		return lossStyle.Render(s)
	default:
		return s
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderSummary formats a portfolio summary as an aligned table followed by totals.
// Prices marked with * stand in for a missing market price.
func renderSummary(summary accounting.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Portfolio"))
	b.WriteString("\n")

	if len(summary.Holdings) == 0 {
		b.WriteString(mutedStyle.Render("No instruments match."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(summary.Holdings))
	for _, h := range summary.Holdings {
		price := money(h.Valuation.CurrentPrice)
		if h.Valuation.PriceFallback {
			price += "*"
		}
		rows = append(rows, []string{
			h.Symbol,
			truncate(h.Name, maxNameWidth),
			string(h.Status),
			fmt.Sprintf("%d", h.Position.QuantityHeld),
			money(h.Position.AverageCost),
			price,
			money(h.Valuation.CurrentValue),
			money(h.Valuation.UnrealizedProfit),
			percent(h.Valuation.ReturnPercent),
			percent(h.Progress.ProgressPercent),
			percent(h.WeightPercent),
		})
	}

	widths := make([]int, len(summaryColumns))
	for i, c := range summaryColumns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cell := func(i int, s string) string {
		style := lipgloss.NewStyle().Width(widths[i]).MarginRight(2)
		if i >= firstNumericColumn {
			style = style.Align(lipgloss.Right)
		}
		return style.Render(s)
	}

	header := make([]string, len(summaryColumns))
	for i, c := range summaryColumns {
		header[i] = headerStyle.Render(cell(i, c))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n")

	for r, row := range rows {
		h := summary.Holdings[r]
		cells := make([]string, len(row))
		for i, s := range row {
			cells[i] = cell(i, s)
		}
		cells[7] = signed(h.Valuation.UnrealizedProfit, cells[7])
		cells[8] = signed(h.Valuation.ReturnPercent, cells[8])
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	totals := fmt.Sprintf(
		"Invested   %s\nValue      %s\nUnrealized %s\nRealized   %s\nReturn     %s%%",
		money(summary.TotalInvestedCapital),
		money(summary.TotalCurrentValue),
		signed(summary.TotalUnrealizedProfit, money(summary.TotalUnrealizedProfit)),
		signed(summary.TotalRealizedProfit, money(summary.TotalRealizedProfit)),
		signed(summary.OverallReturnPercent, percent(summary.OverallReturnPercent)),
	)
	b.WriteString(totalsStyle.Render(totals))
	b.WriteString("\n")

	return b.String()
}

func renderSymbols(symbols []string) string {
	if len(symbols) == 0 {
		return mutedStyle.Render("No instruments tracked.") + "\n"
	}
	return strings.Join(symbols, "\n") + "\n"
}

func renderImportResult(result service.ImportResult) string {
	return successStyle.Render(fmt.Sprintf(
		"Restored %d instruments and %d transactions (backup from %s)",
		result.Instruments,
		result.Transactions,
		result.CreatedAt.Format("2006-01-02 15:04"),
	))
}
