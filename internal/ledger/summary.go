package ledger

import (
	"moneybook/internal/daterange"
	"moneybook/internal/models"
)

// AccountBalance is an account together with its derived balance.
type AccountBalance struct {
	models.Account
	Balance int64 `json:"balance"`
}

// DashboardSummary is everything the dashboard shows.
type DashboardSummary struct {
	Month         daterange.Range  `json:"month"`
	Totals        []CurrencyTotal  `json:"totals"`
	Accounts      []AccountBalance `json:"accounts"`
	TopCategories []CategoryAmount `json:"top_categories"`
}

// Dashboard computes balances for every account, totals per currency and the
// top expense categories of month.
func Dashboard(accounts []models.Account, categories []models.Category, txs []models.Transaction, month daterange.Range) DashboardSummary {
	balances := AccountBalances(accounts, txs)

	rows := make([]AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		rows = append(rows, AccountBalance{Account: acc, Balance: balances[acc.ID]})
	}

	return DashboardSummary{
		Month:         month,
		Totals:        SortedTotals(TotalsByCurrency(accounts, balances)),
		Accounts:      rows,
		TopCategories: TopExpenseCategories(txs, categories, &month, DefaultTopLimit),
	}
}

// ReportRow is one bar of the monthly expense report.
type ReportRow struct {
	CategoryAmount
	// Percent is the row's share of the largest row, 0..100.
	Percent int `json:"percent"`
}

// Report is the expense breakdown of a date range.
type Report struct {
	Range daterange.Range `json:"range"`
	Total int64           `json:"total"`
	Rows  []ReportRow     `json:"rows"`
}

// MonthlyReport rolls up expenses in rng by category and scales each row
// against the largest one.
func MonthlyReport(txs []models.Transaction, categories []models.Category, rng daterange.Range) Report {
	rollup := ExpensesByCategory(txs, categories, &rng)

	var total, largest int64
	for _, row := range rollup {
		total += row.Amount
		if row.Amount > largest {
			largest = row.Amount
		}
	}

	rows := make([]ReportRow, 0, len(rollup))
	for _, row := range rollup {
		pct := 0
		if largest > 0 {
			pct = int((row.Amount*100 + largest/2) / largest)
		}
		rows = append(rows, ReportRow{CategoryAmount: row, Percent: pct})
	}
	return Report{Range: rng, Total: total, Rows: rows}
}
