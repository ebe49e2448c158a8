// Package ledger derives balances, category rollups and display groupings
// from snapshots of accounts, categories and transactions. Every function is
// pure: it re-scans the snapshot it is given and keeps no state.
package ledger

import (
	"sort"

	"moneybook/internal/models"
)

// AccountBalances returns the current balance of every account: the opening
// balance plus income minus expense posted to it. Transfer legs are ordinary
// income and expense rows and are counted like any other. A row pointing at
// an unknown account still gets a balance entry seeded at zero.
func AccountBalances(accounts []models.Account, txs []models.Transaction) map[string]int64 {
	balances := make(map[string]int64, len(accounts))
	for _, acc := range accounts {
		balances[acc.ID] = acc.OpeningBalance
	}

	for _, tx := range txs {
		if tx.AccountID == "" {
			continue
		}
		balances[tx.AccountID] += signedAmount(tx)
	}
	return balances
}

func signedAmount(tx models.Transaction) int64 {
	switch tx.Type {
	case models.TransactionTypeIncome:
		return tx.Amount
	case models.TransactionTypeExpense:
		return -tx.Amount
	case models.TransactionTypeTransfer:
		// not a stored kind; a transfer moves money through its legs
		return 0
	}
	return 0
}

// TotalsByCurrency sums account balances per currency code. Accounts missing
// from balances contribute their opening balance.
func TotalsByCurrency(accounts []models.Account, balances map[string]int64) map[string]int64 {
	totals := make(map[string]int64)
	for _, acc := range accounts {
		amount, ok := balances[acc.ID]
		if !ok {
			amount = acc.OpeningBalance
		}
		totals[acc.Currency] += amount
	}
	return totals
}

// CurrencyTotal is one entry of a currency total list.
type CurrencyTotal struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// SortedTotals flattens a totals map into a list ordered by currency code.
func SortedTotals(totals map[string]int64) []CurrencyTotal {
	out := make([]CurrencyTotal, 0, len(totals))
	for code, amount := range totals {
		out = append(out, CurrencyTotal{Currency: code, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
