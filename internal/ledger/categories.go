package ledger

import (
	"sort"

	"moneybook/internal/daterange"
	"moneybook/internal/models"
)

// DefaultTopLimit is the number of categories shown on the dashboard.
const DefaultTopLimit = 5

// CategoryAmount is the expense total of one category.
type CategoryAmount struct {
	Category models.Category `json:"category"`
	Amount   int64           `json:"amount"`
}

// ExpensesByCategory sums expense rows per category, optionally restricted to
// an inclusive date range. Transfer legs are never spending and are skipped.
// Rows without a known category land in the Uncategorized bucket. The result
// is ordered by amount descending; ties keep the order categories were first
// encountered.
func ExpensesByCategory(txs []models.Transaction, categories []models.Category, rng *daterange.Range) []CategoryAmount {
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	index := make(map[string]int)
	var out []CategoryAmount
	for _, tx := range txs {
		if tx.Type != models.TransactionTypeExpense || tx.IsTransferLeg() {
			continue
		}
		if rng != nil && !rng.Contains(tx.Date) {
			continue
		}

		cat, ok := byID[models.Deref(tx.CategoryID)]
		if !ok {
			cat = models.Uncategorized()
		}
		i, seen := index[cat.ID]
		if !seen {
			i = len(out)
			index[cat.ID] = i
			out = append(out, CategoryAmount{Category: cat})
		}
		out[i].Amount += tx.Amount
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if out == nil {
		out = []CategoryAmount{}
	}
	return out
}

// TopExpenseCategories is ExpensesByCategory truncated to limit entries.
// A non-positive limit means DefaultTopLimit.
func TopExpenseCategories(txs []models.Transaction, categories []models.Category, rng *daterange.Range, limit int) []CategoryAmount {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	all := ExpensesByCategory(txs, categories, rng)
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
