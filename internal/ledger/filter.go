package ledger

import (
	"strings"

	"moneybook/internal/daterange"
	"moneybook/internal/models"
)

// Filter narrows a transaction list. Set fields are ANDed together; the zero
// Filter matches everything.
type Filter struct {
	From       string                 `form:"from" json:"from,omitempty" binding:"omitempty,isodate"`
	To         string                 `form:"to" json:"to,omitempty" binding:"omitempty,isodate"`
	AccountID  string                 `form:"account_id" json:"account_id,omitempty"`
	CategoryID string                 `form:"category_id" json:"category_id,omitempty"`
	Type       models.TransactionType `form:"type" json:"type,omitempty" binding:"omitempty,transaction_type"`
	Search     string                 `form:"search" json:"search,omitempty"`
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Range returns the date bounds of the filter.
func (f Filter) Range() daterange.Range {
	return daterange.Range{From: f.From, To: f.To}
}

// SearchTerm returns the normalized search text.
func (f Filter) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// Matches reports whether tx satisfies every set criterion. Type "transfer"
// selects transfer legs; a concrete type selects non-transfer rows of that
// type. Search is a case-insensitive substring of payee and note.
func (f Filter) Matches(tx models.Transaction) bool {
	if !f.Range().Contains(tx.Date) {
		return false
	}
	if f.AccountID != "" && tx.AccountID != f.AccountID {
		return false
	}
	if f.CategoryID != "" && models.Deref(tx.CategoryID) != f.CategoryID {
		return false
	}

	switch f.Type {
	case "":
	case models.TransactionTypeTransfer:
		if !tx.IsTransferLeg() {
			return false
		}
	case models.TransactionTypeExpense, models.TransactionTypeIncome:
		if tx.IsTransferLeg() || tx.Type != f.Type {
			return false
		}
	default:
		return false
	}

	if term := f.SearchTerm(); term != "" {
		haystack := strings.ToLower(tx.Payee + " " + tx.Note)
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// FilterTransactions returns the rows of txs matching f, in input order.
func FilterTransactions(txs []models.Transaction, f Filter) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}
