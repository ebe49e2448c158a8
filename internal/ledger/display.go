package ledger

import (
	"sort"

	"moneybook/internal/models"
)

// UnknownName is shown wherever an account cannot be resolved.
const UnknownName = "Unknown"

// SortForDisplay returns a copy of txs ordered most recent first: by date
// descending, then by creation time descending. The input is left untouched.
func SortForDisplay(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TransferItem merges the legs of one transfer into a single record.
type TransferItem struct {
	TransferID    string              `json:"transfer_id"`
	Date          string              `json:"date"`
	Amount        int64               `json:"amount"`
	Currency      string              `json:"currency"`
	Note          string              `json:"note"`
	FromAccountID string              `json:"from_account_id"`
	ToAccountID   string              `json:"to_account_id"`
	FromName      string              `json:"from_name"`
	ToName        string              `json:"to_name"`
	Title         string              `json:"title"`
	Out           *models.Transaction `json:"out"`
	In            *models.Transaction `json:"in"`
	Legs          int                 `json:"legs"`
	// Suspect marks a group that is not exactly one expense leg and one
	// income leg. Its fields are a best-effort reconstruction.
	Suspect bool `json:"suspect"`
}

// GroupTransferLegs splits txs into rows that are not part of a transfer and
// merged transfer items, one per distinct transfer id. Both outputs keep the
// input order; a transfer takes the position of its first leg.
//
// The expense leg names the source account and the income leg the
// destination. When a leg is missing, the survivor's to_account_id stands in
// for the absent side. Partial or orphaned groups never fail; they come back
// with Suspect set.
func GroupTransferLegs(txs []models.Transaction, accounts []models.Account) ([]models.Transaction, []TransferItem) {
	names := accountNames(accounts)

	singles := []models.Transaction{}
	groups := make(map[string][]models.Transaction)
	var order []string
	for _, tx := range txs {
		if !tx.IsTransferLeg() {
			singles = append(singles, tx)
			continue
		}
		id := *tx.TransferID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], tx)
	}

	transfers := make([]TransferItem, 0, len(order))
	for _, id := range order {
		transfers = append(transfers, mergeLegs(id, groups[id], names))
	}
	return singles, transfers
}

func mergeLegs(transferID string, legs []models.Transaction, names map[string]string) TransferItem {
	var out, in *models.Transaction
	expenses, incomes := 0, 0
	for i := range legs {
		switch legs[i].Type {
		case models.TransactionTypeExpense:
			expenses++
			if out == nil {
				out = &legs[i]
			}
		case models.TransactionTypeIncome:
			incomes++
			if in == nil {
				in = &legs[i]
			}
		case models.TransactionTypeTransfer:
		}
	}

	item := TransferItem{
		TransferID: transferID,
		Out:        out,
		In:         in,
		Legs:       len(legs),
		Suspect:    len(legs) != 2 || expenses != 1 || incomes != 1,
		Currency:   legs[0].Currency,
		Date:       legs[0].Date,
		Amount:     legs[0].Amount,
		Note:       legs[0].Note,
	}

	primary := out
	if primary == nil {
		primary = in
	}
	if primary != nil {
		item.Date = primary.Date
		item.Amount = primary.Amount
		item.Currency = primary.Currency
		item.Note = primary.Note
	}

	switch {
	case out != nil:
		item.FromAccountID = out.AccountID
	case in != nil:
		item.FromAccountID = models.Deref(in.ToAccountID)
	}
	switch {
	case in != nil:
		item.ToAccountID = in.AccountID
	case out != nil:
		item.ToAccountID = models.Deref(out.ToAccountID)
	}

	item.FromName = nameOrUnknown(names, item.FromAccountID)
	item.ToName = nameOrUnknown(names, item.ToAccountID)
	item.Title = item.FromName + " → " + item.ToName
	return item
}

// ItemKind distinguishes plain rows from merged transfers in a display list.
type ItemKind string

const (
	ItemKindTransaction ItemKind = "transaction"
	ItemKindTransfer    ItemKind = "transfer"
)

// Item is one line of the transaction list.
type Item struct {
	Kind        ItemKind               `json:"kind"`
	ID          string                 `json:"id"`
	Type        models.TransactionType `json:"type"`
	Date        string                 `json:"date"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	Title       string                 `json:"title"`
	Subtitle    string                 `json:"subtitle"`
	Transaction *models.Transaction    `json:"transaction,omitempty"`
	Transfer    *TransferItem          `json:"transfer,omitempty"`
}

// DisplayItems builds the transaction list: plain rows titled by payee (or
// their kind) and transfers merged into one line, most recent date first.
func DisplayItems(txs []models.Transaction, accounts []models.Account, categories []models.Category) []Item {
	names := accountNames(accounts)
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}

	singles, transfers := GroupTransferLegs(SortForDisplay(txs), accounts)
	items := make([]Item, 0, len(singles)+len(transfers))

	for i := range singles {
		tx := singles[i]
		title := tx.Payee
		if title == "" {
			title = tx.Type.Label()
		}
		category, ok := catNames[models.Deref(tx.CategoryID)]
		if !ok {
			category = models.Uncategorized().Name
		}
		items = append(items, Item{
			Kind:        ItemKindTransaction,
			ID:          tx.ID,
			Type:        tx.Type,
			Date:        tx.Date,
			Amount:      tx.Amount,
			Currency:    tx.Currency,
			Title:       title,
			Subtitle:    tx.Date + " · " + nameOrUnknown(names, tx.AccountID) + " · " + category,
			Transaction: &tx,
		})
	}

	for i := range transfers {
		tr := transfers[i]
		note := tr.Note
		if note == "" {
			note = "Transfer between accounts"
		}
		items = append(items, Item{
			Kind:     ItemKindTransfer,
			ID:       tr.TransferID,
			Type:     models.TransactionTypeTransfer,
			Date:     tr.Date,
			Amount:   tr.Amount,
			Currency: tr.Currency,
			Title:    tr.Title,
			Subtitle: tr.Date + " · " + note,
			Transfer: &tr,
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })
	return items
}

func accountNames(accounts []models.Account) map[string]string {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names
}

func nameOrUnknown(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownName
}
