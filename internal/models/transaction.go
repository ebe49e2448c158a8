package models

import (
	"time"

	"moneybook/internal/daterange"
	"moneybook/internal/money"
	"moneybook/internal/uuid"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
	// TransactionTypeTransfer is a form and filter kind. Stored rows are
	// always expense or income; a transfer is persisted as a pair of legs.
	TransactionTypeTransfer TransactionType = "transfer"
)

// IsValid reports whether t is a known transaction kind.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeExpense, TransactionTypeIncome, TransactionTypeTransfer:
		return true
	}
	return false
}

// IsStored reports whether t may appear on a persisted row.
func (t TransactionType) IsStored() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// Label returns the human readable name of the kind.
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeExpense:
		return "Expense"
	case TransactionTypeIncome:
		return "Income"
	case TransactionTypeTransfer:
		return "Transfer"
	}
	return string(t)
}

// Transaction is a single ledger row. A transfer is two rows sharing
// TransferID: an expense leg on the source account and an income leg on the
// destination, each carrying the counterpart in ToAccountID.
type Transaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      string          `gorm:"size:36;not null;index" json:"user_id,omitempty"`
	Date        string          `gorm:"size:10;not null;index" json:"date"`
	Type        TransactionType `gorm:"size:16;not null" json:"type"`
	AccountID   string          `gorm:"size:36;not null;index" json:"account_id"`
	ToAccountID *string         `gorm:"size:36" json:"to_account_id"`
	TransferID  *string         `gorm:"size:36;index" json:"transfer_id"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	CategoryID  *string         `gorm:"size:36;index" json:"category_id"`
	Payee       string          `json:"payee"`
	Note        string          `json:"note"`
	Tags        []string        `gorm:"serializer:json" json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsTransferLeg reports whether the row belongs to a transfer.
func (t Transaction) IsTransferLeg() bool {
	return t.TransferID != nil && *t.TransferID != ""
}

// NewTransaction returns a fully populated transaction, filling unset fields
// with defaults. It never fails.
func NewTransaction(t Transaction) Transaction {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.New()
	}
	if t.Date == "" {
		t.Date = daterange.Today()
	}
	if t.Type == "" {
		t.Type = TransactionTypeExpense
	}
	if t.Currency == "" {
		t.Currency = money.DefaultCurrency
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.ToAccountID = nonEmpty(t.ToAccountID)
	t.TransferID = nonEmpty(t.TransferID)
	t.CategoryID = nonEmpty(t.CategoryID)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	return t
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}
