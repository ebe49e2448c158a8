package models

import (
	"time"

	"moneybook/internal/money"
	"moneybook/internal/uuid"
)

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash    AccountType = "cash"
	AccountTypeCard    AccountType = "card"
	AccountTypeBank    AccountType = "bank"
	AccountTypeSavings AccountType = "savings"
	AccountTypeOther   AccountType = "other"
)

// AccountTypes lists every supported account type in display order.
var AccountTypes = []AccountType{
	AccountTypeCash,
	AccountTypeCard,
	AccountTypeBank,
	AccountTypeSavings,
	AccountTypeOther,
}

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCash, AccountTypeCard, AccountTypeBank, AccountTypeSavings, AccountTypeOther:
		return true
	}
	return false
}

// Account is a place money is kept. Balances are never stored; they are
// derived from OpeningBalance and the account's transactions.
type Account struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	UserID         string      `gorm:"size:36;not null;index" json:"user_id,omitempty"`
	Name           string      `gorm:"not null" json:"name"`
	Type           AccountType `gorm:"not null;default:'cash'" json:"type"`
	Currency       string      `gorm:"size:3;not null;default:'RUB'" json:"currency"`
	OpeningBalance int64       `gorm:"type:bigint;not null;default:0" json:"opening_balance"`
	Archived       bool        `gorm:"not null;default:false" json:"archived"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewAccount returns a fully populated account, filling unset fields with
// defaults. It never fails.
func NewAccount(a Account) Account {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	if a.Type == "" {
		a.Type = AccountTypeCash
	}
	if a.Currency == "" {
		a.Currency = money.DefaultCurrency
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return a
}
