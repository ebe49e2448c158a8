package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"moneybook/internal/models"
	"moneybook/internal/money"

	"github.com/go-playground/validator/v10"
)

// AmountText is a user-entered amount. It decodes from a JSON string or a
// JSON number so forms and scripts can post either.
type AmountText string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AmountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a string or a number")
	}
	*a = AmountText(n.String())
	return nil
}

// Units parses the amount into minor units.
func (a AmountText) Units() (int64, error) {
	return money.ParseAmount(string(a))
}

// FieldErrors maps a field name to a human readable message. An empty map
// means the input is valid.
type FieldErrors map[string]string

// AccountInput is a candidate account as entered on the account form.
type AccountInput struct {
	ID             string     `json:"id"`
	Name           string     `json:"name" validate:"trimmin=2"`
	Type           string     `json:"type" validate:"omitempty,account_type"`
	Currency       string     `json:"currency" validate:"len=3"`
	OpeningBalance AmountText `json:"opening_balance" validate:"amount"`
	Archived       bool       `json:"archived"`
}

// CategoryInput is a candidate category.
type CategoryInput struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"trimmin=2"`
	Type     string `json:"type" validate:"category_type"`
	ParentID string `json:"parent_id"`
	Color    string `json:"color" validate:"omitempty,hex_color"`
}

// TransactionInput is a candidate transaction or transfer. FromAccountID,
// OutID and InID are only meaningful for transfers.
type TransactionInput struct {
	ID            string                 `json:"id"`
	Date          string                 `json:"date" validate:"required,isodate"`
	Type          models.TransactionType `json:"type" validate:"required,transaction_type"`
	Amount        AmountText             `json:"amount" validate:"positive_amount"`
	Currency      string                 `json:"currency" validate:"omitempty,len=3"`
	AccountID     string                 `json:"account_id"`
	CategoryID    string                 `json:"category_id"`
	FromAccountID string                 `json:"from_account_id"`
	ToAccountID   string                 `json:"to_account_id"`
	TransferID    string                 `json:"transfer_id"`
	OutID         string                 `json:"out_id"`
	InID          string                 `json:"in_id"`
	Payee         string                 `json:"payee"`
	Note          string                 `json:"note"`
	Tags          []string               `json:"tags"`
}

var messages = map[string]string{
	"name":                  "Enter a name of at least 2 characters.",
	"currency":              "Currency code must be 3 letters.",
	"opening_balance":       "Enter a valid opening balance.",
	"type":                  "Choose a type.",
	"color":                 "Color must be a hex value like #00e5ff.",
	"date":                  "Choose a date.",
	"date.isodate":          "Date must be in YYYY-MM-DD format.",
	"amount":                "Amount must be greater than zero.",
	"account_id":            "Choose an account.",
	"category_id":           "Choose a category.",
	"from_account_id":       "Choose the account to transfer from.",
	"to_account_id":         "Choose the account to transfer to.",
	"to_account_id.nefield": "Source and destination accounts must differ.",
	"type.account_type":     "Unknown account type.",
	"type.category_type":    "Choose expense or income.",
	"type.transaction_type": "Choose expense, income or transfer.",
}

// ValidateAccount checks an account candidate.
func ValidateAccount(in AccountInput) FieldErrors {
	return check(in)
}

// ValidateCategory checks a category candidate.
func ValidateCategory(in CategoryInput) FieldErrors {
	return check(in)
}

// ValidateTransaction checks a transaction or transfer candidate.
func ValidateTransaction(in TransactionInput) FieldErrors {
	return check(in)
}

func check(in any) FieldErrors {
	fields := FieldErrors{}
	err := validate.Struct(in)
	if err == nil {
		return fields
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = message(name, fe.Tag())
	}
	return fields
}

func message(field, tag string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := messages[field]; ok {
		return msg
	}
	return "Invalid value."
}

// ToAccount converts a validated input into a fully populated account.
func (in AccountInput) ToAccount() models.Account {
	opening, _ := in.OpeningBalance.Units()
	return models.NewAccount(models.Account{
		ID:             in.ID,
		Name:           strings.TrimSpace(in.Name),
		Type:           models.AccountType(in.Type),
		Currency:       strings.ToUpper(in.Currency),
		OpeningBalance: opening,
		Archived:       in.Archived,
	})
}

// ToCategory converts a validated input into a fully populated category.
func (in CategoryInput) ToCategory() models.Category {
	return models.NewCategory(models.Category{
		ID:       in.ID,
		Name:     strings.TrimSpace(in.Name),
		Type:     models.CategoryType(in.Type),
		ParentID: models.StringPtr(in.ParentID),
		Color:    in.Color,
	})
}

// ToTransaction converts a validated non-transfer input into a fully
// populated row.
func (in TransactionInput) ToTransaction() models.Transaction {
	amount, _ := in.Amount.Units()
	return models.NewTransaction(models.Transaction{
		ID:         in.ID,
		Date:       in.Date,
		Type:       in.Type,
		AccountID:  in.AccountID,
		CategoryID: models.StringPtr(in.CategoryID),
		Amount:     amount,
		Currency:   strings.ToUpper(in.Currency),
		Payee:      strings.TrimSpace(in.Payee),
		Note:       strings.TrimSpace(in.Note),
		Tags:       cleanTags(in.Tags),
	})
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
