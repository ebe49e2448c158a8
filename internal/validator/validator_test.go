package validator

import (
	"encoding/json"
	"testing"

	"moneybook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccount(t *testing.T) {
	valid := AccountInput{Name: "Cash", Currency: "RUB", OpeningBalance: "0"}
	assert.Empty(t, ValidateAccount(valid))

	tests := []struct {
		name  string
		input AccountInput
		field string
	}{
		{"short name", AccountInput{Name: " a ", Currency: "RUB", OpeningBalance: "0"}, "name"},
		{"blank name", AccountInput{Name: "   ", Currency: "RUB", OpeningBalance: "0"}, "name"},
		{"two letter currency", AccountInput{Name: "Cash", Currency: "RU", OpeningBalance: "0"}, "currency"},
		{"missing currency", AccountInput{Name: "Cash", OpeningBalance: "0"}, "currency"},
		{"bad opening balance", AccountInput{Name: "Cash", Currency: "RUB", OpeningBalance: "abc"}, "opening_balance"},
		{"empty opening balance", AccountInput{Name: "Cash", Currency: "RUB"}, "opening_balance"},
		{"unknown type", AccountInput{Name: "Cash", Type: "crypto", Currency: "RUB", OpeningBalance: "1"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateAccount(tt.input)
			assert.Contains(t, errs, tt.field)
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidateCategory(t *testing.T) {
	assert.Empty(t, ValidateCategory(CategoryInput{Name: "Food", Type: "expense"}))
	assert.Empty(t, ValidateCategory(CategoryInput{Name: "Salary", Type: "income", Color: "#0f0"}))

	errs := ValidateCategory(CategoryInput{Name: "F", Type: "transfer"})
	assert.Contains(t, errs, "name")
	assert.Equal(t, "Choose expense or income.", errs["type"])

	errs = ValidateCategory(CategoryInput{Name: "Food", Type: "expense", Color: "red"})
	assert.Contains(t, errs, "color")
}

func TestValidateTransaction(t *testing.T) {
	t.Run("valid expense", func(t *testing.T) {
		errs := ValidateTransaction(TransactionInput{
			Date: "2024-01-01", Type: models.TransactionTypeExpense, Amount: "12,50",
			AccountID: "a1", CategoryID: "c1",
		})
		assert.Empty(t, errs)
	})

	t.Run("same account transfer", func(t *testing.T) {
		errs := ValidateTransaction(TransactionInput{
			Date: "2024-01-01", Type: models.TransactionTypeTransfer, Amount: "10",
			FromAccountID: "A", ToAccountID: "A",
		})
		require.Contains(t, errs, "to_account_id")
		assert.Equal(t, "Source and destination accounts must differ.", errs["to_account_id"])
		assert.NotContains(t, errs, "account_id")
		assert.NotContains(t, errs, "category_id")
	})

	t.Run("transfer missing accounts", func(t *testing.T) {
		errs := ValidateTransaction(TransactionInput{
			Date: "2024-01-01", Type: models.TransactionTypeTransfer, Amount: "10",
		})
		assert.Contains(t, errs, "from_account_id")
		assert.Equal(t, "Choose the account to transfer to.", errs["to_account_id"])
	})

	t.Run("non transfer needs account and category", func(t *testing.T) {
		errs := ValidateTransaction(TransactionInput{
			Date: "2024-01-01", Type: models.TransactionTypeIncome, Amount: "10",
		})
		assert.Contains(t, errs, "account_id")
		assert.Contains(t, errs, "category_id")
	})

	t.Run("amount must be positive", func(t *testing.T) {
		for _, amount := range []AmountText{"0", "-5", "", "abc"} {
			errs := ValidateTransaction(TransactionInput{
				Date: "2024-01-01", Type: models.TransactionTypeExpense, Amount: amount,
				AccountID: "a1", CategoryID: "c1",
			})
			assert.Contains(t, errs, "amount", "amount %q", amount)
		}
	})

	t.Run("missing date and type", func(t *testing.T) {
		errs := ValidateTransaction(TransactionInput{Amount: "1", AccountID: "a1", CategoryID: "c1"})
		assert.Equal(t, "Choose a date.", errs["date"])
		assert.Equal(t, "Choose a type.", errs["type"])
	})

	t.Run("unknown type", func(t *testing.T) {
		errs := ValidateTransaction(TransactionInput{
			Date: "2024-01-01", Type: "investment", Amount: "1", AccountID: "a1", CategoryID: "c1",
		})
		assert.Equal(t, "Choose expense, income or transfer.", errs["type"])
	})
}

func TestValidatorsDoNotMutate(t *testing.T) {
	in := TransactionInput{Date: "2024-01-01", Type: "expense", Amount: " 1 000,5 ", Payee: "  Shop "}
	before := in
	ValidateTransaction(in)
	assert.Equal(t, before, in)
}

func TestAmountTextUnmarshal(t *testing.T) {
	var in TransactionInput
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 12.5}`), &in))
	assert.Equal(t, AmountText("12.5"), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "1 200,00"}`), &in))
	units, err := in.Amount.Units()
	require.NoError(t, err)
	assert.Equal(t, int64(120000), units)

	assert.Error(t, json.Unmarshal([]byte(`{"amount": true}`), &in))
}

func TestToModels(t *testing.T) {
	acc := AccountInput{Name: " Card ", Currency: "usd", OpeningBalance: "100.10"}.ToAccount()
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "Card", acc.Name)
	assert.Equal(t, "USD", acc.Currency)
	assert.Equal(t, models.AccountTypeCash, acc.Type)
	assert.Equal(t, int64(10010), acc.OpeningBalance)

	cat := CategoryInput{Name: "Food", Type: "expense"}.ToCategory()
	assert.Equal(t, models.DefaultCategoryColor, cat.Color)
	assert.Nil(t, cat.ParentID)

	tx := TransactionInput{
		Date: "2024-03-01", Type: "income", Amount: "5", AccountID: "a1", CategoryID: "c1",
		Tags: []string{" work ", ""},
	}.ToTransaction()
	assert.Equal(t, int64(500), tx.Amount)
	assert.Equal(t, "RUB", tx.Currency)
	assert.Equal(t, []string{"work"}, tx.Tags)
	assert.Nil(t, tx.TransferID)
}
