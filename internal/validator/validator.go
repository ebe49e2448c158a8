// Package validator checks candidate ledger inputs before they are written and
// installs the same rules into Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"moneybook/internal/daterange"
	"moneybook/internal/models"
	"moneybook/internal/money"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	registerRules(v)
	v.RegisterStructValidation(transactionStructLevel, TransactionInput{})
	return v
}

// Register registers the custom field rules with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerRules(v)
	}
}

func registerRules(v *validator.Validate) {
	_ = v.RegisterValidation("trimmin", validateTrimmedMin)
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("positive_amount", validatePositiveAmount)
	_ = v.RegisterValidation("isodate", validateISODate)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("account_type", validateAccountType)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// validateTrimmedMin checks the rune length of a string after trimming.
func validateTrimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len([]rune(strings.TrimSpace(fl.Field().String()))) >= n
}

func validateAmount(fl validator.FieldLevel) bool {
	_, err := money.ParseAmount(fl.Field().String())
	return err == nil
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	units, err := money.ParseAmount(fl.Field().String())
	return err == nil && units > 0
}

func validateISODate(fl validator.FieldLevel) bool {
	return daterange.ValidDate(fl.Field().String())
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).IsValid()
}

func validateCategoryType(fl validator.FieldLevel) bool {
	return models.CategoryType(fl.Field().String()).IsValid()
}

func validateAccountType(fl validator.FieldLevel) bool {
	return models.AccountType(fl.Field().String()).IsValid()
}

// transactionStructLevel enforces the account fields that depend on the kind:
// transfers need two distinct accounts, everything else needs an account and
// a category.
func transactionStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(TransactionInput)

	if in.Type == models.TransactionTypeTransfer {
		if in.FromAccountID == "" {
			sl.ReportError(in.FromAccountID, "from_account_id", "FromAccountID", "required", "")
		}
		switch {
		case in.ToAccountID == "":
			sl.ReportError(in.ToAccountID, "to_account_id", "ToAccountID", "required", "")
		case in.FromAccountID != "" && in.FromAccountID == in.ToAccountID:
			sl.ReportError(in.ToAccountID, "to_account_id", "ToAccountID", "nefield", "from_account_id")
		}
		return
	}

	if in.AccountID == "" {
		sl.ReportError(in.AccountID, "account_id", "AccountID", "required", "")
	}
	if in.CategoryID == "" {
		sl.ReportError(in.CategoryID, "category_id", "CategoryID", "required", "")
	}
}
