package money

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when an account or transaction has no usable code.
const DefaultCurrency = "RUB"

// Formatter renders minor units as locale currency text.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for the given BCP 47 locale. Unknown
// locales fall back to Russian.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

var defaultFormatter = NewFormatter("ru-RU")

// Format renders units with two fraction digits, locale grouping and the ISO
// currency code, e.g. "1,234.50 USD" for en-US.
func (f *Formatter) Format(units int64, currencyCode string) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.RUB
	}
	value := float64(units) / 100
	return f.printer.Sprintf("%.2f %s", value, unit.String())
}

// FormatFloat renders a major-unit value. NaN and infinities render as zero.
func (f *Formatter) FormatFloat(v float64, currencyCode string) string {
	return f.Format(unitsFromFloat(v), currencyCode)
}

// FormatAmount renders units in the default (Russian) locale.
func FormatAmount(units int64, currencyCode string) string {
	return defaultFormatter.Format(units, currencyCode)
}

// MajorUnits converts minor units to a float for charting. Not for arithmetic.
func MajorUnits(units int64) float64 {
	v := float64(units) / 100
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
