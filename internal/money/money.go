// Package money converts between user-entered decimal text and integer
// minor units (cents), and renders minor units as currency text.
package money

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when the input is empty or not a number.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	strayChars     = regexp.MustCompile(`[^0-9.\-]`)
	leadingDecimal = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseAmount parses decimal text such as "1 234,56" or "12.5" into minor
// units, rounding half away from zero to the nearest cent.
func ParseAmount(input string) (int64, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return 0, ErrInvalidAmount
	}

	raw = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	raw = strings.Replace(raw, ",", ".", 1)
	raw = strayChars.ReplaceAllString(raw, "")

	literal := leadingDecimal.FindString(raw)
	if literal == "" {
		return 0, ErrInvalidAmount
	}
	literal = strings.TrimSuffix(literal, ".")
	if strings.HasPrefix(literal, "-.") {
		literal = "-0" + literal[1:]
	} else if strings.HasPrefix(literal, ".") {
		literal = "0" + literal
	}

	d, err := decimal.NewFromString(literal)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatPlain renders minor units as a plain decimal string ("-1234.56").
// ParseAmount(FormatPlain(n)) == n for every int64 n.
func FormatPlain(units int64) string {
	return decimal.New(units, -2).StringFixed(2)
}

// unitsFromFloat converts a major-unit float to minor units, treating
// non-finite values as zero.
func unitsFromFloat(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
}
