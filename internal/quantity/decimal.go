package quantity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	validNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)$`)
	half        = decimal.RequireFromString("0.5")
	two         = decimal.NewFromInt(2)
)

// number is a parsed numeric token together with the count of fractional
// digits it was written with
type number struct {
	value    decimal.Decimal
	fraction int
}

// parseNumber parses a cleaned numeric token
func parseNumber(token string) (number, error) {
	if !validNumber.MatchString(token) {
		return number{}, fmt.Errorf("not a number: %q", token)
	}
	token = strings.TrimPrefix(token, "+")
	if strings.HasPrefix(token, ".") || strings.HasPrefix(token, "-.") {
		token = strings.Replace(token, ".", "0.", 1)
	}
	token = strings.TrimSuffix(token, ".")

	value, err := decimal.NewFromString(token)
	if err != nil {
		return number{}, err
	}
	return number{value: value, fraction: fractionDigits(token)}, nil
}

// fractionDigits counts the digits written after the decimal point
func fractionDigits(token string) int {
	idx := strings.IndexByte(token, '.')
	if idx < 0 {
		return 0
	}
	return len(token) - idx - 1
}

// shift moves the decimal point magnitude digits to the right (left when
// negative). Zeros are padded on whichever side runs out of digits and every
// written digit survives, so no rounding can happen.
func (n number) shift(magnitude int) number {
	fraction := n.fraction - magnitude
	if fraction < 0 {
		fraction = 0
	}
	return number{value: n.value.Shift(int32(magnitude)), fraction: fraction}
}

// String renders the number with exactly its fractional digit count
func (n number) String() string {
	return n.value.StringFixed(int32(n.fraction))
}

// exactFraction is the number of fractional digits needed to write d exactly
func exactFraction(d decimal.Decimal) int {
	return fractionDigits(d.String())
}

// ShiftDecimal moves the decimal point of a decimal string by magnitude
// digits without any floating-point arithmetic
func ShiftDecimal(s string, magnitude int) (string, error) {
	n, err := parseNumber(s)
	if err != nil {
		return "", err
	}
	return n.shift(magnitude).String(), nil
}

// midpoint returns the centre of [lower, upper] rounded to the fractional
// precision of lower, with one extra digit when the scaled sum is odd so that
// the midpoint of e.g. 10 and 15 keeps its half step (12.5).
func midpoint(lower, upper number) number {
	sum := lower.value.Add(upper.value)
	fraction := lower.fraction
	if !sum.Shift(int32(fraction)).Mod(two).IsZero() {
		fraction++
	}

	exact := sum.Mul(half)
	rounded := exact.Round(int32(fraction))
	// A coarser-grained upper bound can push the rounded value out of range
	for (rounded.LessThan(lower.value) || rounded.GreaterThan(upper.value)) && fraction < exactFraction(exact) {
		fraction++
		rounded = exact.Round(int32(fraction))
	}
	return number{value: rounded, fraction: fraction}
}
