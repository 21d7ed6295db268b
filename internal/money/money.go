// Package money holds minor-unit amount helpers. All amounts in the
// system are int64 cents.
package money

import "fmt"

// Percent applies an integer percentage to an amount with half-up
// rounding to the smallest currency unit.
func Percent(amountCents int64, percent int) int64 {
	raw := amountCents * int64(percent)
	if raw >= 0 {
		return (raw + 50) / 100
	}
	return -((-raw + 50) / 100)
}

// Format renders cents as a decimal string, e.g. 3450 -> "34.50".
func Format(amountCents int64) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s%d.%02d", sign, amountCents/100, amountCents%100)
}
