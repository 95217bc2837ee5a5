// Package money formats KSh amounts for user-facing messages.
package money

import (
	"math"
	"strconv"
	"strings"
)

// Format renders an amount with thousands separators, keeping at most two
// decimal places and dropping them entirely for whole amounts.
// 1500 -> "1,500", -1000 -> "-1,000", 0.01 -> "0.01".
func Format(amount float64) string {
	neg := math.Signbit(amount)
	abs := math.Abs(amount)

	var s string
	if abs == math.Trunc(abs) {
		s = strconv.FormatFloat(abs, 'f', 0, 64)
	} else {
		s = strconv.FormatFloat(abs, 'f', 2, 64)
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
