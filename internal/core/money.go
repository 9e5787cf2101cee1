// Package core provides money parsing and handling utilities.
//
// Amounts are whole won stored as int64. Form input never fails: anything
// that is not a non-negative integer is normalized to zero.
package core

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseAmount converts user input to a non-negative amount.
//
// Thousands separators (",", "_", " ") and a trailing "원" are accepted.
// Empty, non-numeric, negative or overflowing input yields 0.
//
// Examples:
//
//	ParseAmount("50000")    -> 50000
//	ParseAmount("50,000원") -> 50000
//	ParseAmount("abc")      -> 0
//	ParseAmount("-3")       -> 0
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "원")
	s = strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// FormatWon renders an amount with thousands separators, e.g. "40,000원".
// Negative balances keep their sign.
func FormatWon(amount int64) string {
	return humanize.Comma(amount) + "원"
}
