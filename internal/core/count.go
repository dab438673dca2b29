// Package core holds the fust ledger domain: counterparties, movements and
// the balance derived from them.
//
// This file parses unit counts as they arrive from forms and CSV files.
package core

import (
	"strconv"
	"strings"
)

// ParseCount converts a textual unit count to an integer.
//
// Blank input means zero, like an empty spreadsheet cell. Negative,
// fractional or non-numeric values are rejected.
//
// Examples:
//
//	ParseCount("")      -> 0, nil
//	ParseCount(" 50 ")  -> 50, nil
//	ParseCount("1.5")   -> 0, ErrInvalidCount
//	ParseCount("-3")    -> 0, ErrNegativeAmount
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidCount
	}
	if n < 0 {
		return 0, ErrNegativeAmount
	}
	return n, nil
}
