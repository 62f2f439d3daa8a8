// Package core holds the domain model of the P&L dashboard: departments,
// periods, records, yen amounts and summary rows.
//
// This file contains amount parsing for the accounting CSV exports. Amounts
// are whole yen carried as int64; exports may use thousands separators and
// accounting-style parentheses for negative values.
package core

import (
	"errors"
	"strconv"
	"strings"
)

// Yen is a signed amount in whole yen.
type Yen int64

var ErrInvalidAmount = errors.New("invalid amount")

// ParseYen parses an amount field from a P&L export.
//
// Accepted forms:
//
//	ParseYen("1,000,000") -> 1000000
//	ParseYen("(600,000)") -> -600000 (accounting negative)
//	ParseYen("-600000")   -> -600000
//	ParseYen("")          -> 0 (blank cells mean no amount)
func ParseYen(s string) (Yen, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	switch {
	case strings.HasPrefix(s, "-"):
		neg = !neg
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	// Thousands separators are cosmetic; drop them without validating
	// grouping.
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if neg {
		v = -v
	}
	return Yen(v), nil
}

// Format renders the amount with thousands separators and a minus sign for
// negatives; ParseYen(y.Format()) == y always holds.
func (y Yen) Format() string {
	v := int64(y)
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Abs returns the positive magnitude of the amount.
func (y Yen) Abs() Yen {
	if y < 0 {
		return -y
	}
	return y
}
