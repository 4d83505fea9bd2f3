// Package core provides the payment-history domain model: transactions,
// money parsing, monthly summaries, and AI insight records.
//
// Money is fixed-point cents. Amounts round-trip through JSON as plain
// decimal numbers so that exported files match what the dashboard shows.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a signed monetary amount in cents. The currency unit is
// implicit; display-time formatting chooses the symbol.
type Money struct {
	Cents int64
}

// ParseAmountToCents converts a decimal string to signed cents with
// half-up rounding on the third decimal place. Both dot (12.34) and
// comma (12,34) separators are accepted.
//
// Examples:
//
//	ParseAmountToCents("89.99")  -> 8999, nil
//	ParseAmountToCents("-5,47") -> -547, nil
//	ParseAmountToCents("1.005") -> 101, nil (rounds up)
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxWhole = math.MaxInt64 / 100
	if iv > maxWhole {
		return 0, ErrInvalidAmount
	}

	// Take the first two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	if iv == maxWhole && fracCents > math.MaxInt64%100 {
		return 0, ErrInvalidAmount
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// String formats the amount as a decimal string, e.g. "89.99" or "-0.05".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10)
	if rem := cents % 100; rem != 0 {
		s += "." + pad2(rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// Float returns the amount as a float64 for display purposes. Use cents
// for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// MarshalJSON encodes the amount as a JSON decimal number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts any JSON number. Values with more than two
// decimal places are rounded half-up; exponent notation falls back to
// float parsing.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if cents, err := ParseAmountToCents(s); err == nil {
		m.Cents = cents
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = int64(math.Round(f * 100))
	return nil
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
