// Money parsing and formatting.
//
// All monetary values are carried as int64 paise so that sums stay exact;
// rupee floats exist only at the JSON boundary.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Money is a fixed-point rupee amount in paise.
type Money struct {
	Paise int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseDecimalToPaise converts a decimal string to paise with half-up
// rounding on the third decimal digit. Zero is a valid amount (an unset meal
// price resolves to zero); negative values and signs are rejected.
//
//	ParseDecimalToPaise("80")     -> 8000
//	ParseDecimalToPaise("12.34")  -> 1234
//	ParseDecimalToPaise("12.346") -> 1235
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
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
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracPaise int64
	if len(fracPart) > 0 {
		fracPaise = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracPaise += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPaise++
			}
		}
	}
	return iv*100 + fracPaise, nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Paise: m.Paise + o.Paise}
}

// Mul scales the amount by an integer count.
func (m Money) Mul(n int) Money {
	return Money{Paise: m.Paise * int64(n)}
}

// Rupees returns the rupee value as float64 for display only. Use paise for
// all arithmetic.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

// Decimal renders the amount as a plain decimal string, e.g. "230.00".
func (m Money) Decimal() string {
	p := m.Paise
	neg := p < 0
	if neg {
		p = -p
	}
	s := strconv.FormatInt(p/100, 10) + "." + twoDigits(p%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// MarshalJSON emits the amount as a JSON number with two decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON accepts a JSON number or decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	paise, err := ParseDecimalToPaise(s)
	if err != nil {
		return err
	}
	m.Paise = paise
	return nil
}
