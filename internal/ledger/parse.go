package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/poshledger/internal/model"
)

const (
	// maxMoneyInput bounds the length of a money string.
	maxMoneyInput = 64
	// maxMoneyDigits bounds the integer digits of a money amount, which keeps
	// every amount in cents within an int64.
	maxMoneyDigits = 15
)

// ParseMoney reads a money amount rounded to cents. Anything that is not a
// number, or is out of range, reads as zero.
func ParseMoney(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if len(s) > maxMoneyInput {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	// Checked before Round, which would expand an exponent like 1e10000000
	// into that many digits.
	intDigits := d.NumDigits() + int(d.Exponent())
	if intDigits > maxMoneyDigits {
		return decimal.Zero
	}
	if intDigits < -2 {
		// Below half a cent whatever the coefficient.
		return decimal.Zero
	}
	return d.Round(2)
}

// parsePrice is ParseMoney for prices, which cannot be negative.
func parsePrice(s string) decimal.Decimal {
	d := ParseMoney(s)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseQuantity reads a non-negative integer quantity.
func ParseQuantity(s string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not a whole number", s)
	}
	if q < 0 {
		return 0, fmt.Errorf("quantity cannot be negative")
	}
	return q, nil
}

// parseOptionalDate reads a YYYY-MM-DD date; an empty string is the zero date.
func parseOptionalDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(s)
}
