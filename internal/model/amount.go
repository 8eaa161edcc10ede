package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxAmountIntDigits  = 12
	maxAmountFracDigits = 4
)

// amountPattern accepts plain decimal notation only: an optional sign,
// digits and an optional fraction. Exponents are rejected.
var amountPattern = regexp.MustCompile(fmt.Sprintf(`^[+-]?(\d{1,%d}(\.\d{0,%d})?|\.\d{1,%d})$`,
	maxAmountIntDigits, maxAmountFracDigits, maxAmountFracDigits))

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a currency amount written in plain decimal notation
// with at most 12 integer and 4 fractional digits. Surrounding spaces are
// ignored.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if !amountPattern.MatchString(text) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return d, nil
}
