// Package currency covers the small set of currencies contributions are
// accepted in and the fixed-rate normalization used for reporting.
package currency

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code is an ISO 4217 currency code.
type Code string

const (
	USD Code = "USD"
	NGN Code = "NGN"
)

// ErrUnsupported is returned for codes outside the accepted set.
var ErrUnsupported = errors.New("currency not supported")

// minorUnits is the number of decimal places each currency settles in.
var minorUnits = map[Code]int32{
	USD: 2, // cents
	NGN: 2, // kobo
}

// Supported reports whether c is accepted for contributions.
func (c Code) Supported() bool {
	_, ok := minorUnits[c]
	return ok
}

func (c Code) String() string { return string(c) }

// ToMinor converts amount into the provider's minor unit (cents, kobo).
func ToMinor(amount decimal.Decimal, c Code) (int64, error) {
	places, ok := minorUnits[c]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, c)
	}
	scaled := amount.Shift(places)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, places)
	}
	return scaled.IntPart(), nil
}

// FromMinor converts a minor-unit integer back into a decimal amount.
func FromMinor(minor int64, c Code) (decimal.Decimal, error) {
	places, ok := minorUnits[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupported, c)
	}
	return decimal.New(minor, -places), nil
}
