package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Converter normalizes amounts to USD with a single fixed NGN rate.
type Converter struct {
	ngnPerUSD decimal.Decimal
}

// NewConverter builds a Converter. ngnPerUSD must be positive.
func NewConverter(ngnPerUSD decimal.Decimal) (*Converter, error) {
	if !ngnPerUSD.IsPositive() {
		return nil, fmt.Errorf("ngn per usd rate must be positive, got %s", ngnPerUSD)
	}
	return &Converter{ngnPerUSD: ngnPerUSD}, nil
}

// Rate returns the configured NGN per USD rate.
func (c *Converter) Rate() decimal.Decimal { return c.ngnPerUSD }

// ToUSD converts amount in code to USD without rounding.
func (c *Converter) ToUSD(amount decimal.Decimal, code Code) (decimal.Decimal, error) {
	switch code {
	case USD:
		return amount, nil
	case NGN:
		return amount.Div(c.ngnPerUSD), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupported, code)
	}
}
