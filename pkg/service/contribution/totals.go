package contribution

import (
	"context"

	"github.com/amirasaad/charity/pkg/currency"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/shopspring/decimal"
)

// CurrencyTotal is the raw sum of one currency.
type CurrencyTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Totals summarizes records normalized to USD.
type Totals struct {
	TotalUSD   decimal.Decimal                  `json:"totalUsd"`
	Count      int                              `json:"count"`
	ByCurrency map[currency.Code]*CurrencyTotal `json:"byCurrency"`
	NGNPerUSD  decimal.Decimal                  `json:"ngnPerUsd"`
}

// Totals sums the records matching filter. Without a status filter only
// completed records count. Each currency is summed before conversion and
// TotalUSD is left unrounded so totals of disjoint filters add up; rounding
// to cents is for display.
func (s *Service) Totals(ctx context.Context, filter repository.Filter) (*Totals, error) {
	f := make(repository.Filter, len(filter)+1)
	for k, v := range filter {
		if v != "" {
			f[k] = v
		}
	}
	if _, ok := f["status"]; !ok {
		f["status"] = string(contribution.StatusCompleted)
	}
	records, err := s.store.Contributions.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := &Totals{
		TotalUSD:   decimal.Zero,
		ByCurrency: make(map[currency.Code]*CurrencyTotal, 2),
		NGNPerUSD:  s.converter.Rate(),
	}
	for _, r := range records {
		t, ok := out.ByCurrency[r.Currency]
		if !ok {
			t = &CurrencyTotal{Amount: decimal.Zero}
			out.ByCurrency[r.Currency] = t
		}
		t.Amount = t.Amount.Add(r.Amount)
		t.Count++
		out.Count++
	}
	for code, t := range out.ByCurrency {
		usd, err := s.converter.ToUSD(t.Amount, code)
		if err != nil {
			return nil, err
		}
		out.TotalUSD = out.TotalUSD.Add(usd)
	}
	return out, nil
}
