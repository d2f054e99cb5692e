package types

import "github.com/shopspring/decimal"

// TaxRate is one tax line applying to a pricing request, expressed in percent.
type TaxRate struct {
	Name string   `json:"name"`
	Rate *float64 `json:"rate"`
}

// AggregateTaxRate sums the rates into a single fractional rate (15% -> 0.15).
// A nil slice means no tax information is available.
func AggregateTaxRate(rates []TaxRate) *decimal.Decimal {
	if rates == nil {
		return nil
	}
	total := decimal.Zero
	for _, r := range rates {
		if r.Rate == nil {
			continue
		}
		total = total.Add(decimal.NewFromFloat(*r.Rate).Div(decimal.NewFromInt(100)))
	}
	return &total
}
