package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/pricing-backend/pkg/enums"
	"github.com/storelinehq/pricing-backend/pkg/types"
)

// Context carries the request-scoped inputs of one price computation.
type Context struct {
	RegionID         *uuid.UUID
	CurrencyCode     string
	CustomerID       *uuid.UUID
	TaxRates         []types.TaxRate
	IncludeDiscounts bool
	IgnoreCache      bool
}

// AggregateTaxRate returns the summed fractional tax rate for the context,
// or nil when no rates are known.
func (c Context) AggregateTaxRate() *decimal.Decimal {
	return types.AggregateTaxRate(c.TaxRates)
}

// RequestItem is one (variant, quantity) pair being priced.
type RequestItem struct {
	VariantID uuid.UUID
	Quantity  int
}

// PriceCandidate is an immutable snapshot of one raw price record, with the
// tax flags of its surrounding currency, region, and price list resolved in.
type PriceCandidate struct {
	Amount               int                 `json:"amount"`
	CurrencyCode         string              `json:"currency_code"`
	RegionID             *uuid.UUID          `json:"region_id,omitempty"`
	PriceListID          *uuid.UUID          `json:"price_list_id,omitempty"`
	MinQuantity          *int                `json:"min_quantity,omitempty"`
	MaxQuantity          *int                `json:"max_quantity,omitempty"`
	IncludesTax          bool                `json:"includes_tax"`
	PriceListIncludesTax *bool               `json:"price_list_includes_tax,omitempty"`
	RegionIncludesTax    *bool               `json:"region_includes_tax,omitempty"`
	PriceListType        enums.PriceListType `json:"price_list_type,omitempty"`
}

// EffectiveIncludesTax resolves the candidate's tax-inclusive flag:
// price list override, then region override, then the currency default.
func (p PriceCandidate) EffectiveIncludesTax() bool {
	if p.PriceListIncludesTax != nil {
		return *p.PriceListIncludesTax
	}
	if p.RegionIncludesTax != nil {
		return *p.RegionIncludesTax
	}
	return p.IncludesTax
}

// PriceSelectionResult is the per-variant outcome of one computation.
// A nil CalculatedPrice means no candidate matched, which is a valid result.
type PriceSelectionResult struct {
	OriginalPrice              *int                `json:"original_price"`
	OriginalPriceIncludesTax   *bool               `json:"original_price_includes_tax"`
	CalculatedPrice            *int                `json:"calculated_price"`
	CalculatedPriceIncludesTax *bool               `json:"calculated_price_includes_tax"`
	CalculatedPriceType        enums.PriceListType `json:"calculated_price_type"`
	Candidates                 []PriceCandidate    `json:"prices"`
}
