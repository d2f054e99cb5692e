package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/storelinehq/pricing-backend/pkg/enums"
)

// Selector picks the best price candidate for one variant and quantity.
// With TaxAware set, candidates with differing tax-inclusive flags are
// compared on their tax-equalized amounts; without it the comparison is the
// legacy plain numeric one.
type Selector struct {
	TaxAware bool
}

// Select evaluates every candidate and returns the assembled result. No
// eligible candidate leaves CalculatedPrice nil, which is a valid outcome.
func (s Selector) Select(candidates []PriceCandidate, quantity int, pctx Context) PriceSelectionResult {
	result := PriceSelectionResult{
		CalculatedPriceType: enums.PriceListTypeDefault,
		Candidates:          candidates,
	}

	taxRate := pctx.AggregateTaxRate()
	var best *PriceCandidate
	originalByRegion := false

	for i := range candidates {
		candidate := candidates[i]

		regionMatch := pctx.RegionID != nil && candidate.RegionID != nil && *candidate.RegionID == *pctx.RegionID
		currencyMatch := candidate.CurrencyCode == pctx.CurrencyCode

		// Undiscounted baseline: no price list, no quantity bounds. A region
		// match takes the slot and keeps it against later currency matches.
		if candidate.PriceListID == nil && candidate.MinQuantity == nil && candidate.MaxQuantity == nil {
			if regionMatch && !originalByRegion {
				setPrice(&result.OriginalPrice, &result.OriginalPriceIncludesTax, candidate)
				originalByRegion = true
			} else if currencyMatch && result.OriginalPrice == nil {
				setPrice(&result.OriginalPrice, &result.OriginalPriceIncludesTax, candidate)
			}
		}

		if !regionMatch && !currencyMatch {
			continue
		}
		if !quantityEligible(candidate, quantity) {
			continue
		}

		if best == nil || s.beats(candidate, *best, taxRate) {
			best = &candidates[i]
		}
	}

	if best != nil {
		setPrice(&result.CalculatedPrice, &result.CalculatedPriceIncludesTax, *best)
		if best.PriceListID != nil && best.PriceListType.IsValid() {
			result.CalculatedPriceType = best.PriceListType
		}
	}
	return result
}

// beats reports whether the challenger should replace the current best.
func (s Selector) beats(challenger, best PriceCandidate, taxRate *decimal.Decimal) bool {
	challengerInc := challenger.EffectiveIncludesTax()
	bestInc := best.EffectiveIncludesTax()

	if !s.TaxAware || challengerInc == bestInc {
		return challenger.Amount < best.Amount
	}

	// Flags differ: equalize via the aggregate rate. Without a rate the
	// amounts are not comparable and the challenger is rejected.
	if taxRate == nil {
		return false
	}

	factor := decimal.NewFromInt(1).Add(*taxRate)
	challengerAmt := decimal.NewFromInt(int64(challenger.Amount))
	bestAmt := decimal.NewFromInt(int64(best.Amount))

	if challengerInc {
		// Inclusive challenger against the grossed-up exclusive best.
		return challengerAmt.LessThan(factor.Mul(bestAmt))
	}
	return factor.Mul(challengerAmt).LessThan(bestAmt)
}

func quantityEligible(candidate PriceCandidate, quantity int) bool {
	if candidate.MinQuantity != nil && quantity < *candidate.MinQuantity {
		return false
	}
	if candidate.MaxQuantity != nil && quantity > *candidate.MaxQuantity {
		return false
	}
	return true
}

func setPrice(amount **int, includesTax **bool, candidate PriceCandidate) {
	value := candidate.Amount
	inclusive := candidate.EffectiveIncludesTax()
	*amount = &value
	*includesTax = &inclusive
}
