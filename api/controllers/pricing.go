package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storelinehq/pricing-backend/api/responses"
	"github.com/storelinehq/pricing-backend/api/validators"
	"github.com/storelinehq/pricing-backend/internal/pricing"
	"github.com/storelinehq/pricing-backend/pkg/logger"
	"github.com/storelinehq/pricing-backend/pkg/types"
)

type quoteItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=0"`
}

type quoteRequest struct {
	Items                 []quoteItemRequest `json:"items" validate:"required,min=1,dive"`
	RegionID              *uuid.UUID         `json:"region_id"`
	CurrencyCode          string             `json:"currency_code"`
	CustomerID            *uuid.UUID         `json:"customer_id"`
	TaxRates              []types.TaxRate    `json:"tax_rates"`
	IncludeDiscountPrices bool               `json:"include_discount_prices"`
}

type quoteVariantResponse struct {
	VariantID                  uuid.UUID                `json:"variant_id"`
	Quantity                   int                      `json:"quantity"`
	OriginalPrice              *int                     `json:"original_price"`
	OriginalPriceIncludesTax   *bool                    `json:"original_price_includes_tax"`
	CalculatedPrice            *int                     `json:"calculated_price"`
	CalculatedPriceIncludesTax *bool                    `json:"calculated_price_includes_tax"`
	CalculatedPriceType        string                   `json:"calculated_price_type"`
	Prices                     []pricing.PriceCandidate `json:"prices"`
}

// PricingQuote handles POST /store/pricing/quote: grouped-quantity price
// selection for a batch of variants.
func PricingQuote(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]pricing.RequestItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, pricing.RequestItem{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}

		results, err := svc.CalculateVariantPrices(r.Context(), items, pricing.Context{
			RegionID:         payload.RegionID,
			CurrencyCode:     payload.CurrencyCode,
			CustomerID:       payload.CustomerID,
			TaxRates:         payload.TaxRates,
			IncludeDiscounts: payload.IncludeDiscountPrices,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quotes := make([]quoteVariantResponse, 0, len(items))
		seen := make(map[uuid.UUID]struct{}, len(items))
		for _, item := range items {
			if _, ok := seen[item.VariantID]; ok {
				continue
			}
			seen[item.VariantID] = struct{}{}
			result := results[item.VariantID]
			quotes = append(quotes, quoteVariantResponse{
				VariantID:                  item.VariantID,
				Quantity:                   item.Quantity,
				OriginalPrice:              result.OriginalPrice,
				OriginalPriceIncludesTax:   result.OriginalPriceIncludesTax,
				CalculatedPrice:            result.CalculatedPrice,
				CalculatedPriceIncludesTax: result.CalculatedPriceIncludesTax,
				CalculatedPriceType:        result.CalculatedPriceType.String(),
				Prices:                     result.Candidates,
			})
		}
		responses.WriteSuccess(w, map[string]any{"variants": quotes})
	}
}
