package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/storelinehq/pricing-backend/internal/pricing"
)

type stubPricingService struct {
	results   map[uuid.UUID]pricing.PriceSelectionResult
	err       error
	lastItems []pricing.RequestItem
	lastCtx   pricing.Context
}

func (s *stubPricingService) CalculateVariantPrices(_ context.Context, items []pricing.RequestItem, pctx pricing.Context) (map[uuid.UUID]pricing.PriceSelectionResult, error) {
	s.lastItems = items
	s.lastCtx = pctx
	return s.results, s.err
}

func (s *stubPricingService) OnVariantsPricesUpdate(_ context.Context, _ []uuid.UUID) error {
	return nil
}

func TestPricingQuote(t *testing.T) {
	logg := testLogger()
	variantID := uuid.New()
	regionID := uuid.New()
	price := 1500

	t.Run("success", func(t *testing.T) {
		stub := &stubPricingService{
			results: map[uuid.UUID]pricing.PriceSelectionResult{
				variantID: {OriginalPrice: &price, CalculatedPrice: &price},
			},
		}
		body := `{"items":[{"variant_id":"` + variantID.String() + `","quantity":4}],` +
			`"region_id":"` + regionID.String() + `","include_discount_prices":true}`
		req := httptest.NewRequest(http.MethodPost, "/store/pricing/quote", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PricingQuote(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(stub.lastItems) != 1 || stub.lastItems[0].Quantity != 4 {
			t.Fatalf("expected request items forwarded, got %+v", stub.lastItems)
		}
		if !stub.lastCtx.IncludeDiscounts || stub.lastCtx.RegionID == nil || *stub.lastCtx.RegionID != regionID {
			t.Fatalf("expected pricing context forwarded, got %+v", stub.lastCtx)
		}

		var envelope struct {
			Data struct {
				Variants []quoteVariantResponse `json:"variants"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(envelope.Data.Variants) != 1 {
			t.Fatalf("expected one variant, got %d", len(envelope.Data.Variants))
		}
		got := envelope.Data.Variants[0]
		if got.VariantID != variantID || got.CalculatedPrice == nil || *got.CalculatedPrice != price {
			t.Fatalf("unexpected quote payload: %s", rec.Body.String())
		}
	})

	t.Run("empty items", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/store/pricing/quote", strings.NewReader(`{"items":[]}`))
		rec := httptest.NewRecorder()
		PricingQuote(&stubPricingService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty items, got %d", rec.Code)
		}
	})

	t.Run("duplicate variants collapse in response", func(t *testing.T) {
		stub := &stubPricingService{
			results: map[uuid.UUID]pricing.PriceSelectionResult{
				variantID: {CalculatedPrice: &price},
			},
		}
		body := `{"items":[{"variant_id":"` + variantID.String() + `","quantity":2},` +
			`{"variant_id":"` + variantID.String() + `","quantity":3}],"currency_code":"usd"}`
		req := httptest.NewRequest(http.MethodPost, "/store/pricing/quote", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PricingQuote(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var envelope struct {
			Data struct {
				Variants []quoteVariantResponse `json:"variants"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(envelope.Data.Variants) != 1 {
			t.Fatalf("expected duplicates collapsed, got %d entries", len(envelope.Data.Variants))
		}
	})
}
