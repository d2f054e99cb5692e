package pricing

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type priceCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePattern(ctx context.Context, pattern string) error
	PriceSelectionKey(variantID string, parts ...string) string
	VariantKeyPattern(variantID string) string
}

// cacheKey derives the deterministic key for one variant's selection in the
// given context and quantity. Every contextual input that changes the result
// is a key segment.
func cacheKey(cache priceCache, variantID uuid.UUID, quantity int, pctx Context) string {
	region := ""
	if pctx.RegionID != nil {
		region = pctx.RegionID.String()
	}
	customer := ""
	if pctx.CustomerID != nil {
		customer = pctx.CustomerID.String()
	}
	taxRate := ""
	if rate := pctx.AggregateTaxRate(); rate != nil {
		taxRate = rate.String()
	}
	return cache.PriceSelectionKey(
		variantID.String(),
		region,
		pctx.CurrencyCode,
		customer,
		strconv.Itoa(quantity),
		strconv.FormatBool(pctx.IncludeDiscounts),
		taxRate,
	)
}

func encodeResult(result PriceSelectionResult) (string, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeResult(raw string) (PriceSelectionResult, error) {
	var result PriceSelectionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return PriceSelectionResult{}, err
	}
	return result, nil
}
