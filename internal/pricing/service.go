package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/storelinehq/pricing-backend/internal/catalog"
	"github.com/storelinehq/pricing-backend/pkg/config"
	"github.com/storelinehq/pricing-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/pricing-backend/pkg/errors"
	"github.com/storelinehq/pricing-backend/pkg/logger"
	"github.com/storelinehq/pricing-backend/pkg/metrics"
	"github.com/storelinehq/pricing-backend/pkg/redis"
)

const calculateOp = "calculate_variant_prices"

// Service exposes the grouped-quantity price computation.
type Service interface {
	CalculateVariantPrices(ctx context.Context, items []RequestItem, pctx Context) (map[uuid.UUID]PriceSelectionResult, error)
	OnVariantsPricesUpdate(ctx context.Context, variantIDs []uuid.UUID) error
}

type candidateSource interface {
	FindPricesForVariantsInRegion(ctx context.Context, q catalog.PriceQuery) ([]models.MoneyAmount, error)
	GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error)
	GetCurrency(ctx context.Context, code string) (*models.Currency, error)
}

// service implements the pricing service.
type service struct {
	source      candidateSource
	resolver    *GroupResolver
	selector    Selector
	cache       priceCache
	metrics     *metrics.PricingMetrics
	logg        *logger.Logger
	cacheTTL    time.Duration
	concurrency int
}

// NewService constructs a pricing service instance. The cache is optional;
// without it every computation runs cold.
func NewService(source candidateSource, resolver *GroupResolver, cache priceCache, m *metrics.PricingMetrics, logg *logger.Logger, cfg config.PricingConfig) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("candidate source required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("group resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	concurrency := cfg.SelectorConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &service{
		source:      source,
		resolver:    resolver,
		selector:    Selector{TaxAware: cfg.TaxAware},
		cache:       cache,
		metrics:     m,
		logg:        logg,
		cacheTTL:    cfg.CacheTTL,
		concurrency: concurrency,
	}, nil
}

// CalculateVariantPrices prices a batch of (variant, quantity) pairs in one
// context. Variants sharing a pricing group are tiered on the group's summed
// quantity; everything else falls back to the plain per-variant selection.
func (s *service) CalculateVariantPrices(ctx context.Context, items []RequestItem, pctx Context) (map[uuid.UUID]PriceSelectionResult, error) {
	start := time.Now()
	results, err := s.calculate(ctx, items, pctx)
	s.metrics.ObserveDuration(calculateOp, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(calculateOp)
		return nil, err
	}
	s.metrics.IncSuccess(calculateOp)
	return results, nil
}

func (s *service) calculate(ctx context.Context, items []RequestItem, pctx Context) (map[uuid.UUID]PriceSelectionResult, error) {
	items, err := dedupeItems(items)
	if err != nil {
		return nil, err
	}
	results := make(map[uuid.UUID]PriceSelectionResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		variantIDs = append(variantIDs, item.VariantID)
	}

	variants, variantGroups, err := s.resolver.ResolveWithVariants(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve pricing groups")
	}
	for _, id := range variantIDs {
		if _, ok := variants[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("variant %s was not found", id))
		}
	}

	groupQuantities := GroupQuantities(items, variantGroups)

	// Grouped results depend on the rest of the batch, so only group-free
	// variants are ever read from or written to the cache.
	var mu sync.Mutex
	toCompute := make([]RequestItem, 0, len(items))
	if s.cache != nil && !pctx.IgnoreCache {
		cacheable := make([]RequestItem, 0, len(items))
		for _, item := range items {
			if len(variantGroups[item.VariantID]) > 0 {
				toCompute = append(toCompute, item)
				continue
			}
			cacheable = append(cacheable, item)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, item := range cacheable {
			g.Go(func() error {
				key := cacheKey(s.cache, item.VariantID, item.Quantity, pctx)
				raw, err := s.cache.Get(gctx, key)
				if err != nil {
					if !redis.IsMiss(err) {
						s.logg.Warn(gctx, "price cache read: "+err.Error())
					}
					s.metrics.IncCacheMiss(calculateOp)
					mu.Lock()
					toCompute = append(toCompute, item)
					mu.Unlock()
					return nil
				}
				result, err := decodeResult(raw)
				if err != nil {
					s.logg.Warn(gctx, "price cache decode: "+err.Error())
					s.metrics.IncCacheMiss(calculateOp)
					mu.Lock()
					toCompute = append(toCompute, item)
					mu.Unlock()
					return nil
				}
				s.metrics.IncCacheHit(calculateOp)
				mu.Lock()
				results[item.VariantID] = result
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		toCompute = items
	}

	if len(toCompute) == 0 {
		return results, nil
	}

	candidates, err := s.loadCandidates(ctx, toCompute, pctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, item := range toCompute {
		g.Go(func() error {
			quantity := EffectiveQuantity(item.VariantID, item.Quantity, variantGroups, groupQuantities)
			result := s.selector.Select(candidates[item.VariantID], quantity, pctx)

			if s.cache != nil && !pctx.IgnoreCache && len(variantGroups[item.VariantID]) == 0 {
				s.writeCache(gctx, item, pctx, result)
			}

			mu.Lock()
			results[item.VariantID] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// loadCandidates runs the single batched money-amount query and resolves the
// surrounding region and currency tax flags into per-variant candidate lists.
func (s *service) loadCandidates(ctx context.Context, items []RequestItem, pctx Context) (map[uuid.UUID][]PriceCandidate, error) {
	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		variantIDs = append(variantIDs, item.VariantID)
	}

	var region *models.Region
	if pctx.RegionID != nil {
		loaded, err := s.source.GetRegion(ctx, *pctx.RegionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("region %s was not found", pctx.RegionID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load region")
		}
		region = loaded
	}

	currencyCode := pctx.CurrencyCode
	if currencyCode == "" && region != nil {
		currencyCode = region.CurrencyCode
	}
	if currencyCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency_code or region_id is required")
	}

	currency, err := s.source.GetCurrency(ctx, currencyCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("currency %s was not found", currencyCode))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load currency")
	}

	rows, err := s.source.FindPricesForVariantsInRegion(ctx, catalog.PriceQuery{
		VariantIDs:       variantIDs,
		RegionID:         pctx.RegionID,
		CurrencyCode:     currencyCode,
		CustomerID:       pctx.CustomerID,
		IncludeDiscounts: pctx.IncludeDiscounts,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load price candidates")
	}

	out := make(map[uuid.UUID][]PriceCandidate, len(variantIDs))
	for _, row := range rows {
		out[row.VariantID] = append(out[row.VariantID], buildCandidate(row, region, currency))
	}
	return out, nil
}

func buildCandidate(row models.MoneyAmount, region *models.Region, currency *models.Currency) PriceCandidate {
	candidate := PriceCandidate{
		Amount:       row.Amount,
		CurrencyCode: row.CurrencyCode,
		RegionID:     row.RegionID,
		PriceListID:  row.PriceListID,
		MinQuantity:  row.MinQuantity,
		MaxQuantity:  row.MaxQuantity,
	}
	if currency != nil {
		candidate.IncludesTax = currency.IncludesTax
	}
	if row.RegionID != nil && region != nil && *row.RegionID == region.ID {
		inclusive := region.IncludesTax
		candidate.RegionIncludesTax = &inclusive
	}
	if row.PriceList != nil {
		candidate.PriceListIncludesTax = row.PriceList.IncludesTax
		candidate.PriceListType = row.PriceList.Type
	}
	return candidate
}

func (s *service) writeCache(ctx context.Context, item RequestItem, pctx Context, result PriceSelectionResult) {
	raw, err := encodeResult(result)
	if err != nil {
		s.logg.Warn(ctx, "price cache encode: "+err.Error())
		return
	}
	key := cacheKey(s.cache, item.VariantID, item.Quantity, pctx)
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logg.Warn(ctx, "price cache write: "+err.Error())
	}
}

// OnVariantsPricesUpdate purges every cached selection for the variants.
// Callers invoke this whenever group membership or price data changes.
func (s *service) OnVariantsPricesUpdate(ctx context.Context, variantIDs []uuid.UUID) error {
	if s.cache == nil || len(variantIDs) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, variantID := range variantIDs {
		g.Go(func() error {
			return s.cache.InvalidatePattern(gctx, s.cache.VariantKeyPattern(variantID.String()))
		})
	}
	if err := g.Wait(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate variant price cache")
	}
	return nil
}

// dedupeItems merges duplicate variant entries by summing their quantities
// and rejects negative quantities.
func dedupeItems(items []RequestItem) ([]RequestItem, error) {
	out := make([]RequestItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity for variant %s must be non-negative", item.VariantID))
		}
		if pos, ok := index[item.VariantID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		index[item.VariantID] = len(out)
		out = append(out, item)
	}
	return out, nil
}
