package pricing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storelinehq/pricing-backend/internal/catalog"
	"github.com/storelinehq/pricing-backend/pkg/config"
	"github.com/storelinehq/pricing-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/pricing-backend/pkg/errors"
	"github.com/storelinehq/pricing-backend/pkg/logger"
)

type stubCandidateSource struct {
	rows       []models.MoneyAmount
	regions    map[uuid.UUID]*models.Region
	currencies map[string]*models.Currency
	findCalls  int
	lastQuery  catalog.PriceQuery
}

func (s *stubCandidateSource) FindPricesForVariantsInRegion(ctx context.Context, q catalog.PriceQuery) ([]models.MoneyAmount, error) {
	s.findCalls++
	s.lastQuery = q
	wanted := make(map[uuid.UUID]struct{}, len(q.VariantIDs))
	for _, id := range q.VariantIDs {
		wanted[id] = struct{}{}
	}
	var out []models.MoneyAmount
	for _, row := range s.rows {
		if _, ok := wanted[row.VariantID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubCandidateSource) GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	region, ok := s.regions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return region, nil
}

func (s *stubCandidateSource) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	currency, ok := s.currencies[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return currency, nil
}

type stubCache struct {
	data map[string]string
	sets int
	gets int
}

func newStubCache() *stubCache {
	return &stubCache{data: map[string]string{}}
}

func (c *stubCache) Get(ctx context.Context, key string) (string, error) {
	c.gets++
	val, ok := c.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return val, nil
}

func (c *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.sets++
	c.data[key] = value.(string)
	return nil
}

func (c *stubCache) InvalidatePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *stubCache) PriceSelectionKey(variantID string, parts ...string) string {
	return "ps:" + variantID + ":" + strings.Join(parts, ":")
}

func (c *stubCache) VariantKeyPattern(variantID string) string {
	return "ps:" + variantID + ":*"
}

type pricingTestEnv struct {
	svc    Service
	source *stubCandidateSource
	cache  *stubCache

	product1 uuid.UUID
	product2 uuid.UUID
	variant1 uuid.UUID
	variant2 uuid.UUID
	loose    uuid.UUID
}

// newPricingTestEnv builds the shared-group scenario: product 1 tiers 20 and
// 15 (qty>=5), product 2 tiers 30 and 25 (qty>=5), both in group pg_1, plus
// one loose variant priced flat at 50 outside any group.
func newPricingTestEnv(t *testing.T, cache *stubCache) *pricingTestEnv {
	t.Helper()

	env := &pricingTestEnv{
		source:   &stubCandidateSource{},
		cache:    cache,
		product1: uuid.New(),
		product2: uuid.New(),
		variant1: uuid.New(),
		variant2: uuid.New(),
		loose:    uuid.New(),
	}

	looseProduct := uuid.New()
	variants := &stubVariantLoader{variants: map[uuid.UUID]models.ProductVariant{
		env.variant1: {ID: env.variant1, ProductID: env.product1},
		env.variant2: {ID: env.variant2, ProductID: env.product2},
		env.loose:    {ID: env.loose, ProductID: looseProduct},
	}}
	memberships := &stubMembershipLoader{groups: map[uuid.UUID][]string{
		env.product1: {"pg_1"},
		env.product2: {"pg_1"},
	}}
	resolver, err := NewGroupResolver(variants, memberships)
	require.NoError(t, err)

	env.source.currencies = map[string]*models.Currency{
		"usd": {Code: "usd", Name: "US Dollar"},
	}
	env.source.rows = []models.MoneyAmount{
		{ID: uuid.New(), VariantID: env.variant1, CurrencyCode: "usd", Amount: 20},
		{ID: uuid.New(), VariantID: env.variant1, CurrencyCode: "usd", Amount: 15, MinQuantity: intPtr(5)},
		{ID: uuid.New(), VariantID: env.variant2, CurrencyCode: "usd", Amount: 30},
		{ID: uuid.New(), VariantID: env.variant2, CurrencyCode: "usd", Amount: 25, MinQuantity: intPtr(5)},
		{ID: uuid.New(), VariantID: env.loose, CurrencyCode: "usd", Amount: 50},
	}

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
	var pc priceCache
	if cache != nil {
		pc = cache
	}
	svc, err := NewService(env.source, resolver, pc, nil, logg, config.PricingConfig{
		TaxAware:            true,
		CacheTTL:            time.Minute,
		SelectorConcurrency: 4,
	})
	require.NoError(t, err)
	env.svc = svc
	return env
}

func TestCalculateVariantPricesBelowGroupThreshold(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)
	pctx := Context{CurrencyCode: "usd"}

	results, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: 2},
		{VariantID: env.variant2, Quantity: 2},
	}, pctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Combined quantity is 4, below the qty>=5 tier.
	require.NotNil(t, results[env.variant1].CalculatedPrice)
	assert.Equal(t, 20, *results[env.variant1].CalculatedPrice)
	require.NotNil(t, results[env.variant2].CalculatedPrice)
	assert.Equal(t, 30, *results[env.variant2].CalculatedPrice)
}

func TestCalculateVariantPricesGroupUnlocksTier(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)
	pctx := Context{CurrencyCode: "usd"}

	results, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: 4},
		{VariantID: env.variant2, Quantity: 2},
	}, pctx)
	require.NoError(t, err)

	// Group aggregate 6 raises both effective quantities past the tier.
	require.NotNil(t, results[env.variant1].CalculatedPrice)
	assert.Equal(t, 15, *results[env.variant1].CalculatedPrice)
	require.NotNil(t, results[env.variant2].CalculatedPrice)
	assert.Equal(t, 25, *results[env.variant2].CalculatedPrice)

	total := *results[env.variant1].CalculatedPrice*4 + *results[env.variant2].CalculatedPrice*2
	assert.Equal(t, 110, total)

	require.NotNil(t, results[env.variant1].OriginalPrice)
	assert.Equal(t, 20, *results[env.variant1].OriginalPrice)
}

func TestCalculateVariantPricesMergesDuplicates(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)
	pctx := Context{CurrencyCode: "usd"}

	results, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: 3},
		{VariantID: env.variant1, Quantity: 3},
	}, pctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[env.variant1].CalculatedPrice)
	assert.Equal(t, 15, *results[env.variant1].CalculatedPrice)
}

func TestCalculateVariantPricesUnknownVariant(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)

	_, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: uuid.New(), Quantity: 1},
	}, Context{CurrencyCode: "usd"})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestCalculateVariantPricesNegativeQuantity(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)

	_, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: -1},
	}, Context{CurrencyCode: "usd"})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestCalculateVariantPricesEmptyBatch(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)

	results, err := env.svc.CalculateVariantPrices(context.Background(), nil, Context{CurrencyCode: "usd"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, env.source.findCalls)
}

func TestCalculateVariantPricesUnknownRegion(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)
	regionID := uuid.New()

	_, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: 1},
	}, Context{RegionID: &regionID, CurrencyCode: "usd"})
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestCalculateCachesOnlyGroupFreeVariants(t *testing.T) {
	t.Parallel()

	cache := newStubCache()
	env := newPricingTestEnv(t, cache)
	pctx := Context{CurrencyCode: "usd"}

	_, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: 2},
		{VariantID: env.loose, Quantity: 1},
	}, pctx)
	require.NoError(t, err)

	// Only the loose variant's result was written.
	assert.Equal(t, 1, cache.sets)
	for key := range cache.data {
		assert.True(t, strings.HasPrefix(key, "ps:"+env.loose.String()+":"))
	}
}

func TestCalculateServesCachedGroupFreeVariant(t *testing.T) {
	t.Parallel()

	cache := newStubCache()
	env := newPricingTestEnv(t, cache)
	pctx := Context{CurrencyCode: "usd"}
	items := []RequestItem{{VariantID: env.loose, Quantity: 1}}

	first, err := env.svc.CalculateVariantPrices(context.Background(), items, pctx)
	require.NoError(t, err)
	require.Equal(t, 1, env.source.findCalls)

	second, err := env.svc.CalculateVariantPrices(context.Background(), items, pctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.source.findCalls) // no second candidate query
	require.NotNil(t, second[env.loose].CalculatedPrice)
	assert.Equal(t, *first[env.loose].CalculatedPrice, *second[env.loose].CalculatedPrice)
}

func TestCalculateIgnoreCacheBypasses(t *testing.T) {
	t.Parallel()

	cache := newStubCache()
	env := newPricingTestEnv(t, cache)
	pctx := Context{CurrencyCode: "usd", IgnoreCache: true}
	items := []RequestItem{{VariantID: env.loose, Quantity: 1}}

	_, err := env.svc.CalculateVariantPrices(context.Background(), items, pctx)
	require.NoError(t, err)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)
}

func TestOnVariantsPricesUpdatePurges(t *testing.T) {
	t.Parallel()

	cache := newStubCache()
	env := newPricingTestEnv(t, cache)
	ctx := context.Background()
	items := []RequestItem{{VariantID: env.loose, Quantity: 1}}

	_, err := env.svc.CalculateVariantPrices(ctx, items, Context{CurrencyCode: "usd"})
	require.NoError(t, err)
	require.NotEmpty(t, cache.data)

	require.NoError(t, env.svc.OnVariantsPricesUpdate(ctx, []uuid.UUID{env.loose}))
	assert.Empty(t, cache.data)

	_, err = env.svc.CalculateVariantPrices(ctx, items, Context{CurrencyCode: "usd"})
	require.NoError(t, err)
	assert.Equal(t, 2, env.source.findCalls)
}

func TestCalculatePassesContextToCandidateQuery(t *testing.T) {
	t.Parallel()

	env := newPricingTestEnv(t, nil)
	customer := uuid.New()

	_, err := env.svc.CalculateVariantPrices(context.Background(), []RequestItem{
		{VariantID: env.variant1, Quantity: 1},
	}, Context{CurrencyCode: "usd", CustomerID: &customer, IncludeDiscounts: true})
	require.NoError(t, err)

	assert.True(t, env.source.lastQuery.IncludeDiscounts)
	require.NotNil(t, env.source.lastQuery.CustomerID)
	assert.Equal(t, customer, *env.source.lastQuery.CustomerID)
}
