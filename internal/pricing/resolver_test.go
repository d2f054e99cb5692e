package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/pricing-backend/pkg/db/models"
)

type stubVariantLoader struct {
	variants map[uuid.UUID]models.ProductVariant
	calls    int
}

func (s *stubVariantLoader) GetVariantsWithProduct(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error) {
	s.calls++
	out := make(map[uuid.UUID]models.ProductVariant)
	for _, id := range ids {
		if v, ok := s.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type stubMembershipLoader struct {
	groups map[uuid.UUID][]string
	calls  int
}

func (s *stubMembershipLoader) ListGroupIDsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	s.calls++
	out := make(map[uuid.UUID][]string)
	for _, id := range productIDs {
		if g, ok := s.groups[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func TestResolveComposesVariantToGroups(t *testing.T) {
	t.Parallel()

	productA := uuid.New()
	productB := uuid.New()
	varA1 := uuid.New()
	varA2 := uuid.New()
	varB := uuid.New()
	varLoose := uuid.New()

	variants := &stubVariantLoader{variants: map[uuid.UUID]models.ProductVariant{
		varA1:    {ID: varA1, ProductID: productA},
		varA2:    {ID: varA2, ProductID: productA},
		varB:     {ID: varB, ProductID: productB},
		varLoose: {ID: varLoose, ProductID: uuid.New()},
	}}
	memberships := &stubMembershipLoader{groups: map[uuid.UUID][]string{
		productA: {"pg_1"},
		productB: {"pg_1", "pg_2"},
	}}

	resolver, err := NewGroupResolver(variants, memberships)
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), []uuid.UUID{varA1, varA2, varB, varLoose})
	require.NoError(t, err)

	assert.Equal(t, []string{"pg_1"}, got[varA1])
	assert.Equal(t, []string{"pg_1"}, got[varA2])
	assert.Equal(t, []string{"pg_1", "pg_2"}, got[varB])
	_, ok := got[varLoose]
	assert.False(t, ok)

	// One variant query plus one membership query, regardless of batch size.
	assert.Equal(t, 1, variants.calls)
	assert.Equal(t, 1, memberships.calls)
}

func TestResolveEmptyInputIssuesNoQueries(t *testing.T) {
	t.Parallel()

	variants := &stubVariantLoader{}
	memberships := &stubMembershipLoader{}
	resolver, err := NewGroupResolver(variants, memberships)
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, variants.calls)
	assert.Zero(t, memberships.calls)
}

func TestResolveWithVariantsReturnsRows(t *testing.T) {
	t.Parallel()

	productA := uuid.New()
	varA := uuid.New()

	variants := &stubVariantLoader{variants: map[uuid.UUID]models.ProductVariant{
		varA: {ID: varA, ProductID: productA},
	}}
	memberships := &stubMembershipLoader{}
	resolver, err := NewGroupResolver(variants, memberships)
	require.NoError(t, err)

	rows, groups, err := resolver.ResolveWithVariants(context.Background(), []uuid.UUID{varA, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Empty(t, groups)
	assert.Equal(t, productA, rows[varA].ProductID)
}
