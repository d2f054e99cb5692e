package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storelinehq/pricing-backend/pkg/db/models"
)

type variantLoader interface {
	GetVariantsWithProduct(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error)
}

type membershipLoader interface {
	ListGroupIDsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]string, error)
}

// GroupResolver maps variants to the pricing groups their owning products
// belong to. Resolution is batched: one variant query, one membership query.
type GroupResolver struct {
	variants    variantLoader
	memberships membershipLoader
}

// NewGroupResolver builds a resolver over the provided loaders.
func NewGroupResolver(variants variantLoader, memberships membershipLoader) (*GroupResolver, error) {
	if variants == nil {
		return nil, fmt.Errorf("variant loader required")
	}
	if memberships == nil {
		return nil, fmt.Errorf("membership loader required")
	}
	return &GroupResolver{variants: variants, memberships: memberships}, nil
}

// Resolve returns group IDs per variant. Variants whose product belongs to no
// group map to an empty (absent) entry. An empty input issues no queries.
func (r *GroupResolver) Resolve(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	_, groups, err := r.ResolveWithVariants(ctx, variantIDs)
	return groups, err
}

// ResolveWithVariants additionally returns the loaded variant rows so callers
// can validate variant existence without a second query.
func (r *GroupResolver) ResolveWithVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]models.ProductVariant, map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(variantIDs))
	if len(variantIDs) == 0 {
		return map[uuid.UUID]models.ProductVariant{}, out, nil
	}

	variants, err := r.variants.GetVariantsWithProduct(ctx, variantIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load variants: %w", err)
	}

	productIDs := make([]uuid.UUID, 0, len(variants))
	seen := make(map[uuid.UUID]struct{}, len(variants))
	for _, variant := range variants {
		if _, ok := seen[variant.ProductID]; ok {
			continue
		}
		seen[variant.ProductID] = struct{}{}
		productIDs = append(productIDs, variant.ProductID)
	}

	productGroups, err := r.memberships.ListGroupIDsForProducts(ctx, productIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load group memberships: %w", err)
	}

	for variantID, variant := range variants {
		if groups := productGroups[variant.ProductID]; len(groups) > 0 {
			out[variantID] = groups
		}
	}
	return variants, out, nil
}
