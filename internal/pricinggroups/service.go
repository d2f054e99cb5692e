package pricinggroup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/pricing-backend/pkg/db"
	"github.com/storelinehq/pricing-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/pricing-backend/pkg/errors"
	"github.com/storelinehq/pricing-backend/pkg/logger"
	"github.com/storelinehq/pricing-backend/pkg/pagination"
)

// Service exposes pricing group management operations.
type Service interface {
	CreateGroup(ctx context.Context, name string) (*models.PricingGroup, error)
	UpdateGroup(ctx context.Context, id string, name string) (*models.PricingGroup, error)
	DeleteGroup(ctx context.Context, id string) error
	GetGroup(ctx context.Context, id string, includeProducts bool) (*models.PricingGroup, error)
	ListGroups(ctx context.Context, input ListGroupsInput) ([]models.PricingGroup, int64, error)
	AddProducts(ctx context.Context, groupID string, productIDs []uuid.UUID) (*models.PricingGroup, error)
	RemoveProducts(ctx context.Context, groupID string, productIDs []uuid.UUID) (*models.PricingGroup, error)
	ListProductsForGroup(ctx context.Context, groupID string, limit, offset int) ([]models.Product, int, error)
	GetGroupsForProduct(ctx context.Context, productID uuid.UUID) ([]models.PricingGroup, error)
}

// ListGroupsInput holds paging options for group listings.
type ListGroupsInput struct {
	Limit           int
	Offset          int
	IncludeProducts bool
}

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListVariantIDsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]uuid.UUID, error)
}

type priceInvalidator interface {
	OnVariantsPricesUpdate(ctx context.Context, variantIDs []uuid.UUID) error
}

// service implements the pricing group service.
type service struct {
	repo        *Repository
	dbClient    *db.Client
	products    productLoader
	invalidator priceInvalidator
	logg        *logger.Logger
}

// NewService constructs a pricing group service instance. The invalidator is
// optional; without it membership changes simply skip cache purging.
func NewService(repo *Repository, dbClient *db.Client, products productLoader, invalidator priceInvalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing group repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		products:    products,
		invalidator: invalidator,
		logg:        logg,
	}, nil
}

// CreateGroup creates a group with the given display name.
func (s *service) CreateGroup(ctx context.Context, name string) (*models.PricingGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing group name is required")
	}

	group, err := s.repo.CreateGroup(ctx, &models.PricingGroup{Name: name})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert pricing group")
	}
	return group, nil
}

// UpdateGroup renames an existing group.
func (s *service) UpdateGroup(ctx context.Context, id string, name string) (*models.PricingGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing group name is required")
	}

	group, err := s.loadGroup(ctx, id, false)
	if err != nil {
		return nil, err
	}

	group.Name = name
	updated, err := s.repo.SaveGroup(ctx, group)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update pricing group")
	}
	return updated, nil
}

// DeleteGroup removes the group; memberships cascade. Cached prices for every
// variant of the former members are purged afterwards.
func (s *service) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.loadGroup(ctx, id, false); err != nil {
		return err
	}

	var memberIDs []uuid.UUID
	if err := s.withTx(ctx, func(txRepo *Repository) error {
		var err error
		memberIDs, err = txRepo.ListProductIDs(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list group members")
		}
		if err := txRepo.DeleteGroup(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete pricing group")
		}
		return nil
	}); err != nil {
		return err
	}

	s.invalidateProducts(ctx, memberIDs)
	return nil
}

// GetGroup loads a group, optionally with its member products.
func (s *service) GetGroup(ctx context.Context, id string, includeProducts bool) (*models.PricingGroup, error) {
	return s.loadGroup(ctx, id, includeProducts)
}

// ListGroups pages through groups with the limit clamped to (0, 100],
// defaulting to 10 when out of range.
func (s *service) ListGroups(ctx context.Context, input ListGroupsInput) ([]models.PricingGroup, int64, error) {
	page := pagination.Normalize(input.Limit, input.Offset)

	rows, total, err := s.repo.ListGroups(ctx, page.Limit, page.Offset, input.IncludeProducts)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list pricing groups")
	}
	return rows, total, nil
}

// AddProducts links products to the group. Every product must exist; linking
// an already-member product surfaces a conflict from the uniqueness
// constraint.
func (s *service) AddProducts(ctx context.Context, groupID string, productIDs []uuid.UUID) (*models.PricingGroup, error) {
	if len(productIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_ids is required")
	}

	if _, err := s.loadGroup(ctx, groupID, false); err != nil {
		return nil, err
	}

	for _, productID := range productIDs {
		if _, err := s.products.GetProduct(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s was not found", productID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
	}

	if err := s.repo.AddMemberships(ctx, groupID, productIDs); err != nil {
		if db.IsUniqueViolation(err, "pricing_group_products_pkey") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err,
				"one or more products already belong to the pricing group")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add group memberships")
	}

	s.invalidateProducts(ctx, productIDs)
	return s.loadGroup(ctx, groupID, true)
}

// RemoveProducts unlinks products from the group. Removing a product that is
// not a member is a membership error.
func (s *service) RemoveProducts(ctx context.Context, groupID string, productIDs []uuid.UUID) (*models.PricingGroup, error) {
	if len(productIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_ids is required")
	}

	if _, err := s.loadGroup(ctx, groupID, false); err != nil {
		return nil, err
	}

	memberIDs, err := s.repo.ListProductIDs(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list group members")
	}
	members := make(map[uuid.UUID]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	var missing []string
	for _, productID := range productIDs {
		if _, ok := members[productID]; !ok {
			missing = append(missing, productID.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMembership,
			fmt.Sprintf("pricing group %s is not linked to product ID %s", groupID, strings.Join(missing, ", "))).
			WithDetails(map[string]any{"product_ids": missing})
	}

	if err := s.repo.RemoveMemberships(ctx, groupID, productIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove group memberships")
	}

	s.invalidateProducts(ctx, productIDs)
	return s.loadGroup(ctx, groupID, true)
}

// ListProductsForGroup returns one page of the group's member products plus
// the total membership count. An offset past the end yields an empty page.
func (s *service) ListProductsForGroup(ctx context.Context, groupID string, limit, offset int) ([]models.Product, int, error) {
	page := pagination.Normalize(limit, offset)
	limit, offset = page.Limit, page.Offset

	group, err := s.loadGroup(ctx, groupID, true)
	if err != nil {
		return nil, 0, err
	}

	total := len(group.Products)
	if offset > total-1 {
		return []models.Product{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return group.Products[offset:end], total, nil
}

// GetGroupsForProduct returns the distinct groups the product belongs to.
func (s *service) GetGroupsForProduct(ctx context.Context, productID uuid.UUID) ([]models.PricingGroup, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s was not found", productID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	groupIDs, err := s.repo.ListGroupIDsForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list groups for product")
	}
	groups, err := s.repo.FindGroupsByIDs(ctx, groupIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load groups")
	}
	return groups, nil
}

// withTx runs fn against a transaction-bound repository when a db client is
// configured, and against the base repository otherwise (tests).
func (s *service) withTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if s.dbClient == nil {
		return fn(s.repo)
	}
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
}

func (s *service) loadGroup(ctx context.Context, id string, withProducts bool) (*models.PricingGroup, error) {
	group, err := s.repo.FindByID(ctx, id, withProducts)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("pricing group %s was not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load pricing group")
	}
	return group, nil
}

// invalidateProducts purges cached prices for every variant of the products.
// Failures are logged, not surfaced: a stale cache entry expires on its own.
func (s *service) invalidateProducts(ctx context.Context, productIDs []uuid.UUID) {
	if s.invalidator == nil || len(productIDs) == 0 {
		return
	}
	variantIDs, err := s.products.ListVariantIDsForProducts(ctx, productIDs)
	if err != nil {
		s.logg.Warn(ctx, "list variants for cache invalidation: "+err.Error())
		return
	}
	if len(variantIDs) == 0 {
		return
	}
	if err := s.invalidator.OnVariantsPricesUpdate(ctx, variantIDs); err != nil {
		s.logg.Warn(ctx, "invalidate variant price cache: "+err.Error())
	}
}
