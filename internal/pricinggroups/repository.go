package pricinggroup

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/pricing-backend/pkg/db/models"
)

// Repository wires together pricing group persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateGroup inserts a new pricing group row.
func (r *Repository) CreateGroup(ctx context.Context, group *models.PricingGroup) (*models.PricingGroup, error) {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// SaveGroup updates an existing pricing group row.
func (r *Repository) SaveGroup(ctx context.Context, group *models.PricingGroup) (*models.PricingGroup, error) {
	if err := r.db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group by ID. Memberships cascade at the DB level.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PricingGroup{}).Error
}

// FindByID loads the group, optionally with its member products.
func (r *Repository) FindByID(ctx context.Context, id string, withProducts bool) (*models.PricingGroup, error) {
	qb := r.db.WithContext(ctx)
	if withProducts {
		qb = qb.Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("products.created_at ASC")
		})
	}
	var group models.PricingGroup
	if err := qb.First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups pages through groups ordered by creation time, newest first,
// and returns the total count alongside the page.
func (r *Repository) ListGroups(ctx context.Context, limit, offset int, withProducts bool) ([]models.PricingGroup, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PricingGroup{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	qb := r.db.WithContext(ctx)
	if withProducts {
		qb = qb.Preload("Products")
	}
	var rows []models.PricingGroup
	err := qb.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AddMemberships links the products to the group.
func (r *Repository) AddMemberships(ctx context.Context, groupID string, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	rows := make([]models.PricingGroupProduct, 0, len(productIDs))
	for _, productID := range productIDs {
		rows = append(rows, models.PricingGroupProduct{
			PricingGroupID: groupID,
			ProductID:      productID,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// RemoveMemberships unlinks the products from the group.
func (r *Repository) RemoveMemberships(ctx context.Context, groupID string, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("pricing_group_id = ? AND product_id IN ?", groupID, productIDs).
		Delete(&models.PricingGroupProduct{}).
		Error
}

// ListProductIDs returns all member product IDs for the group.
func (r *Repository) ListProductIDs(ctx context.Context, groupID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PricingGroupProduct{}).
		Where("pricing_group_id = ?", groupID).
		Pluck("product_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListGroupIDsForProduct returns the distinct group IDs a product belongs to.
func (r *Repository) ListGroupIDsForProduct(ctx context.Context, productID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.PricingGroupProduct{}).
		Distinct("pricing_group_id").
		Where("product_id = ?", productID).
		Pluck("pricing_group_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListGroupIDsForProducts returns membership for many products in one query,
// keyed by product ID.
func (r *Repository) ListGroupIDsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []models.PricingGroupProduct
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row.PricingGroupID)
	}
	return out, nil
}

// FindGroupsByIDs loads groups for the given IDs.
func (r *Repository) FindGroupsByIDs(ctx context.Context, ids []string) ([]models.PricingGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.PricingGroup
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
