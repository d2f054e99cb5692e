package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/pricing-backend/pkg/db/models"
)

// PriceQuery scopes a candidate price lookup to one pricing context.
type PriceQuery struct {
	VariantIDs       []uuid.UUID
	RegionID         *uuid.UUID
	CurrencyCode     string
	CustomerID       *uuid.UUID
	IncludeDiscounts bool
}

// Repository provides read access to the catalog tables the pricing engine
// consumes: products, variants, regions, currencies, and money amounts.
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

// GetProduct loads the product without associations.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetVariant loads one variant row.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetVariantsWithProduct batch-loads variants for the given IDs, keyed by
// variant ID. Unknown IDs are simply absent from the map.
func (r *Repository) GetVariantsWithProduct(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error) {
	out := make(map[uuid.UUID]models.ProductVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListVariantIDsForProducts returns all variant IDs belonging to the products.
func (r *Repository) ListVariantIDsForProducts(ctx context.Context, productIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("product_id IN ?", productIDs).
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetRegion loads one region row.
func (r *Repository) GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	var region models.Region
	if err := r.db.WithContext(ctx).First(&region, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

// GetCurrency loads one currency row by its code.
func (r *Repository) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	var currency models.Currency
	if err := r.db.WithContext(ctx).First(&currency, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

// FindPricesForVariantsInRegion loads every money amount eligible in the
// pricing context, with its price list preloaded for tax flags and type.
// Region-scoped and bare currency prices both come back; the selector prefers
// the region match. Discount prices are excluded entirely when
// IncludeDiscounts is false, and customer-restricted price lists only apply
// to the customer they name.
func (r *Repository) FindPricesForVariantsInRegion(ctx context.Context, q PriceQuery) ([]models.MoneyAmount, error) {
	if len(q.VariantIDs) == 0 {
		return nil, nil
	}

	qb := r.db.WithContext(ctx).
		Preload("PriceList").
		Where("variant_id IN ?", q.VariantIDs)

	if q.RegionID != nil {
		qb = qb.Where("(region_id = ? OR (region_id IS NULL AND currency_code = ?))", *q.RegionID, q.CurrencyCode)
	} else {
		qb = qb.Where("region_id IS NULL AND currency_code = ?", q.CurrencyCode)
	}

	if !q.IncludeDiscounts {
		qb = qb.Where("price_list_id IS NULL")
	} else {
		restricted := "EXISTS (SELECT 1 FROM price_list_customers plc WHERE plc.price_list_id = money_amounts.price_list_id)"
		if q.CustomerID != nil {
			qb = qb.Where(
				"price_list_id IS NULL OR NOT "+restricted+
					" OR EXISTS (SELECT 1 FROM price_list_customers plc WHERE plc.price_list_id = money_amounts.price_list_id AND plc.customer_id = ?)",
				*q.CustomerID,
			)
		} else {
			qb = qb.Where("price_list_id IS NULL OR NOT " + restricted)
		}
	}

	var rows []models.MoneyAmount
	if err := qb.Order("amount ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
