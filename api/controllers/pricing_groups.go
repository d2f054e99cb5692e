package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storelinehq/pricing-backend/api/responses"
	"github.com/storelinehq/pricing-backend/api/validators"
	pricinggroup "github.com/storelinehq/pricing-backend/internal/pricinggroups"
	"github.com/storelinehq/pricing-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/pricing-backend/pkg/errors"
	"github.com/storelinehq/pricing-backend/pkg/logger"
)

type createPricingGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

type updatePricingGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

type membershipRequest struct {
	GroupID    string      `json:"group_id" validate:"required"`
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required,min=1"`
}

type productDTO struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Handle *string   `json:"handle,omitempty"`
}

type pricingGroupDTO struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Products  []productDTO `json:"products,omitempty"`
}

func newProductDTO(product models.Product) productDTO {
	return productDTO{ID: product.ID, Title: product.Title, Handle: product.Handle}
}

func newPricingGroupDTO(group *models.PricingGroup) pricingGroupDTO {
	dto := pricingGroupDTO{
		ID:        group.ID,
		Name:      group.Name,
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
	}
	for _, product := range group.Products {
		dto.Products = append(dto.Products, newProductDTO(product))
	}
	return dto
}

// PricingGroupsList handles GET /admin/pricing-groups.
func PricingGroupsList(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeProducts, err := validators.ParseQueryBool(r, "include_products", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, count, err := svc.ListGroups(r.Context(), pricinggroup.ListGroupsInput{
			Limit:           limit,
			Offset:          offset,
			IncludeProducts: includeProducts,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]pricingGroupDTO, 0, len(groups))
		for i := range groups {
			dtos = append(dtos, newPricingGroupDTO(&groups[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"pricing_groups": dtos,
			"count":          count,
		})
	}
}

// PricingGroupCreate handles POST /admin/pricing-groups.
func PricingGroupCreate(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPricingGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateGroup(r.Context(), payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPricingGroupDTO(group))
	}
}

// PricingGroupGet handles GET /admin/pricing-groups/{id}.
func PricingGroupGet(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeProducts, err := validators.ParseQueryBool(r, "include_products", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.GetGroup(r.Context(), chi.URLParam(r, "id"), includeProducts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPricingGroupDTO(group))
	}
}

// PricingGroupUpdate handles PATCH /admin/pricing-groups/{id}.
func PricingGroupUpdate(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updatePricingGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.UpdateGroup(r.Context(), chi.URLParam(r, "id"), payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPricingGroupDTO(group))
	}
}

// PricingGroupDelete handles DELETE /admin/pricing-groups/{id}.
func PricingGroupDelete(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.DeleteGroup(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":      id,
			"object":  "pricing_group",
			"deleted": true,
		})
	}
}

// PricingGroupProducts handles GET /admin/pricing-groups/{id}/products.
func PricingGroupProducts(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, count, err := svc.ListProductsForGroup(r.Context(), chi.URLParam(r, "id"), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]productDTO, 0, len(products))
		for _, product := range products {
			dtos = append(dtos, newProductDTO(product))
		}
		responses.WriteSuccess(w, map[string]any{
			"products": dtos,
			"count":    count,
		})
	}
}

// PricingGroupsAddProducts handles POST /admin/pricing-groups/products/add.
func PricingGroupsAddProducts(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload membershipRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.AddProducts(r.Context(), payload.GroupID, payload.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPricingGroupDTO(group))
	}
}

// PricingGroupsRemoveProducts handles POST /admin/pricing-groups/products/remove.
func PricingGroupsRemoveProducts(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload membershipRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.RemoveProducts(r.Context(), payload.GroupID, payload.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPricingGroupDTO(group))
	}
}

// ProductPricingGroups handles GET /admin/products/{id}/pricing-groups.
func ProductPricingGroups(svc pricinggroup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		groups, err := svc.GetGroupsForProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos := make([]pricingGroupDTO, 0, len(groups))
		for i := range groups {
			dtos = append(dtos, newPricingGroupDTO(&groups[i]))
		}
		responses.WriteSuccess(w, map[string]any{"pricing_groups": dtos})
	}
}
