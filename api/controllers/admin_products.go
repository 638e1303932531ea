package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pawpal-io/pawpal-backend/api/responses"
	"github.com/pawpal-io/pawpal-backend/api/validators"
	"github.com/pawpal-io/pawpal-backend/internal/catalog"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/logger"
)

type createProductRequest struct {
	Name            string           `json:"name" validate:"required,min=1,max=200"`
	Description     *string          `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price" validate:"required"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	StockQuantity   int              `json:"stock_quantity" validate:"min=0"`
	Tier            string           `json:"tier,omitempty"`
	PointsRequired  int              `json:"points_required" validate:"min=0"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	IsActive        *bool            `json:"is_active,omitempty"`
	IsFeatured      bool             `json:"is_featured"`
}

func (r createProductRequest) toInput() (catalog.CreateProductInput, error) {
	input := catalog.CreateProductInput{
		Name:            validators.SanitizeString(r.Name, 200),
		Description:     r.Description,
		Price:           r.Price,
		OriginalPrice:   r.OriginalPrice,
		StockQuantity:   r.StockQuantity,
		PointsRequired:  r.PointsRequired,
		DiscountPercent: r.DiscountPercent,
		IsActive:        true,
		IsFeatured:      r.IsFeatured,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	if raw := strings.TrimSpace(r.Tier); raw != "" {
		tier, err := enums.ParseProductTier(raw)
		if err != nil {
			return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier")
		}
		input.Tier = tier
	}
	return input, nil
}

// AdminCreateProduct adds a product to the catalog.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	StockQuantity   *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	Tier            *string          `json:"tier,omitempty"`
	PointsRequired  *int             `json:"points_required,omitempty" validate:"omitempty,min=0"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
	IsFeatured      *bool            `json:"is_featured,omitempty"`
}

func (r updateProductRequest) toInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		Description:     r.Description,
		Price:           r.Price,
		OriginalPrice:   r.OriginalPrice,
		StockQuantity:   r.StockQuantity,
		PointsRequired:  r.PointsRequired,
		DiscountPercent: r.DiscountPercent,
		IsActive:        r.IsActive,
		IsFeatured:      r.IsFeatured,
	}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, 200)
		input.Name = &name
	}
	if r.Tier != nil {
		tier, err := enums.ParseProductTier(strings.TrimSpace(*r.Tier))
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier")
		}
		input.Tier = &tier
	}
	return input, nil
}

// AdminUpdateProduct applies a partial edit to a product.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct soft-deletes a product. Existing carts self-heal on
// their next read.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
