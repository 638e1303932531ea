package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
)

// Service exposes catalog reads, the stock contract, and the privileged
// product management operations.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, query ListQuery) (*ProductList, error)
	StockStatus(ctx context.Context, id uuid.UUID) (enums.StockStatus, error)
	IsInStock(ctx context.Context, id uuid.UUID) (bool, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
	Restock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProductInput carries the fields a privileged caller sets on a new
// catalog entry.
type CreateProductInput struct {
	Name            string
	Description     *string
	Price           decimal.Decimal
	OriginalPrice   *decimal.Decimal
	StockQuantity   int
	Tier            enums.ProductTier
	PointsRequired  int
	DiscountPercent decimal.Decimal
	IsActive        bool
	IsFeatured      bool
}

// UpdateProductInput applies partial edits; nil fields keep current values.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	OriginalPrice   *decimal.Decimal
	StockQuantity   *int
	Tier            *enums.ProductTier
	PointsRequired  *int
	DiscountPercent *decimal.Decimal
	IsActive        *bool
	IsFeatured      *bool
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, query ListQuery) (*ProductList, error) {
	list, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) StockStatus(ctx context.Context, id uuid.UUID) (enums.StockStatus, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return "", err
	}
	return enums.StockStatusFor(product.StockQuantity), nil
}

func (s *service) IsInStock(ctx context.Context, id uuid.UUID) (bool, error) {
	status, err := s.StockStatus(ctx, id)
	if err != nil {
		return false, err
	}
	return status != enums.StockStatusOutOfStock, nil
}

// DecrementStock runs the conditional subtraction on the caller's
// transaction when one is supplied. A false return means the product had
// fewer than qty units and nothing changed.
func (s *service) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	ok, err := s.repo.WithTx(tx).DecrementStock(ctx, id, qty)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	return ok, nil
}

func (s *service) Restock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.repo.WithTx(tx).Restock(ctx, id, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if input.Tier == "" {
		input.Tier = enums.ProductTierStandard
	}
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", input.Tier))
	}
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	product := &models.Product{
		ID:              uuid.New(),
		Name:            input.Name,
		Description:     input.Description,
		Price:           input.Price,
		OriginalPrice:   input.OriginalPrice,
		StockQuantity:   input.StockQuantity,
		Tier:            input.Tier,
		PointsRequired:  input.PointsRequired,
		DiscountPercent: input.DiscountPercent,
		IsActive:        input.IsActive,
		IsFeatured:      input.IsFeatured,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only columns the admin actually set reach the UPDATE. Writing the
	// whole row would race settlements on stock_quantity.
	changes := map[string]any{}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		product.Name = *input.Name
		changes["name"] = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
		changes["description"] = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
		changes["price"] = *input.Price
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
		changes["original_price"] = input.OriginalPrice
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		product.StockQuantity = *input.StockQuantity
		changes["stock_quantity"] = *input.StockQuantity
	}
	if input.Tier != nil {
		if !input.Tier.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", *input.Tier))
		}
		product.Tier = *input.Tier
		changes["tier"] = *input.Tier
	}
	if input.PointsRequired != nil {
		product.PointsRequired = *input.PointsRequired
		changes["points_required"] = *input.PointsRequired
	}
	if input.DiscountPercent != nil {
		if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
		}
		product.DiscountPercent = *input.DiscountPercent
		changes["discount_percent"] = *input.DiscountPercent
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
		changes["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
		changes["is_featured"] = *input.IsFeatured
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

// DeleteProduct soft-deletes the catalog entry. Historical order items keep
// their snapshots; cart rows referencing the product are purged by the cart
// aggregator on the next list.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}
