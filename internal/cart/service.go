package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/internal/catalog"
	"github.com/pawpal-io/pawpal-backend/internal/points"
	"github.com/pawpal-io/pawpal-backend/internal/pricing"
	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
)

// Service is the cart aggregator: the per-user working set of products that
// feeds settlement. Listing self-heals rows whose product has been removed.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*models.CartItem, error)
	List(ctx context.Context, userID uuid.UUID) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    Repository
	catalog catalog.Service
	points  points.Service
}

// NewService wires a cart service with its collaborators.
func NewService(repo Repository, catalogSvc catalog.Service, pointsSvc points.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if pointsSvc == nil {
		return nil, fmt.Errorf("points service required")
	}
	return &service{repo: repo, catalog: catalogSvc, points: pointsSvc}, nil
}

// AddItemInput adds or replaces one (user, product) cart row.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UsePoints bool
}

// UpdateItemInput edits an existing cart row; nil fields keep current values.
type UpdateItemInput struct {
	Quantity  *int
	UsePoints *bool
}

// View is the listed cart with its computed totals.
type View struct {
	Items        []models.CartItem `json:"items"`
	TotalItems   int               `json:"total_items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Shipping     decimal.Decimal   `json:"shipping_amount"`
	Tax          decimal.Decimal   `json:"tax_amount"`
	Total        decimal.Decimal   `json:"total_amount"`
	UserPoints   int               `json:"user_points"`
	FreeShipping bool              `json:"free_shipping"`
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}
	if product.StockQuantity < input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("insufficient stock for %s", product.Name))
	}

	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		UsePoints: input.UsePoints,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart item")
	}

	// reload so re-adds return the surviving row, not the discarded insert
	items, err := s.repo.FindByUserAndProducts(ctx, userID, []uuid.UUID{input.ProductID})
	if err != nil || len(items) == 0 {
		item.Product = product
		return item, nil
	}
	row := items[0]
	row.Product = product
	return &row, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*models.CartItem, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id required")
	}
	if input.Quantity == nil && input.UsePoints == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	item, err := s.repo.FindByID(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.StockQuantity < *input.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for %s", product.Name))
		}
		item.Quantity = *input.Quantity
	}
	if input.UsePoints != nil {
		item.UsePoints = *input.UsePoints
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return item, nil
}

// List purges orphaned rows first, then returns the surviving items with
// the totals breakdown.
func (s *service) List(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	if _, err := s.repo.PurgeOrphans(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge orphaned cart items")
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	balance, err := s.points.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{
		Items:      items,
		Subtotal:   decimal.Zero,
		UserPoints: balance,
	}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		view.TotalItems += item.Quantity
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if item.UsePoints && balance >= item.Product.PointsRequired && item.Product.DiscountPercent.IsPositive() {
			line = line.Sub(pricing.LineDiscount(line, item.Product.DiscountPercent))
		}
		view.Subtotal = view.Subtotal.Add(line)
	}

	view.Shipping = pricing.Shipping(view.Subtotal)
	view.Tax = pricing.Tax(view.Subtotal)
	view.Total = view.Subtotal.Add(view.Shipping).Add(view.Tax)
	view.FreeShipping = pricing.FreeShipping(view.Subtotal)
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and item id required")
	}
	if _, err := s.repo.FindByID(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.Delete(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
