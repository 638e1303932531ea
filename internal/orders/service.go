package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/internal/cart"
	"github.com/pawpal-io/pawpal-backend/internal/catalog"
	"github.com/pawpal-io/pawpal-backend/internal/points"
	"github.com/pawpal-io/pawpal-backend/internal/pricing"
	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/pagination"
	"github.com/pawpal-io/pawpal-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the order settlement engine. PlaceOrder runs the whole
// settlement in one transaction: stock decrements, line item snapshots,
// totals, points movements, and the cart cleanup are all-or-nothing.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Get(ctx context.Context, orderID, requesterID uuid.UUID, admin bool) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  catalog.Repository
	cartRepo cart.Repository
	points   points.Service
	now      func() time.Time
}

// NewService builds an order settlement service with the required dependencies.
func NewService(repo Repository, tx txRunner, catalogRepo catalog.Repository, cartRepo cart.Repository, pointsSvc points.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if pointsSvc == nil {
		return nil, fmt.Errorf("points service required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalogRepo,
		cartRepo: cartRepo,
		points:   pointsSvc,
		now:      time.Now,
	}, nil
}

// PlaceOrderInput is the settlement request.
type PlaceOrderInput struct {
	Items           []ItemInput
	ShippingAddress types.ShippingAddress
}

// ItemInput is one requested (product, quantity) pair.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required for every item")
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
	}
	if fields := input.ShippingAddress.Validate(); fields != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address").WithDetails(fields)
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err := s.settle(ctx, tx, userID, input)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load placed order")
	}
	return order, nil
}

// settle performs step 2 of the settlement contract on the open transaction.
func (s *service) settle(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input PlaceOrderInput) (uuid.UUID, error) {
	repo := s.repo.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	number, err := newOrderNumber(s.now())
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		OrderNumber:     number,
		Status:          enums.OrderStatusPending,
		SubtotalAmount:  decimal.Zero,
		DiscountAmount:  decimal.Zero,
		ShippingAmount:  decimal.Zero,
		TaxAmount:       decimal.Zero,
		TotalAmount:     decimal.Zero,
		ShippingAddress: input.ShippingAddress,
	}
	if err := repo.Create(ctx, order); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order shell")
	}

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	cartRows, err := s.cartRepo.WithTx(tx).FindByUserAndProducts(ctx, userID, productIDs)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart flags")
	}
	usePoints := make(map[uuid.UUID]bool, len(cartRows))
	for _, row := range cartRows {
		usePoints[row.ProductID] = row.UsePoints
	}

	subtotal := decimal.Zero
	discount := decimal.Zero
	pointsUsed := 0
	items := make([]models.OrderItem, 0, len(input.Items))

	for _, requested := range input.Items {
		product, err := catalogRepo.FindByID(ctx, requested.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product unavailable")
			}
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product unavailable")
		}

		ok, err := catalogRepo.DecrementStock(ctx, requested.ProductID, requested.Quantity)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for %s", product.Name))
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(requested.Quantity)))
		items = append(items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    requested.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)

		if usePoints[product.ID] && product.PointsRequired > 0 && product.DiscountPercent.IsPositive() {
			_, err := s.points.Spend(ctx, tx, points.SpendInput{
				UserID:      userID,
				Amount:      product.PointsRequired,
				Type:        enums.PointsEntryPurchaseDiscount,
				Description: fmt.Sprintf("Points discount on %s", product.Name),
				OrderID:     &order.ID,
			})
			if err != nil {
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
					// not enough points: the flag is ignored, not an error
					continue
				}
				return uuid.Nil, err
			}
			discount = discount.Add(pricing.LineDiscount(lineTotal, product.DiscountPercent))
			pointsUsed += product.PointsRequired
		}
	}

	if err := repo.CreateItems(ctx, items); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}

	shipping := pricing.Shipping(subtotal)
	tax := pricing.Tax(subtotal)
	total := subtotal.Add(shipping).Add(tax).Sub(discount)

	pointsEarned := pricing.RewardPoints(total)
	if pointsEarned > 0 {
		if _, err := s.points.Award(ctx, tx, points.AwardInput{
			UserID:      userID,
			Amount:      pointsEarned,
			Type:        enums.PointsEntryPurchaseReward,
			Description: fmt.Sprintf("Reward for order %s", order.OrderNumber),
			OrderID:     &order.ID,
		}); err != nil {
			return uuid.Nil, err
		}
	}

	if err := repo.UpdateAmounts(ctx, order.ID, map[string]any{
		"subtotal_amount": subtotal,
		"discount_amount": discount,
		"shipping_amount": shipping,
		"tax_amount":      tax,
		"total_amount":    total,
		"points_used":     pointsUsed,
		"points_earned":   pointsEarned,
	}); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize order amounts")
	}

	if err := s.cartRepo.WithTx(tx).DeleteByUserAndProducts(ctx, userID, productIDs); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear purchased cart rows")
	}
	return order.ID, nil
}

// UpdateStatus moves an order along the allowed transition chain. Moving to
// cancelled restocks the line quantities and reverses the order's points
// movements, all in the same transaction as the status write.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
		}

		if next == enums.OrderStatusCancelled {
			if err := s.unwind(ctx, tx, order); err != nil {
				return err
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return order, nil
}

// unwind returns stock and points for a cancelled order.
func (s *service) unwind(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	catalogRepo := s.catalog.WithTx(tx)
	for _, item := range order.Items {
		if err := catalogRepo.Restock(ctx, item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock cancelled order")
		}
	}
	if order.PointsEarned > 0 {
		if _, err := s.points.Adjust(ctx, tx, points.AdjustInput{
			UserID:      order.UserID,
			Delta:       -order.PointsEarned,
			Description: fmt.Sprintf("Reversal of reward for cancelled order %s", order.OrderNumber),
			OrderID:     &order.ID,
		}); err != nil {
			return err
		}
	}
	if order.PointsUsed > 0 {
		if _, err := s.points.Adjust(ctx, tx, points.AdjustInput{
			UserID:      order.UserID,
			Delta:       order.PointsUsed,
			Description: fmt.Sprintf("Refund of points spent on cancelled order %s", order.OrderNumber),
			OrderID:     &order.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID, requesterID uuid.UUID, admin bool) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !admin && order.UserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
