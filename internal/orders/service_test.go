package orders

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/internal/cart"
	"github.com/pawpal-io/pawpal-backend/internal/catalog"
	"github.com/pawpal-io/pawpal-backend/internal/points"
	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/pagination"
	"github.com/pawpal-io/pawpal-backend/pkg/types"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  original_price NUMERIC,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  tier TEXT NOT NULL DEFAULT 'standard',
  points_required INTEGER NOT NULL DEFAULT 0,
  discount_percent NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  use_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal_amount NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  shipping_amount NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  points_used INTEGER NOT NULL DEFAULT 0,
  points_earned INTEGER NOT NULL DEFAULT 0,
  shipping_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS points_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  points INTEGER NOT NULL,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  order_id TEXT,
  expires_at DATETIME,
  created_at DATETIME
);`

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db     *gorm.DB
	orders Service
	points points.Service
	cart   cart.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.Exec(stmt + ";").Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	pointsSvc, err := points.NewService(points.NewRepository(db))
	if err != nil {
		t.Fatalf("points service: %v", err)
	}
	cartRepo := cart.NewRepository(db)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, catalog.NewRepository(db), cartRepo, pointsSvc)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	return &testEnv{db: db, orders: svc, points: pointsSvc, cart: cartRepo}
}

func (e *testEnv) seedProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Tier:          enums.ProductTierStandard,
		IsActive:      true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (e *testEnv) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := e.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQuantity
}

func addr() types.ShippingAddress {
	return types.ShippingAddress{City: "X"}
}

func TestPlaceOrderWorkedScenario(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	product := env.seedProduct(t, "Premium Kibble", "50.00", 2)

	order, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !order.SubtotalAmount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected subtotal 100.00, got %s", order.SubtotalAmount)
	}
	if !order.ShippingAmount.IsZero() {
		t.Fatalf("expected free shipping, got %s", order.ShippingAmount)
	}
	if !order.TaxAmount.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("expected tax 8.00, got %s", order.TaxAmount)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("108.00")) {
		t.Fatalf("expected total 108.00, got %s", order.TotalAmount)
	}
	if order.PointsEarned != 27 {
		t.Fatalf("expected 27 points earned, got %d", order.PointsEarned)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected line items: %+v", order.Items)
	}
	if !order.Items[0].UnitPrice.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected snapshot unit price 50.00, got %s", order.Items[0].UnitPrice)
	}
	if !strings.HasPrefix(order.OrderNumber, "PP-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}

	if stock := env.stockOf(t, product.ID); stock != 0 {
		t.Fatalf("expected stock exhausted, got %d", stock)
	}

	balance, err := env.points.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 27 {
		t.Fatalf("expected ledger balance 27, got %d", balance)
	}
	entries, err := env.points.EntriesForOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("entries for order: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != enums.PointsEntryPurchaseReward || entries[0].Points != 27 {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}

	// the follow-up checkout finds the shelf empty
	_, err = env.orders.PlaceOrder(ctx, uuid.New(), PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: addr(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected insufficient stock conflict, got %v", err)
	}
	if !strings.Contains(typed.Message(), "insufficient stock") {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestPlaceOrderTotalInvariant(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	a := env.seedProduct(t, "Collar", "14.25", 10)
	b := env.seedProduct(t, "Leash", "23.10", 10)

	order, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items: []ItemInput{
			{ProductID: a.ID, Quantity: 3},
			{ProductID: b.ID, Quantity: 1},
		},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	lineSum := decimal.Zero
	for _, item := range order.Items {
		if !item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			t.Fatalf("line total mismatch: %+v", item)
		}
		lineSum = lineSum.Add(item.TotalPrice)
	}
	if !order.SubtotalAmount.Equal(lineSum) {
		t.Fatalf("subtotal %s != line sum %s", order.SubtotalAmount, lineSum)
	}

	expectedTotal := order.SubtotalAmount.
		Add(order.ShippingAmount).
		Add(order.TaxAmount).
		Sub(order.DiscountAmount)
	if !order.TotalAmount.Equal(expectedTotal) {
		t.Fatalf("total %s != subtotal+shipping+tax-discount %s", order.TotalAmount, expectedTotal)
	}

	// 65.85 subtotal: below the free shipping threshold, no reward points
	if !order.ShippingAmount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected flat shipping, got %s", order.ShippingAmount)
	}
	if order.PointsEarned != 0 {
		t.Fatalf("expected no points below reward minimum, got %d", order.PointsEarned)
	}
}

func TestPlaceOrderAtomicRollback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	plenty := env.seedProduct(t, "Toy", "200.00", 10)
	scarce := env.seedProduct(t, "Rare Treat", "5.00", 1)

	_, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items: []ItemInput{
			{ProductID: plenty.ID, Quantity: 2},
			{ProductID: scarce.ID, Quantity: 3},
		},
		ShippingAddress: addr(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected insufficient stock conflict, got %v", err)
	}

	if stock := env.stockOf(t, plenty.ID); stock != 10 {
		t.Fatalf("first item decrement leaked through rollback: stock %d", stock)
	}
	if stock := env.stockOf(t, scarce.ID); stock != 1 {
		t.Fatalf("scarce stock changed: %d", stock)
	}

	var orderCount, itemCount, entryCount int64
	env.db.Model(&models.Order{}).Count(&orderCount)
	env.db.Model(&models.OrderItem{}).Count(&itemCount)
	env.db.Model(&models.PointsEntry{}).Count(&entryCount)
	if orderCount != 0 || itemCount != 0 || entryCount != 0 {
		t.Fatalf("rollback left rows behind: orders=%d items=%d entries=%d", orderCount, itemCount, entryCount)
	}
}

func TestPlaceOrderConcurrentBuyersNeverOversell(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "Limited Harness", "30.00", 5)

	// sqlite rejects overlapping write transactions, so the pool is pinned
	// to one connection; the goroutines still race for the stock rows.
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const buyers = 8
	errs := make(chan error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orders.PlaceOrder(ctx, uuid.New(), PlaceOrderInput{
				Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
				ShippingAddress: addr(),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("losing buyer got %v, expected state conflict", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("5 units on the shelf but %d orders settled", succeeded)
	}
	if got := env.stockOf(t, product.ID); got != 0 {
		t.Fatalf("expected stock 0 after the rush, got %d", got)
	}

	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 5 {
		t.Fatalf("expected 5 settled orders, got %d", orderCount)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	product := env.seedProduct(t, "Bed", "30.00", 5)

	tests := []struct {
		name  string
		input PlaceOrderInput
	}{
		{"no items", PlaceOrderInput{ShippingAddress: addr()}},
		{"zero quantity", PlaceOrderInput{Items: []ItemInput{{ProductID: product.ID, Quantity: 0}}, ShippingAddress: addr()}},
		{"missing city", PlaceOrderInput{Items: []ItemInput{{ProductID: product.ID, Quantity: 1}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.orders.PlaceOrder(ctx, user, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	// validation failures never touch stock
	if stock := env.stockOf(t, product.ID); stock != 5 {
		t.Fatalf("validation path mutated stock: %d", stock)
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.orders.PlaceOrder(ctx, uuid.New(), PlaceOrderInput{
		Items:           []ItemInput{{ProductID: uuid.New(), Quantity: 1}},
		ShippingAddress: addr(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected product unavailable, got %v", err)
	}
}

func TestPlaceOrderPointsDiscount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	product := env.seedProduct(t, "Smart Bowl", "40.00", 5)
	if err := env.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]any{"points_required": 30, "discount_percent": 10}).Error; err != nil {
		t.Fatalf("configure discount: %v", err)
	}
	if _, err := env.points.Award(ctx, nil, points.AwardInput{
		UserID: user, Amount: 30, Type: enums.PointsEntryBonus, Description: "promo",
	}); err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := env.cart.Upsert(ctx, &models.CartItem{
		ID: uuid.New(), UserID: user, ProductID: product.ID, Quantity: 1, UsePoints: true,
	}); err != nil {
		t.Fatalf("seed cart row: %v", err)
	}

	order, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !order.DiscountAmount.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("expected discount 4.00, got %s", order.DiscountAmount)
	}
	if order.PointsUsed != 30 {
		t.Fatalf("expected 30 points used, got %d", order.PointsUsed)
	}
	// 40 + 10 shipping + 3.20 tax - 4 discount
	if !order.TotalAmount.Equal(decimal.RequireFromString("49.20")) {
		t.Fatalf("expected total 49.20, got %s", order.TotalAmount)
	}

	balance, err := env.points.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected points fully spent, balance %d", balance)
	}

	// the purchased product's cart row is gone
	rows, err := env.cart.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("list cart: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected cart cleared for purchased products, got %d rows", len(rows))
	}
}

func TestPlaceOrderIgnoresUsePointsWithoutBalance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	product := env.seedProduct(t, "Deluxe Bed", "60.00", 5)
	if err := env.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]any{"points_required": 50, "discount_percent": 15}).Error; err != nil {
		t.Fatalf("configure discount: %v", err)
	}
	if err := env.cart.Upsert(ctx, &models.CartItem{
		ID: uuid.New(), UserID: user, ProductID: product.ID, Quantity: 1, UsePoints: true,
	}); err != nil {
		t.Fatalf("seed cart row: %v", err)
	}

	order, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if !order.DiscountAmount.IsZero() || order.PointsUsed != 0 {
		t.Fatalf("expected no discount without balance, got discount=%s used=%d", order.DiscountAmount, order.PointsUsed)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	product := env.seedProduct(t, "Harness", "20.00", 5)

	order, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// the engine never skips steps
	_, err = env.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected transition rejection, got %v", err)
	}

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		updated, err := env.orders.UpdateStatus(ctx, order.ID, next)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("expected status %s, got %s", next, updated.Status)
		}
	}

	// delivered is terminal
	_, err = env.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected terminal rejection, got %v", err)
	}
}

func TestCancelRestocksAndReversesPoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	product := env.seedProduct(t, "Premium Kibble", "50.00", 2)

	order, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if stock := env.stockOf(t, product.ID); stock != 0 {
		t.Fatalf("expected stock 0 after settlement, got %d", stock)
	}

	cancelled, err := env.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	if stock := env.stockOf(t, product.ID); stock != 2 {
		t.Fatalf("expected stock restored to 2, got %d", stock)
	}
	balance, err := env.points.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected reward reversed to 0, got %d", balance)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	product := env.seedProduct(t, "Brush", "9.00", 5)

	order, err := env.orders.PlaceOrder(ctx, owner, PlaceOrderInput{
		Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: addr(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if _, err := env.orders.Get(ctx, order.ID, owner, false); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err = env.orders.Get(ctx, order.ID, uuid.New(), false)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
	if _, err := env.orders.Get(ctx, order.ID, uuid.New(), true); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestListByUserPaginates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	product := env.seedProduct(t, "Snack", "3.00", 100)

	for i := 0; i < 3; i++ {
		if _, err := env.orders.PlaceOrder(ctx, user, PlaceOrderInput{
			Items:           []ItemInput{{ProductID: product.ID, Quantity: 1}},
			ShippingAddress: addr(),
		}); err != nil {
			t.Fatalf("place order %d: %v", i, err)
		}
	}

	list, err := env.orders.ListByUser(ctx, user, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Orders) != 2 || list.NextCursor == "" {
		t.Fatalf("expected first page of 2 with cursor, got %d", len(list.Orders))
	}

	rest, err := env.orders.ListByUser(ctx, user, pagination.Params{Limit: 2, Cursor: list.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(rest.Orders) != 1 {
		t.Fatalf("expected 1 order on second page, got %d", len(rest.Orders))
	}
}
