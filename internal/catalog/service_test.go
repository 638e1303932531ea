package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
)

type fakeRepository struct {
	findFn      func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	createFn    func(ctx context.Context, product *models.Product) error
	updateFn    func(ctx context.Context, id uuid.UUID, changes map[string]any) error
	decrementFn func(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, query ListQuery) (*ProductList, error) {
	return &ProductList{}, nil
}

func (f *fakeRepository) Create(ctx context.Context, product *models.Product) error {
	if f.createFn != nil {
		return f.createFn(ctx, product)
	}
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, changes)
	}
	return nil
}

func (f *fakeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if f.decrementFn != nil {
		return f.decrementFn(ctx, id, qty)
	}
	return true, nil
}

func (f *fakeRepository) Restock(ctx context.Context, id uuid.UUID, qty int) error { return nil }

func TestService_GetProductNotFound(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.GetProduct(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_StockStatus(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		want  enums.StockStatus
	}{
		{"exhausted", 0, enums.StockStatusOutOfStock},
		{"low", 5, enums.StockStatusLowStock},
		{"plenty", 6, enums.StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{
				findFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
					return &models.Product{ID: id, StockQuantity: tt.stock}, nil
				},
			}
			svc, err := NewService(repo)
			if err != nil {
				t.Fatalf("unexpected service error: %v", err)
			}
			status, err := svc.StockStatus(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("stock status: %v", err)
			}
			if status != tt.want {
				t.Fatalf("expected %s got %s", tt.want, status)
			}
		})
	}
}

func TestService_DecrementStockRejectsNonPositiveQty(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	for _, qty := range []int{0, -2} {
		_, err := svc.DecrementStock(context.Background(), nil, uuid.New(), qty)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for qty %d, got %v", qty, err)
		}
	}
}

func TestService_CreateProductValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{Price: decimal.NewFromInt(10)}},
		{"zero price", CreateProductInput{Name: "Bowl", Price: decimal.Zero}},
		{"negative stock", CreateProductInput{Name: "Bowl", Price: decimal.NewFromInt(10), StockQuantity: -1}},
		{"bad tier", CreateProductInput{Name: "Bowl", Price: decimal.NewFromInt(10), Tier: enums.ProductTier("gold")}},
		{"discount above 100", CreateProductInput{Name: "Bowl", Price: decimal.NewFromInt(10), DiscountPercent: decimal.NewFromInt(101)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateProduct(context.Background(), tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestService_CreateProductDefaultsTier(t *testing.T) {
	var created *models.Product
	repo := &fakeRepository{
		createFn: func(ctx context.Context, product *models.Product) error {
			created = product
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:          "Smart Feeder",
		Price:         decimal.NewFromFloat(129.99),
		StockQuantity: 12,
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created == nil || created.ID == uuid.Nil {
		t.Fatal("expected product created with generated id")
	}
	if product.Tier != enums.ProductTierStandard {
		t.Fatalf("expected standard tier default, got %s", product.Tier)
	}
}

func TestService_UpdateProductPartial(t *testing.T) {
	existing := &models.Product{
		ID:            uuid.New(),
		Name:          "Chew Toy",
		Price:         decimal.NewFromInt(8),
		StockQuantity: 3,
		Tier:          enums.ProductTierStandard,
		IsActive:      true,
	}
	var written map[string]any
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, changes map[string]any) error {
			written = changes
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	newPrice := decimal.NewFromInt(12)
	updated, err := svc.UpdateProduct(context.Background(), existing.ID, UpdateProductInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected price %s got %s", newPrice, updated.Price)
	}
	if updated.Name != "Chew Toy" {
		t.Fatalf("unset fields must keep their values, got name %q", updated.Name)
	}
	if len(written) != 1 {
		t.Fatalf("expected only the price column to be written, got %v", written)
	}
	if _, ok := written["stock_quantity"]; ok {
		t.Fatal("stock_quantity must not be written unless the admin set it")
	}
}
