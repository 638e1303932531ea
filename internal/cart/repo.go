package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
)

// Repository manages persistence for cart rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, item *models.CartItem) error
	FindByID(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	PurgeOrphans(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error
	FindByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]models.CartItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts the row or, when the (user, product) pair already exists,
// replaces its quantity and use_points flag. The unique index keeps this a
// single row no matter how often the product is re-added.
func (r *repository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "use_points", "updated_at"}),
	}).Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"use_points": item.UsePoints,
		}).Error
}

func (r *repository) FindByID(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		First(&item, "id = ? AND user_id = ?", itemID, userID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// PurgeOrphans deletes the user's rows whose product is gone or no longer
// sellable, soft deletes and deactivations included. Runs before every list
// so rows settlement would reject never reach the totals computation.
func (r *repository) PurgeOrphans(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM cart_items
		WHERE user_id = ?
		  AND product_id NOT IN (
			SELECT id FROM products WHERE deleted_at IS NULL AND is_active = ?
		  )
	`, userID, true)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&models.CartItem{}).Error
}

func (r *repository) FindByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]models.CartItem, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
