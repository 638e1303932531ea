package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/enums"
)

// Product is a catalog entry. StockQuantity is only ever mutated through the
// catalog repository's conditional decrement/restock statements; soft delete
// keeps the row referenceable from historical order items.
type Product struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string            `gorm:"column:name;not null" json:"name"`
	Description     *string           `gorm:"column:description" json:"description,omitempty"`
	Price           decimal.Decimal   `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	OriginalPrice   *decimal.Decimal  `gorm:"column:original_price;type:numeric(10,2)" json:"original_price,omitempty"`
	StockQuantity   int               `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	Tier            enums.ProductTier `gorm:"column:tier;not null;default:'standard'" json:"tier"`
	PointsRequired  int               `gorm:"column:points_required;not null;default:0" json:"points_required"`
	DiscountPercent decimal.Decimal   `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0" json:"discount_percent"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsFeatured      bool              `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"column:deleted_at;index" json:"-"`
}
