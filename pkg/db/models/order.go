package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	"github.com/pawpal-io/pawpal-backend/pkg/types"
)

// Order is the immutable settlement record. Amounts are written exactly once
// at the end of the settlement transaction and never recomputed; only Status
// changes afterwards, through the privileged transition operation.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'" json:"status"`
	SubtotalAmount  decimal.Decimal       `gorm:"column:subtotal_amount;type:numeric(12,2);not null" json:"subtotal_amount"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0" json:"discount_amount"`
	ShippingAmount  decimal.Decimal       `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0" json:"shipping_amount"`
	TaxAmount       decimal.Decimal       `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0" json:"tax_amount"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	PointsUsed      int                   `gorm:"column:points_used;not null;default:0" json:"points_used"`
	PointsEarned    int                   `gorm:"column:points_earned;not null;default:0" json:"points_earned"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
