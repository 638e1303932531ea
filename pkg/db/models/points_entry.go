package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawpal-io/pawpal-backend/pkg/enums"
)

// PointsEntry is one append-only row of the rewards ledger. A user's balance
// is always the sum of their entries; there is no cached counter anywhere
// that could drift from this sum. Rows are never updated or deleted; expiry
// is applied by filtering on ExpiresAt at read time.
type PointsEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Points      int                   `gorm:"column:points;not null" json:"points"`
	Type        enums.PointsEntryType `gorm:"column:type;not null" json:"type"`
	Description string                `gorm:"column:description;not null" json:"description"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid" json:"order_id,omitempty"`
	ExpiresAt   *time.Time            `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
