package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawpal-io/pawpal-backend/pkg/enums"
)

// DispenseLog records one executed feed, scheduled or manual.
type DispenseLog struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScheduleID   *uuid.UUID            `gorm:"column:schedule_id;type:uuid;index" json:"schedule_id,omitempty"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PortionGrams int                   `gorm:"column:portion_grams;not null" json:"portion_grams"`
	Trigger      enums.DispenseTrigger `gorm:"column:trigger;not null" json:"trigger"`
	DispensedAt  time.Time             `gorm:"column:dispensed_at;not null" json:"dispensed_at"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
