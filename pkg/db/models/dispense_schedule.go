package models

import (
	"time"

	"github.com/google/uuid"
)

// DispenseSchedule is a recurring feeding slot for a pet. LastRunAt is the
// watermark the worker advances after dispensing; due computation compares
// the schedule's next occurrence to now instead of matching the stored
// time-of-day string against the current minute.
type DispenseSchedule struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PetName      string     `gorm:"column:pet_name;not null" json:"pet_name"`
	TimeOfDay    string     `gorm:"column:time_of_day;not null" json:"time_of_day"`
	PortionGrams int        `gorm:"column:portion_grams;not null" json:"portion_grams"`
	Enabled      bool       `gorm:"column:enabled;not null;default:true" json:"enabled"`
	LastRunAt    *time.Time `gorm:"column:last_run_at" json:"last_run_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
