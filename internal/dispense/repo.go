package dispense

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
)

// Repository provides access to feeding schedules and dispense logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListEnabled(ctx context.Context) ([]models.DispenseSchedule, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DispenseSchedule, error)
	AdvanceWatermark(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateLog(ctx context.Context, log *models.DispenseLog) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed dispense repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListEnabled(ctx context.Context) ([]models.DispenseSchedule, error) {
	var schedules []models.DispenseSchedule
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DispenseSchedule, error) {
	var schedule models.DispenseSchedule
	err := r.db.WithContext(ctx).First(&schedule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) AdvanceWatermark(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.DispenseSchedule{}).
		Where("id = ?", id).
		Update("last_run_at", at).Error
}

func (r *repository) CreateLog(ctx context.Context, log *models.DispenseLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
