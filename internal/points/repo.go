package points

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/pagination"
)

// Repository manages persistence for the rewards ledger. Entries are only
// ever inserted; there is no update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.PointsEntry) error
	SumBalance(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PointsEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.PointsEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// SumBalance derives the balance from the ledger itself. Expired credits are
// excluded in the query; the rows stay in place.
func (r *repository) SumBalance(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var balance int
	err := r.db.WithContext(ctx).
		Model(&models.PointsEntry{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// EntryList is one cursor page of ledger entries, newest first.
type EntryList struct {
	Entries    []models.PointsEntry `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PointsEntry
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &EntryList{Entries: rows, NextCursor: nextCursor}, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.PointsEntry, error) {
	var rows []models.PointsEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
