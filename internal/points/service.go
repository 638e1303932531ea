package points

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/pagination"
)

// Service exposes the rewards ledger. Balance is always the sum of the
// user's entries; nothing here maintains a counter that could drift.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	BalanceTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	Award(ctx context.Context, tx *gorm.DB, input AwardInput) (*models.PointsEntry, error)
	Spend(ctx context.Context, tx *gorm.DB, input SpendInput) (*models.PointsEntry, error)
	Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.PointsEntry, error)
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.PointsEntry, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a points service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("points repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// AwardInput credits points to a user.
type AwardInput struct {
	UserID      uuid.UUID
	Amount      int
	Type        enums.PointsEntryType
	Description string
	OrderID     *uuid.UUID
	ExpiresAt   *time.Time
}

// SpendInput debits points from a user after a balance check.
type SpendInput struct {
	UserID      uuid.UUID
	Amount      int
	Type        enums.PointsEntryType
	Description string
	OrderID     *uuid.UUID
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.BalanceTx(ctx, nil, userID)
}

func (s *service) BalanceTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	balance, err := s.repo.WithTx(tx).SumBalance(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum points balance")
	}
	return balance, nil
}

func (s *service) Award(ctx context.Context, tx *gorm.DB, input AwardInput) (*models.PointsEntry, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "award amount must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid points entry type %q", input.Type))
	}

	entry := &models.PointsEntry{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Points:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
		OrderID:     input.OrderID,
		ExpiresAt:   input.ExpiresAt,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append points entry")
	}
	return entry, nil
}

func (s *service) Spend(ctx context.Context, tx *gorm.DB, input SpendInput) (*models.PointsEntry, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spend amount must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid points entry type %q", input.Type))
	}

	repo := s.repo.WithTx(tx)
	balance, err := repo.SumBalance(ctx, input.UserID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum points balance")
	}
	if balance < input.Amount {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient points")
	}

	entry := &models.PointsEntry{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Points:      -input.Amount,
		Type:        input.Type,
		Description: input.Description,
		OrderID:     input.OrderID,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append points entry")
	}
	return entry, nil
}

// AdjustInput appends a signed manual correction. Unlike Spend it carries no
// balance precondition; cancellation reversals must land even when the user
// already spent the credited points.
type AdjustInput struct {
	UserID      uuid.UUID
	Delta       int
	Description string
	OrderID     *uuid.UUID
}

func (s *service) Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.PointsEntry, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta cannot be zero")
	}

	entry := &models.PointsEntry{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Points:      input.Delta,
		Type:        enums.PointsEntryManualAdjustment,
		Description: input.Description,
		OrderID:     input.OrderID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append points entry")
	}
	return entry, nil
}

func (s *service) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.PointsEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order points entries")
	}
	return entries, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list points entries")
	}
	return list, nil
}
