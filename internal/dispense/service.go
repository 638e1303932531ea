package dispense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pawpal-io/pawpal-backend/pkg/db/models"
	"github.com/pawpal-io/pawpal-backend/pkg/enums"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes feeding schedules.
type Service interface {
	// RunDue dispenses every enabled schedule whose due time has passed and
	// has not been consumed yet. Returns the number of dispenses executed.
	RunDue(ctx context.Context, now time.Time) (int, error)
	// DispenseNow records a manual feed against a schedule without touching
	// the watermark, so the next scheduled run still fires.
	DispenseNow(ctx context.Context, userID, scheduleID uuid.UUID) (*models.DispenseLog, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds the dispense service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispense repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// dueAt returns the schedule's most recent occurrence at or before now.
// The occurrence is due when the watermark has not consumed it yet.
func dueAt(schedule models.DispenseSchedule, now time.Time) (time.Time, bool, error) {
	slot, err := time.Parse("15:04", schedule.TimeOfDay)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse time_of_day %q: %w", schedule.TimeOfDay, err)
	}
	now = now.UTC()
	occurrence := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour(), slot.Minute(), 0, 0, time.UTC)
	if occurrence.After(now) {
		occurrence = occurrence.AddDate(0, 0, -1)
	}
	if schedule.LastRunAt != nil && !occurrence.After(schedule.LastRunAt.UTC()) {
		return occurrence, false, nil
	}
	return occurrence, true, nil
}

func (s *service) RunDue(ctx context.Context, now time.Time) (int, error) {
	schedules, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list enabled schedules: %w", err)
	}

	var (
		dispensed int
		errs      []error
	)
	for _, schedule := range schedules {
		occurrence, due, err := dueAt(schedule, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", schedule.ID, err))
			continue
		}
		if !due {
			continue
		}
		if err := s.execute(ctx, schedule, occurrence, now); err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", schedule.ID, err))
			continue
		}
		dispensed++
	}
	return dispensed, multierr.Combine(errs...)
}

// execute logs the feed and advances the watermark in one transaction, so a
// crash between the two cannot double-feed the pet on the next sweep.
func (s *service) execute(ctx context.Context, schedule models.DispenseSchedule, occurrence, now time.Time) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		scheduleID := schedule.ID
		log := &models.DispenseLog{
			ID:           uuid.New(),
			ScheduleID:   &scheduleID,
			UserID:       schedule.UserID,
			PortionGrams: schedule.PortionGrams,
			Trigger:      enums.DispenseTriggerScheduled,
			DispensedAt:  now.UTC(),
		}
		if err := repo.CreateLog(ctx, log); err != nil {
			return fmt.Errorf("create dispense log: %w", err)
		}
		if err := repo.AdvanceWatermark(ctx, schedule.ID, occurrence); err != nil {
			return fmt.Errorf("advance watermark: %w", err)
		}
		return nil
	})
}

func (s *service) DispenseNow(ctx context.Context, userID, scheduleID uuid.UUID) (*models.DispenseLog, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if scheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule id required")
	}

	schedule, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "schedule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load schedule")
	}
	if schedule.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "schedule does not belong to user")
	}

	log := &models.DispenseLog{
		ID:           uuid.New(),
		ScheduleID:   &schedule.ID,
		UserID:       schedule.UserID,
		PortionGrams: schedule.PortionGrams,
		Trigger:      enums.DispenseTriggerManual,
		DispensedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateLog(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispense log")
	}
	return log, nil
}
