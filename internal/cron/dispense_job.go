package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/pawpal-io/pawpal-backend/pkg/logger"
)

// dispenseRunner is the slice of the dispense service the job needs.
type dispenseRunner interface {
	RunDue(ctx context.Context, now time.Time) (int, error)
}

// DispenseJobParams configure the scheduled feeding job.
type DispenseJobParams struct {
	Logger   *logger.Logger
	Dispense dispenseRunner
}

// NewDispenseJob builds the job that executes due feeding schedules.
func NewDispenseJob(params DispenseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispense == nil {
		return nil, fmt.Errorf("dispense service required")
	}
	return &dispenseJob{
		logg:     params.Logger,
		dispense: params.Dispense,
		now:      time.Now,
	}, nil
}

type dispenseJob struct {
	logg     *logger.Logger
	dispense dispenseRunner
	now      func() time.Time
}

func (j *dispenseJob) Name() string { return "dispense-due" }

func (j *dispenseJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	count, err := j.dispense.RunDue(ctx, now)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"swept_at":  now,
		"dispensed": count,
	})
	if err != nil {
		// partial progress: some schedules dispensed before the failure
		j.logg.Error(logCtx, "dispense sweep finished with errors", err)
		return fmt.Errorf("dispense due schedules: %w", err)
	}
	j.logg.Info(logCtx, "dispense sweep complete")
	return nil
}
