package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/logger"
)

const otpAttemptRetentionDays = 90

type OTPAttemptCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository otpAttemptRepo
	Retention  int
}

type otpAttemptRepo interface {
	DeleteAttemptsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

func NewOTPAttemptCleanupJob(params OTPAttemptCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = otpAttemptRetentionDays
	}
	return &otpAttemptCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type otpAttemptCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      otpAttemptRepo
	retention int
	now       func() time.Time
}

func (j *otpAttemptCleanupJob) Name() string { return "otp-attempt-cleanup" }

func (j *otpAttemptCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteAttemptsBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("otp attempt cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "otp attempt cleanup complete")
	return nil
}
