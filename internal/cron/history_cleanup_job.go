package cron

import (
	"context"
	"fmt"

	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

type historyPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
	RetentionDays() int
}

// NewHistoryCleanupJob builds the retention sweep over the notification
// audit log.
func NewHistoryCleanupJob(hist historyPurger, logg *logger.Logger) (Job, error) {
	if hist == nil {
		return nil, fmt.Errorf("history service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &historyCleanupJob{hist: hist, logg: logg}, nil
}

type historyCleanupJob struct {
	hist historyPurger
	logg *logger.Logger
}

func (j *historyCleanupJob) Name() string { return "email-history-cleanup" }

func (j *historyCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.hist.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("email history cleanup: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.hist.RetentionDays(),
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "email history cleanup complete")
	return nil
}
