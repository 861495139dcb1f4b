package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// DefaultRetentionDays applies when a cleanup task carries no retention.
const DefaultRetentionDays = 30

// ErrNoCleaner is returned when the cleanup queue was built without a store.
var ErrNoCleaner = errors.New("auth event cleaner not configured")

// AuthEventCleaner deletes auth events older than a retention period.
type AuthEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupAuthEventsTask removes auth events older than the configured retention period.
type CleanupAuthEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuthEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_auth_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuthEventsProcessor creates a processor function for CleanupAuthEventsTask.
func CleanupAuthEventsProcessor(cleaner AuthEventCleaner) backlite.QueueProcessor[CleanupAuthEventsTask] {
	return func(ctx context.Context, task CleanupAuthEventsTask) error {
		if cleaner == nil {
			return ErrNoCleaner
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = DefaultRetentionDays
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldEvents(ctx, retention)
		if err != nil {
			return fmt.Errorf("cleanup auth events: %w", err)
		}

		log.Info().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("Cleaned up auth events")
		return nil
	}
}

func NewCleanupAuthEventsQueue(cleaner AuthEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuthEventsProcessor(cleaner))
}
