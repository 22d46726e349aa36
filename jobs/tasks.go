// Package jobs defines the background task types and the Asynq worker that
// processes them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePresenceTouch marks an account as recently active.
	TaskTypePresenceTouch = "presence:touch"
)

// PresenceTouchPayload identifies which account was seen and when.
type PresenceTouchPayload struct {
	Email  string    `json:"email"`
	SeenAt time.Time `json:"seen_at"`
}

// NewPresenceTouchTask constructs an Asynq task.
func NewPresenceTouchTask(payload PresenceTouchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePresenceTouch, data), nil
}

// PresenceStore is the persistence slice the presence handler needs.
type PresenceStore interface {
	TouchLastSeen(ctx context.Context, email string, seen time.Time) (int64, error)
}

// NewPresenceTouchHandler returns the handler for TaskTypePresenceTouch. A
// touch for an account that no longer exists is dropped, not retried.
func NewPresenceTouchHandler(store PresenceStore, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PresenceTouchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		seen := payload.SeenAt
		if seen.IsZero() {
			seen = time.Now().UTC()
		}
		rows, err := store.TouchLastSeen(ctx, payload.Email, seen)
		if err != nil {
			return err
		}
		if rows == 0 {
			logger.Debug("jobs: presence touch for missing account", slog.String("email", payload.Email))
			return asynq.SkipRetry
		}
		return nil
	}
}
