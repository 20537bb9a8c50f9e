// Package scheduler runs background maintenance over Redis-backed asynq
// tasks, currently periodic activity-log retention pruning.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskActivityCleanup = "activities.cleanup"

// ActivityCleanupPayload carries the retention knobs so the handler never
// reads config at run time.
type ActivityCleanupPayload struct {
	RetentionAge time.Duration `json:"retentionAge"`
	KeepRecent   int           `json:"keepRecent"`
}

func NewActivityCleanupTask(payload ActivityCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityCleanup, data), nil
}

func ParseActivityCleanupPayload(task *asynq.Task) (ActivityCleanupPayload, error) {
	var payload ActivityCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ActivityCleanupPayload{}, err
	}
	return payload, nil
}
