package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"leadpilot_backend/internal/leads/activity"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

// Pruner is the activity-log surface the worker drives.
type Pruner interface {
	PruneCombined(ctx context.Context, olderThan time.Duration, keepRecent int, dryRun bool) (activity.PruneResult, error)
}

// Worker processes scheduler tasks and registers the periodic cleanup.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	pruner    Pruner
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pruner Pruner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := queueName(cfg)
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	periodic := asynq.NewScheduler(opt, nil)
	task, err := NewActivityCleanupTask(ActivityCleanupPayload{
		RetentionAge: cfg.GetActivityRetentionAge(),
		KeepRecent:   cfg.GetActivityKeepRecent(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := periodic.Register(cfg.GetActivityCleanupCron(), task, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("failed to register activity cleanup: %w", err)
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: periodic,
		mux:       mux,
		pruner:    pruner,
		log:       log,
	}
	mux.HandleFunc(TaskActivityCleanup, w.handleActivityCleanup)

	return w, nil
}

func (w *Worker) handleActivityCleanup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseActivityCleanupPayload(task)
	if err != nil {
		return err
	}

	result, err := w.pruner.PruneCombined(ctx, payload.RetentionAge, payload.KeepRecent, false)
	if err != nil {
		return err
	}

	w.log.Info("activity cleanup completed",
		"candidates", result.Candidates,
		"deleted", result.Deleted,
		"retention_age", payload.RetentionAge.String(),
		"keep_recent", payload.KeepRecent)
	return nil
}

// Run starts the periodic scheduler and the task server, blocking until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	if err := w.server.Start(w.mux); err != nil {
		w.scheduler.Shutdown()
		return err
	}

	<-ctx.Done()
	w.log.Info("shutting down scheduler worker")
	w.scheduler.Shutdown()
	w.server.Shutdown()
	return nil
}
