// Package refresh keeps the catalog snapshot in step with the upstream API
// using a Redis-backed periodic task.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bellebook/catalog/pkg/logging"
)

// TypeCatalogSync is the task type for a snapshot refresh
const TypeCatalogSync = "catalog:sync"

// DefaultInterval is how often the snapshot is refreshed when not configured
const DefaultInterval = 5 * time.Minute

// Syncer refreshes the catalog snapshot
type Syncer interface {
	Sync(ctx context.Context) error
}

// Config holds Redis connection configuration for the refresh queue
type Config struct {
	RedisURL  string
	RedisAddr string
	Password  string
	DB        int
	Interval  time.Duration
}

// Runner owns the asynq server executing sync tasks and the scheduler that
// enqueues them on an interval.
type Runner struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       *logging.Logger
}

// New creates a refresh Runner
func New(cfg *Config, syncer Syncer, log *logging.Logger) (*Runner, error) {
	opt, err := redisOpt(cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error("refresh task failed", "task", task.Type(), "err", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCatalogSync, func(ctx context.Context, _ *asynq.Task) error {
		return syncer.Sync(ctx)
	})

	scheduler := asynq.NewScheduler(opt, nil)

	_, err = scheduler.Register(
		fmt.Sprintf("@every %s", interval),
		asynq.NewTask(TypeCatalogSync, nil),
		asynq.MaxRetry(2),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("register sync schedule: %w", err)
	}

	return &Runner{
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		log:       log,
	}, nil
}

// Run starts the scheduler and the task server and blocks until the context
// is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if err := r.server.Start(r.mux); err != nil {
		r.scheduler.Shutdown()
		return fmt.Errorf("start refresh server: %w", err)
	}

	r.log.Info("catalog refresh running", "task", TypeCatalogSync)

	<-ctx.Done()

	r.scheduler.Shutdown()
	r.server.Shutdown()

	return nil
}

func redisOpt(cfg *Config) (asynq.RedisConnOpt, error) {
	if cfg.RedisURL != "" {
		opt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return opt, nil
	}

	if cfg.RedisAddr != "" {
		return asynq.RedisClientOpt{
			Addr:         cfg.RedisAddr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}, nil
	}

	return nil, fmt.Errorf("redis URL or address is required")
}
