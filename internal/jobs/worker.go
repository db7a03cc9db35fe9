// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/mail"
)

// WorkerConfig collects what the worker needs.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Sender      mail.Sender
	Logger      *slog.Logger
	Concurrency int
}

// Worker runs the asynq server that delivers reset emails.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker builds a Worker. It does not connect until Run.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Sender == nil {
		return nil, oops.Code("WORKER_CONFIG_INVALID").Errorf("mail sender is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			cfg.Logger.WarnContext(ctx, "task failed",
				"task", task.Type(),
				"error", err)
		}),
	})
	return &Worker{server: srv, mux: newMux(cfg.Sender, cfg.Logger), logger: cfg.Logger}, nil
}

func newMux(sender mail.Sender, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskTypePasswordReset, NewPasswordResetHandler(sender, logger))
	return mux
}

// Run processes tasks until ctx is canceled or the server fails.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return oops.Code("WORKER_START_FAILED").Wrap(err)
	}
	w.logger.InfoContext(ctx, "worker started", "queue", QueueDefault)

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return nil
}
