// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mtgvault/mtgvault/internal/jobs"
)

// NewWorkerCmd creates the worker subcommand.
func NewWorkerCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued password reset emails",
		Long: `Start the background worker that sends the reset emails serve enqueues
when mail.delivery is "queue". Requires redis.addr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled() {
				return oops.Code("CONFIG_INVALID").
					With("field", "redis.addr").
					Errorf("worker requires redis.addr")
			}

			logger, err := newLogger(cfg, nil)
			if err != nil {
				return err
			}
			sender, err := newMailSender(cfg.Mail, logger)
			if err != nil {
				return err
			}

			worker, err := jobs.NewWorker(jobs.WorkerConfig{
				RedisOpts:   redisClientOpt(cfg.Redis),
				Sender:      sender,
				Logger:      logger,
				Concurrency: concurrency,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.Println("Worker started")
			return worker.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "number of reset emails sent in parallel")
	return cmd
}
