// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/internal/jobs"
	"github.com/mtgvault/mtgvault/internal/mail"
)

const smtpTimeout = 30 * time.Second

func redisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// newMailSender returns the SMTP sender, or a logging sender when no
// credentials are configured.
func newMailSender(cfg config.MailConfig, logger *slog.Logger) (mail.Sender, error) {
	if !cfg.Enabled() {
		logger.Warn("mail credentials not set, reset emails will be logged instead of sent")
		return mail.NewLogSender(logger), nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Sender,
		Password: cfg.AppPassword,
		From:     cfg.Sender,
		Timeout:  smtpTimeout,
	})
}

// newNotifier selects how reset notices leave the process. The returned
// close function releases any queue connection.
func newNotifier(cfg config.Config, logger *slog.Logger) (auth.Notifier, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Mail.Delivery {
	case config.DeliveryQueue:
		client := jobs.NewClient(redisClientOpt(cfg.Redis))
		return client, client.Close, nil
	case config.DeliveryLog:
		return mail.NewResetNotifier(mail.NewLogSender(logger)), noop, nil
	case config.DeliveryDirect:
		sender, err := newMailSender(cfg.Mail, logger)
		if err != nil {
			return nil, nil, err
		}
		return mail.NewResetNotifier(sender), noop, nil
	}
	return nil, nil, oops.Code("CONFIG_INVALID").
		With("field", "mail.delivery").
		Errorf("unknown mail delivery %q", cfg.Mail.Delivery)
}
