// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/auth"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues reset emails. It implements auth.Notifier, so a
// successful enqueue counts as a sent notice.
type Client struct {
	client enqueuer
}

var _ auth.Notifier = (*Client)(nil)

// NewClient constructs a Client on the given redis connection options.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// SendPasswordReset enqueues a TaskTypePasswordReset task.
func (c *Client) SendPasswordReset(ctx context.Context, notice auth.ResetNotice) error {
	task, err := NewPasswordResetTask(notice)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return oops.Code("JOB_ENQUEUE_FAILED").
			With("task", TaskTypePasswordReset).
			With("email", notice.Email).
			Wrap(err)
	}
	return nil
}

// Close releases the redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
