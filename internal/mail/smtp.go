// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package mail

import (
	"context"
	"time"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig describes an SMTP relay using implicit TLS and PLAIN auth.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From    string
	Timeout time.Duration
}

type smtpDialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	from   string
	client smtpDialer
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender builds a sender for cfg. No connection is made until Send.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("host", cfg.Host).
			Errorf("smtp credentials are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("host", cfg.Host).
			With("port", cfg.Port).
			Wrap(err)
	}
	return &SMTPSender{from: cfg.From, client: client}, nil
}

// Send builds and delivers msg in a single SMTP session.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("to", msg.To).
			Wrap(err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, oops.Code("MAIL_BUILD_FAILED").With("field", "from").Wrap(err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, oops.Code("MAIL_BUILD_FAILED").With("field", "to").Wrap(err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}
