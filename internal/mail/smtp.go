// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package mail

import (
	"context"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// MaxRetries is how many times a failed send is retried with
	// exponential backoff. Zero means send once.
	MaxRetries uint64

	// RetryBase is the initial backoff interval. Defaults to 500ms.
	RetryBase time.Duration
}

// SMTPSender delivers verification codes over SMTP.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTPSender. Host, port, and from address are
// required.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp from address is required")
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}, nil
}

// SendVerificationCode delivers the code, retrying transient failures with
// exponential backoff.
func (s *SMTPSender) SendVerificationCode(ctx context.Context, recipient, code string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	msg := buildMessage(s.cfg.From, recipient, code, time.Now())

	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.send(addr, auth, s.cfg.From, []string{recipient}, msg); err != nil {
			slog.DebugContext(ctx, "smtp send attempt failed",
				"host", s.cfg.Host,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("host", s.cfg.Host).
			Wrap(err)
	}

	slog.InfoContext(ctx, "verification code sent", "host", s.cfg.Host)
	return nil
}
