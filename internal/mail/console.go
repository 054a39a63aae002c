// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package mail

import (
	"context"
	"log/slog"
)

// ConsoleSender logs verification codes instead of delivering them.
// It is the fallback when no SMTP host is configured, for local development.
type ConsoleSender struct{}

// NewConsoleSender creates a ConsoleSender.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

// SendVerificationCode logs the code at info level.
func (*ConsoleSender) SendVerificationCode(ctx context.Context, recipient, code string) error {
	slog.InfoContext(ctx, "verification code (console delivery)",
		"recipient", recipient,
		"code", code,
	)
	return nil
}
