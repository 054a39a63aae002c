// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package mail delivers verification codes to account email addresses.
package mail

import (
	"context"
	"fmt"
	"time"
)

// Sender delivers a plaintext verification code out-of-band.
// Implementations are best-effort; callers treat failures as non-fatal.
type Sender interface {
	SendVerificationCode(ctx context.Context, recipient, code string) error
}

const verificationSubject = "Verify your Embergate account"

// buildMessage renders the full RFC 5322 message for a verification code.
func buildMessage(from, recipient, code string, now time.Time) []byte {
	body := fmt.Sprintf(
		"Your Embergate verification code is: %s\r\n"+
			"\r\n"+
			"The code expires in 24 hours. If you did not create an account,\r\n"+
			"you can ignore this message.\r\n",
		code,
	)
	msg := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Date: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=utf-8\r\n"+
			"\r\n"+
			"%s",
		from, recipient, verificationSubject, now.Format(time.RFC1123Z), body,
	)
	return []byte(msg)
}
