// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package command provides the command registry and dispatch system for
// authenticated gateway connections.
package command

import (
	"context"
	"io"

	"github.com/oklog/ulid/v2"

	"github.com/embergate/embergate/internal/character"
	"github.com/embergate/embergate/internal/session"
	"github.com/embergate/embergate/internal/status"
)

// Handler is the function signature for command handlers.
type Handler func(ctx context.Context, exec *Execution) error

// Entry represents a registered command.
type Entry struct {
	Name         string  // canonical name (e.g., "who")
	Handler      Handler // command implementation
	RequiresAuth bool    // rejected before execution unless authenticated
	Help         string  // short description (one line)
	Usage        string  // usage pattern (e.g., "create <name> [description]")
}

// Execution provides context for a single command execution.
type Execution struct {
	ConnID   ulid.ULID
	Session  *session.Session // caller's session, never nil during dispatch
	Args     string
	Output   io.Writer
	Services *Services
}

// Services provides access to core services for command handlers.
// Handlers MUST NOT store references to services beyond execution.
type Services struct {
	Sessions   *session.Registry  // live connection registry
	Characters *character.Service // character creation and queries
	Status     *status.Reporter   // uptime and population counts
}
