// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package command

import (
	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/character"
)

// Error codes for command dispatch failures.
const (
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeInvalidArgs      = "INVALID_ARGS"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNoSession        = "NO_SESSION"
)

// ErrUnknownCommand creates an error for an unknown command.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrNotAuthenticated creates an error for a command that requires a login.
func ErrNotAuthenticated(cmd string) error {
	return oops.Code(CodeNotAuthenticated).
		With("command", cmd).
		Errorf("must be logged in")
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// ErrRateLimited creates an error for rate limiting.
func ErrRateLimited(cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("cooldown_ms", cooldownMs).
		Errorf("too many commands, slow down")
}

// ErrNoSession creates an error for a connection with no registered session.
func ErrNoSession() error {
	return oops.Code(CodeNoSession).
		Errorf("no session for connection")
}

// PlayerMessage extracts a display-safe message from a dispatch error.
// Internal detail never reaches the client.
func PlayerMessage(err error) string {
	const fallback = "Something went wrong. Try again."
	if err == nil {
		return fallback
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return fallback
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		if cmd, ok := oopsErr.Context()["command"].(string); ok && cmd != "" {
			return "Unknown command: " + cmd
		}
		return "Unknown command."
	case CodeNotAuthenticated:
		return "You must be logged in to do that."
	case CodeInvalidArgs:
		if usage, ok := oopsErr.Context()["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeRateLimited:
		return "Too many commands. Please slow down."
	case CodeNoSession:
		return "Connection has no session. Reconnect and try again."
	case character.CodeInvalidName:
		if name, ok := oopsErr.Context()["name"].(string); ok && name != "" {
			return "Invalid character name: " + name
		}
		return "Invalid character name."
	case character.CodeNameTaken:
		return "That character name is already taken."
	default:
		return fallback
	}
}
