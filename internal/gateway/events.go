// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package gateway provides the persistent-connection protocol adapter.
// Clients exchange newline-delimited JSON frames over TCP.
package gateway

import (
	"time"

	"github.com/embergate/embergate/internal/auth"
	"github.com/embergate/embergate/internal/character"
	"github.com/embergate/embergate/internal/status"
)

// Client-to-server event types.
const (
	EventAuthenticate = "authenticate"
	EventMessage      = "message"
	EventCommand      = "command"
	EventDisconnect   = "disconnect"
)

// Server-to-client event types.
const (
	EventConnected   = "connected"
	EventAuthSuccess = "auth_success"
	EventAuthError   = "auth_error"
	EventEcho        = "message"
	EventCmdResponse = "cmd_response"
	EventError       = "error"
)

// ClientFrame is the envelope for client-to-server events. Fields beyond
// Type are populated depending on the event.
type ClientFrame struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"` // authenticate
	Password string `json:"password,omitempty"` // authenticate
	Payload  string `json:"payload,omitempty"`  // message
	Cmd      string `json:"cmd,omitempty"`      // command
	Args     string `json:"args,omitempty"`     // command
}

// UserPayload is the account identity included in auth_success frames.
type UserPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CharacterPayload is the wire shape of a character.
type CharacterPayload struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Level       int        `json:"level"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// ConnectedFrame greets a freshly accepted connection.
type ConnectedFrame struct {
	Type         string          `json:"type"`
	Message      string          `json:"message"`
	SID          string          `json:"sid"`
	ServerStatus status.Snapshot `json:"server_status"`
}

// AuthSuccessFrame reports a successful authenticate event.
type AuthSuccessFrame struct {
	Type         string             `json:"type"`
	Message      string             `json:"message"`
	User         UserPayload        `json:"user"`
	Characters   []CharacterPayload `json:"characters"`
	ServerStatus status.Snapshot    `json:"server_status"`
}

// AuthErrorFrame reports a failed authenticate event.
type AuthErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// EchoFrame echoes a client message back.
type EchoFrame struct {
	Type string `json:"type"`
	Echo string `json:"echo"`
}

// CmdResponseFrame carries the output of a dispatched command.
type CmdResponseFrame struct {
	Type   string   `json:"type"`
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

// ErrorFrame reports a malformed or unrecognized client frame.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// newUserPayload converts an account to its wire shape.
func newUserPayload(account *auth.Account) UserPayload {
	return UserPayload{
		ID:       account.ID.String(),
		Username: account.Username,
		Email:    account.Email,
	}
}

// newCharacterPayloads converts characters to their wire shape. The result
// is never nil so the JSON field encodes as an array.
func newCharacterPayloads(chars []*character.Character) []CharacterPayload {
	payloads := make([]CharacterPayload, 0, len(chars))
	for _, c := range chars {
		payloads = append(payloads, CharacterPayload{
			ID:          c.ID.String(),
			Name:        c.Name,
			Description: c.Description,
			Level:       c.Level,
			CreatedAt:   c.CreatedAt,
			LastLogin:   c.LastLogin,
		})
	}
	return payloads
}
