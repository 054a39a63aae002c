// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/auth"
	"github.com/embergate/embergate/internal/character"
	"github.com/embergate/embergate/internal/command"
	"github.com/embergate/embergate/internal/observability"
	"github.com/embergate/embergate/internal/ratelimit"
	"github.com/embergate/embergate/internal/session"
	"github.com/embergate/embergate/internal/status"
)

// Authenticator runs a login attempt. Satisfied by auth.LoginService.
type Authenticator interface {
	Attempt(ctx context.Context, username, password string) (*auth.Account, error)
}

// CharacterLister lists an account's characters. Satisfied by
// character.Service.
type CharacterLister interface {
	ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*character.Character, error)
}

// Dispatcher executes a command for a connection. Satisfied by
// command.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, connID ulid.ULID, input string, output io.Writer) error
}

// ConnectionHandler serves a single gateway connection.
type ConnectionHandler struct {
	conn        net.Conn
	reader      *bufio.Reader
	registry    *session.Registry
	login       Authenticator
	characters  CharacterLister
	dispatcher  Dispatcher
	reporter    *status.Reporter
	authLimiter *ratelimit.Limiter
	connID      ulid.ULID
	closing     bool
}

// HandlerOption configures a ConnectionHandler.
type HandlerOption func(*ConnectionHandler)

// WithAuthLimiter rate limits authenticate events per client address,
// matching the HTTP login policy.
func WithAuthLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *ConnectionHandler) { h.authLimiter = l }
}

// NewConnectionHandler creates a handler for an accepted connection.
func NewConnectionHandler(conn net.Conn, registry *session.Registry, login Authenticator, characters CharacterLister, dispatcher Dispatcher, reporter *status.Reporter, opts ...HandlerOption) *ConnectionHandler {
	h := &ConnectionHandler{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		registry:   registry,
		login:      login,
		characters: characters,
		dispatcher: dispatcher,
		reporter:   reporter,
		connID:     ulid.Make(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ConnID returns the connection's session key.
func (h *ConnectionHandler) ConnID() ulid.ULID {
	return h.connID
}

// Handle processes the connection until it closes. The session registry
// entry lives exactly as long as the connection.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	defer func() {
		h.registry.Disconnect(h.connID)
		if err := h.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("error closing connection", "error", err)
		}
	}()

	if _, err := h.registry.Connect(h.connID); err != nil {
		slog.ErrorContext(ctx, "failed to register connection",
			"conn_id", h.connID.String(),
			"error", err,
		)
		return
	}
	observability.RecordConnection("gateway")

	h.send(ConnectedFrame{
		Type:         EventConnected,
		Message:      "Welcome to Embergate.",
		SID:          h.connID.String(),
		ServerStatus: h.reporter.Snapshot(ctx),
	})

	lineCh := make(chan string)
	// Buffered so the reader goroutine can exit once the connection closes,
	// even after Handle has returned.
	errCh := make(chan error, 1)
	// Closed when Handle returns so a reader blocked on lineCh can exit.
	// A client that pipelines frames past a disconnect would otherwise
	// strand the goroutine on the unbuffered send forever.
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lineCh <- strings.TrimSpace(line):
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				slog.Debug("connection read error",
					"conn_id", h.connID.String(),
					"error", err,
				)
			}
			return

		case line := <-lineCh:
			if line == "" {
				continue
			}
			h.processFrame(ctx, line)
			if h.closing {
				return
			}
		}
	}
}

func (h *ConnectionHandler) processFrame(ctx context.Context, line string) {
	var frame ClientFrame
	if err := json.Unmarshal([]byte(line), &frame); err != nil {
		h.send(ErrorFrame{Type: EventError, Error: "malformed frame"})
		return
	}

	switch frame.Type {
	case EventAuthenticate:
		h.handleAuthenticate(ctx, frame.Username, frame.Password)
	case EventMessage:
		h.send(EchoFrame{Type: EventEcho, Echo: frame.Payload})
	case EventCommand:
		h.handleCommand(ctx, frame.Cmd, frame.Args)
	case EventDisconnect:
		h.closing = true
	default:
		h.send(ErrorFrame{Type: EventError, Error: "unknown event type: " + frame.Type})
	}
}

// handleAuthenticate runs the same login state machine as the HTTP login
// path and binds the identity to this connection's session on success.
func (h *ConnectionHandler) handleAuthenticate(ctx context.Context, username, password string) {
	if h.authLimiter != nil {
		if allowed, _ := h.authLimiter.Allow(remoteHost(h.conn)); !allowed {
			h.send(AuthErrorFrame{Type: EventAuthError, Error: "Too many login attempts. Try again later."})
			return
		}
	}

	account, err := h.login.Attempt(ctx, username, password)
	if err != nil {
		observability.RecordAuthAttempt(authOutcome(err))
		h.send(AuthErrorFrame{Type: EventAuthError, Error: authErrorMessage(err)})
		return
	}
	observability.RecordAuthAttempt("success")

	if err := h.registry.Authenticate(h.connID, account.ID, account.Username); err != nil {
		slog.ErrorContext(ctx, "failed to bind identity to session",
			"conn_id", h.connID.String(),
			"account_id", account.ID.String(),
			"error", err,
		)
		h.send(AuthErrorFrame{Type: EventAuthError, Error: "Login failed. Reconnect and try again."})
		return
	}

	chars, err := h.characters.ListByAccount(ctx, account.ID)
	if err != nil {
		// Login succeeded; a missing character list does not undo it.
		slog.WarnContext(ctx, "failed to list characters after login",
			"account_id", account.ID.String(),
			"error", err,
		)
		chars = nil
	}

	h.send(AuthSuccessFrame{
		Type:         EventAuthSuccess,
		Message:      "Welcome back, " + account.Username + "!",
		User:         newUserPayload(account),
		Characters:   newCharacterPayloads(chars),
		ServerStatus: h.reporter.Snapshot(ctx),
	})
}

func (h *ConnectionHandler) handleCommand(ctx context.Context, cmd, args string) {
	input := strings.TrimSpace(cmd + " " + args)

	var buf bytes.Buffer
	if err := h.dispatcher.Dispatch(ctx, h.connID, input, &buf); err != nil {
		h.send(CmdResponseFrame{
			Type:   EventCmdResponse,
			Output: []string{},
			Error:  command.PlayerMessage(err),
		})
		return
	}

	h.send(CmdResponseFrame{
		Type:   EventCmdResponse,
		Output: splitLines(buf.String()),
	})
}

// send marshals a frame and writes it as one line. Write failures are
// logged; the read loop notices the dead connection.
func (h *ConnectionHandler) send(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal server frame",
			"conn_id", h.connID.String(),
			"error", err,
		)
		return
	}
	data = append(data, '\n')
	if _, err := h.conn.Write(data); err != nil {
		slog.Debug("failed to send frame to client",
			"conn_id", h.connID.String(),
			"error", err,
		)
	}
}

// splitLines breaks command output into display lines. The result is never
// nil so the JSON field encodes as an array.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

// authOutcome labels a login failure for metrics.
// remoteHost strips the ephemeral port so attempts from one client share
// a rate limit bucket.
func remoteHost(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func authOutcome(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "error"
	}
	switch oopsErr.Code() {
	case auth.CodeInvalidCredentials:
		return "invalid_credentials"
	case auth.CodeAccountLocked:
		return "locked"
	case auth.CodeNotVerified:
		return "not_verified"
	default:
		return "error"
	}
}

// authErrorMessage maps a login failure onto a client-safe message.
// Unknown-user and wrong-password failures share one message.
func authErrorMessage(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Login failed. Try again."
	}
	switch oopsErr.Code() {
	case auth.CodeInvalidCredentials:
		return "Invalid username or password."
	case auth.CodeAccountLocked:
		return "Account temporarily locked. Try again later."
	case auth.CodeNotVerified:
		return "Please verify your email before logging in."
	default:
		return "Login failed. Try again."
	}
}
