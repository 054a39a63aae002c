// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/embergate/embergate/internal/ratelimit"
)

var tracer = otel.Tracer("embergate/command")

// ErrNilRegistry is returned when constructing a dispatcher without a registry.
var ErrNilRegistry = errors.New("registry must not be nil")

// ErrNilServices is returned when constructing a dispatcher without services.
var ErrNilServices = errors.New("services must not be nil")

// Dispatcher resolves command names, gates authenticated commands, and
// executes handlers.
type Dispatcher struct {
	registry    *Registry
	services    *Services
	rateLimiter *ratelimit.Limiter // optional, can be nil
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithRateLimiter configures the dispatcher to rate limit per connection.
// If not provided, rate limiting is disabled.
func WithRateLimiter(rl *ratelimit.Limiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.rateLimiter = rl
	}
}

// NewDispatcher creates a new command dispatcher.
func NewDispatcher(registry *Registry, services *Services, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if services == nil {
		return nil, ErrNilServices
	}
	d := &Dispatcher{
		registry: registry,
		services: services,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch executes a command for a connection, writing display lines to
// output. Authentication gating happens before the handler runs, so a
// rejected command emits no partial output.
func (d *Dispatcher) Dispatch(ctx context.Context, connID ulid.ULID, input string, output io.Writer) (err error) {
	name, args := parse(input)
	if name == "" {
		return ErrUnknownCommand(input)
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("conn.id", connID.String()),
		),
	)
	metrics := NewMetricsRecorder(name)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.Record()
	}()

	if d.rateLimiter != nil {
		allowed, cooldownMs := d.rateLimiter.Allow("conn:" + connID.String())
		if !allowed {
			span.SetAttributes(attribute.Int64("command.cooldown_ms", cooldownMs))
			metrics.SetStatus(StatusRateLimited)
			err = ErrRateLimited(cooldownMs)
			return err
		}
	}

	sess := d.services.Sessions.Lookup(connID)
	if sess == nil {
		metrics.SetStatus(StatusError)
		err = ErrNoSession()
		return err
	}

	entry, ok := d.registry.Get(name)
	if !ok {
		metrics.SetStatus(StatusNotFound)
		err = ErrUnknownCommand(name)
		return err
	}

	if entry.RequiresAuth && !sess.Authenticated() {
		span.SetAttributes(attribute.Bool("command.rejected_unauthenticated", true))
		metrics.SetStatus(StatusNotAuthenticated)
		err = ErrNotAuthenticated(name)
		return err
	}

	exec := &Execution{
		ConnID:   connID,
		Session:  sess,
		Args:     args,
		Output:   output,
		Services: d.services,
	}

	err = entry.Handler(ctx, exec)
	if err != nil {
		metrics.SetStatus(StatusError)
		slog.WarnContext(ctx, "command execution failed",
			"command", name,
			"conn_id", connID.String(),
			"error", err,
		)
		return err
	}

	metrics.SetStatus(StatusSuccess)
	return nil
}

// parse splits input into a command name and its argument string.
func parse(input string) (name, args string) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ""
	}
	name, args, _ = strings.Cut(trimmed, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}
