// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package command

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embergate/embergate/internal/character"
	"github.com/embergate/embergate/internal/character/charactertest"
	"github.com/embergate/embergate/internal/ratelimit"
	"github.com/embergate/embergate/internal/session"
	"github.com/embergate/embergate/internal/status"
)

type staticCounter int64

func (c staticCounter) Count(context.Context) (int64, error) {
	return int64(c), nil
}

func newServices() *Services {
	sessions := session.NewRegistry()
	return &Services{
		Sessions:   sessions,
		Characters: character.NewService(charactertest.NewMemoryRepository()),
		Status:     status.NewReporter(sessions, staticCounter(0)),
	}
}

func assertDispatchCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %v", err)
	assert.Equal(t, code, oopsErr.Code())
}

func TestNewDispatcher(t *testing.T) {
	t.Run("requires registry", func(t *testing.T) {
		_, err := NewDispatcher(nil, newServices())
		assert.ErrorIs(t, err, ErrNilRegistry)
	})

	t.Run("requires services", func(t *testing.T) {
		_, err := NewDispatcher(NewRegistry(), nil)
		assert.ErrorIs(t, err, ErrNilServices)
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	connect := func(t *testing.T, services *Services) ulid.ULID {
		t.Helper()
		connID := ulid.Make()
		_, err := services.Sessions.Connect(connID)
		require.NoError(t, err)
		return connID
	}

	t.Run("executes registered command", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		reg := NewRegistry()
		reg.Register(Entry{Name: "hello", Handler: func(_ context.Context, exec *Execution) error {
			_, err := exec.Output.Write([]byte("hi " + exec.Session.Username + "\n"))
			return err
		}})

		d, err := NewDispatcher(reg, services)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, d.Dispatch(ctx, connID, "hello", &out))
		assert.Equal(t, "hi guest\n", out.String())
	})

	t.Run("passes args and lowercases the name", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		var gotArgs string
		reg := NewRegistry()
		reg.Register(Entry{Name: "echo", Handler: func(_ context.Context, exec *Execution) error {
			gotArgs = exec.Args
			return nil
		}})

		d, err := NewDispatcher(reg, services)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, d.Dispatch(ctx, connID, "  ECHO  hello world ", &out))
		assert.Equal(t, "hello world", gotArgs)
	})

	t.Run("unknown command", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		d, err := NewDispatcher(NewRegistry(), services)
		require.NoError(t, err)

		var out bytes.Buffer
		err = d.Dispatch(ctx, connID, "frobnicate", &out)
		assertDispatchCode(t, err, CodeUnknownCommand)
		assert.Empty(t, out.String())
	})

	t.Run("empty input is unknown", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		d, err := NewDispatcher(NewRegistry(), services)
		require.NoError(t, err)

		err = d.Dispatch(ctx, connID, "   ", &bytes.Buffer{})
		assertDispatchCode(t, err, CodeUnknownCommand)
	})

	t.Run("unregistered connection has no session", func(t *testing.T) {
		services := newServices()

		reg := NewRegistry()
		reg.Register(Entry{Name: "who", Handler: func(context.Context, *Execution) error { return nil }})

		d, err := NewDispatcher(reg, services)
		require.NoError(t, err)

		err = d.Dispatch(ctx, ulid.Make(), "who", &bytes.Buffer{})
		assertDispatchCode(t, err, CodeNoSession)
	})

	t.Run("auth-gated command rejects guests without output", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		reg := NewRegistry()
		reg.Register(Entry{Name: "create", RequiresAuth: true,
			Handler: func(_ context.Context, exec *Execution) error {
				_, err := exec.Output.Write([]byte("should not appear"))
				return err
			}})

		d, err := NewDispatcher(reg, services)
		require.NoError(t, err)

		var out bytes.Buffer
		err = d.Dispatch(ctx, connID, "create Aria", &out)
		assertDispatchCode(t, err, CodeNotAuthenticated)
		assert.Empty(t, out.String())
	})

	t.Run("auth-gated command runs after authenticate", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)
		require.NoError(t, services.Sessions.Authenticate(connID, ulid.Make(), "alice"))

		called := false
		reg := NewRegistry()
		reg.Register(Entry{Name: "create", RequiresAuth: true,
			Handler: func(context.Context, *Execution) error {
				called = true
				return nil
			}})

		d, err := NewDispatcher(reg, services)
		require.NoError(t, err)

		require.NoError(t, d.Dispatch(ctx, connID, "create Aria", &bytes.Buffer{}))
		assert.True(t, called)
	})

	t.Run("handler errors are passed through", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		boom := errors.New("boom")
		reg := NewRegistry()
		reg.Register(Entry{Name: "bad", Handler: func(context.Context, *Execution) error { return boom }})

		d, err := NewDispatcher(reg, services)
		require.NoError(t, err)

		err = d.Dispatch(ctx, connID, "bad", &bytes.Buffer{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rate limiter rejects when exhausted", func(t *testing.T) {
		services := newServices()
		connID := connect(t, services)

		rl := ratelimit.New(ratelimit.Config{BurstCapacity: 1, SustainedRate: 0.001})
		defer rl.Close()

		reg := NewRegistry()
		reg.Register(Entry{Name: "who", Handler: func(context.Context, *Execution) error { return nil }})

		d, err := NewDispatcher(reg, services, WithRateLimiter(rl))
		require.NoError(t, err)

		require.NoError(t, d.Dispatch(ctx, connID, "who", &bytes.Buffer{}))

		err = d.Dispatch(ctx, connID, "who", &bytes.Buffer{})
		assertDispatchCode(t, err, CodeRateLimited)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs string
	}{
		{"who", "who", ""},
		{"WHO", "who", ""},
		{"create Aria  a bard", "create", "Aria  a bard"},
		{"  server_info  ", "server_info", ""},
		{"", "", ""},
		{"   ", "", ""},
	}
	for _, tt := range tests {
		name, args := parse(tt.input)
		assert.Equal(t, tt.wantName, name, "input %q", tt.input)
		assert.Equal(t, tt.wantArgs, args, "input %q", tt.input)
	}
}
