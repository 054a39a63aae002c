// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package handlers_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embergate/embergate/internal/character"
	"github.com/embergate/embergate/internal/character/charactertest"
	"github.com/embergate/embergate/internal/command"
	"github.com/embergate/embergate/internal/command/handlers"
	"github.com/embergate/embergate/internal/session"
	"github.com/embergate/embergate/internal/status"
)

type staticCounter int64

func (c staticCounter) Count(context.Context) (int64, error) {
	return int64(c), nil
}

type fixture struct {
	services *command.Services
	connID   ulid.ULID
	out      bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := session.NewRegistry()
	f := &fixture{
		services: &command.Services{
			Sessions:   sessions,
			Characters: character.NewService(charactertest.NewMemoryRepository()),
			Status:     status.NewReporter(sessions, staticCounter(7)),
		},
		connID: ulid.Make(),
	}
	_, err := f.services.Sessions.Connect(f.connID)
	require.NoError(t, err)
	return f
}

// authenticate attaches an identity to the fixture connection and returns
// the account id.
func (f *fixture) authenticate(t *testing.T, username string) ulid.ULID {
	t.Helper()
	accountID := ulid.Make()
	require.NoError(t, f.services.Sessions.Authenticate(f.connID, accountID, username))
	return accountID
}

func (f *fixture) exec(t *testing.T, args string) *command.Execution {
	t.Helper()
	sess := f.services.Sessions.Lookup(f.connID)
	require.NotNil(t, sess)
	return &command.Execution{
		ConnID:   f.connID,
		Session:  sess,
		Args:     args,
		Output:   &f.out,
		Services: f.services,
	}
}

func TestWhoHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("lists sessions in connect order with caller marked", func(t *testing.T) {
		f := newFixture(t)
		f.authenticate(t, "alice")

		other := ulid.Make()
		_, err := f.services.Sessions.Connect(other)
		require.NoError(t, err)

		require.NoError(t, handlers.WhoHandler(ctx, f.exec(t, "")))
		out := f.out.String()

		assert.Contains(t, out, "alice")
		assert.Contains(t, out, "(you)")
		assert.Contains(t, out, "[guest]")
		assert.Contains(t, out, "2 sessions connected.")
		// Caller connected first, so their line comes before the guest's.
		assert.Less(t, bytes.Index(f.out.Bytes(), []byte("alice")), bytes.Index(f.out.Bytes(), []byte("[guest]")))
	})

	t.Run("single session", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, handlers.WhoHandler(ctx, f.exec(t, "")))
		assert.Contains(t, f.out.String(), "1 session connected.")
	})
}

func TestServerInfoHandler(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, handlers.ServerInfoHandler(context.Background(), f.exec(t, "")))
	out := f.out.String()

	assert.Contains(t, out, "Embergate Server")
	assert.Contains(t, out, "Uptime:")
	assert.Contains(t, out, "Connected sessions: 1")
	assert.Contains(t, out, "Registered users:   7")
}

func TestCharactersHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("empty list has a hint", func(t *testing.T) {
		f := newFixture(t)
		f.authenticate(t, "alice")

		require.NoError(t, handlers.CharactersHandler(ctx, f.exec(t, "")))
		assert.Contains(t, f.out.String(), "no characters yet")
	})

	t.Run("lists own characters with level", func(t *testing.T) {
		f := newFixture(t)
		accountID := f.authenticate(t, "alice")

		_, err := f.services.Characters.Create(ctx, accountID, "Aria", "a bard")
		require.NoError(t, err)
		_, err = f.services.Characters.Create(ctx, ulid.Make(), "Borin", "")
		require.NoError(t, err)

		require.NoError(t, handlers.CharactersHandler(ctx, f.exec(t, "")))
		out := f.out.String()

		assert.Contains(t, out, "Aria")
		assert.Contains(t, out, "level 1")
		assert.Contains(t, out, "a bard")
		assert.NotContains(t, out, "Borin")
	})
}

func TestCreateHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates character from args", func(t *testing.T) {
		f := newFixture(t)
		accountID := f.authenticate(t, "alice")

		require.NoError(t, handlers.CreateHandler(ctx, f.exec(t, "Aria a wandering bard")))
		assert.Contains(t, f.out.String(), "Character Aria created.")

		chars, err := f.services.Characters.ListByAccount(ctx, accountID)
		require.NoError(t, err)
		require.Len(t, chars, 1)
		assert.Equal(t, "a wandering bard", chars[0].Description)
	})

	t.Run("missing name shows usage", func(t *testing.T) {
		f := newFixture(t)
		f.authenticate(t, "alice")

		err := handlers.CreateHandler(ctx, f.exec(t, ""))
		require.Error(t, err)
		assert.Equal(t, "Usage: create <name> [description]", command.PlayerMessage(err))
	})

	t.Run("taken name fails for a different account", func(t *testing.T) {
		f := newFixture(t)
		f.authenticate(t, "alice")
		require.NoError(t, handlers.CreateHandler(ctx, f.exec(t, "Aria")))
		f.out.Reset()

		g := newFixture(t)
		g.services.Characters = f.services.Characters
		g.authenticate(t, "bob")

		err := handlers.CreateHandler(ctx, g.exec(t, "Aria"))
		require.Error(t, err)
		oopsErr, ok := oops.AsOops(err)
		require.True(t, ok)
		assert.Equal(t, character.CodeNameTaken, oopsErr.Code())
		assert.Empty(t, g.out.String())
	})
}
