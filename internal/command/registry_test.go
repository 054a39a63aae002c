// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	noop := func(context.Context, *Execution) error { return nil }

	t.Run("register and get", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(Entry{Name: "who", Handler: noop})

		entry, ok := reg.Get("who")
		require.True(t, ok)
		assert.Equal(t, "who", entry.Name)

		_, ok = reg.Get("nope")
		assert.False(t, ok)
	})

	t.Run("last registration wins", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(Entry{Name: "who", Handler: noop, Help: "first"})
		reg.Register(Entry{Name: "who", Handler: noop, Help: "second"})

		entry, ok := reg.Get("who")
		require.True(t, ok)
		assert.Equal(t, "second", entry.Help)
		assert.Len(t, reg.All(), 1)
	})

	t.Run("all returns every entry", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(Entry{Name: "who", Handler: noop})
		reg.Register(Entry{Name: "create", Handler: noop, RequiresAuth: true})

		assert.Len(t, reg.All(), 2)
	})
}
