// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package command

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/embergate/embergate/internal/character"
)

func TestPlayerMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "Something went wrong. Try again.",
		},
		{
			name: "plain error",
			err:  errors.New("pg: connection refused"),
			want: "Something went wrong. Try again.",
		},
		{
			name: "unknown command names the command",
			err:  ErrUnknownCommand("frobnicate"),
			want: "Unknown command: frobnicate",
		},
		{
			name: "not authenticated",
			err:  ErrNotAuthenticated("create"),
			want: "You must be logged in to do that.",
		},
		{
			name: "invalid args shows usage",
			err:  ErrInvalidArgs("create", "create <name> [description]"),
			want: "Usage: create <name> [description]",
		},
		{
			name: "rate limited",
			err:  ErrRateLimited(500),
			want: "Too many commands. Please slow down.",
		},
		{
			name: "no session",
			err:  ErrNoSession(),
			want: "Connection has no session. Reconnect and try again.",
		},
		{
			name: "character name taken",
			err:  oops.Code(character.CodeNameTaken).Wrap(character.ErrNameTaken),
			want: "That character name is already taken.",
		},
		{
			name: "invalid character name",
			err:  oops.Code(character.CodeInvalidName).With("name", "Aria2").Errorf("invalid"),
			want: "Invalid character name: Aria2",
		},
		{
			name: "internal oops error stays generic",
			err:  oops.Code("CHARACTER_LIST_FAILED").Errorf("db down"),
			want: "Something went wrong. Try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlayerMessage(tt.err))
		})
	}
}
