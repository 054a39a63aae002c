// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package character_test

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embergate/embergate/internal/character"
)

func TestNew(t *testing.T) {
	accountID := ulid.Make()

	t.Run("creates level one active character", func(t *testing.T) {
		char, err := character.New(accountID, "Aria", "a wandering bard")
		require.NoError(t, err)

		assert.False(t, char.ID.IsZero())
		assert.Equal(t, accountID, char.AccountID)
		assert.Equal(t, "Aria", char.Name)
		assert.Equal(t, 1, char.Level)
		assert.True(t, char.Active)
		assert.Nil(t, char.LastLogin)
		assert.False(t, char.CreatedAt.IsZero())
	})

	t.Run("normalizes name whitespace", func(t *testing.T) {
		char, err := character.New(accountID, "  Aria   Stormsong  ", "")
		require.NoError(t, err)
		assert.Equal(t, "Aria Stormsong", char.Name)
	})

	t.Run("rejects zero account id", func(t *testing.T) {
		_, err := character.New(ulid.ULID{}, "Aria", "")
		var verr *character.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "account_id", verr.Field)
	})

	t.Run("rejects overlong description", func(t *testing.T) {
		_, err := character.New(accountID, "Aria", strings.Repeat("x", character.MaxDescriptionLength+1))
		var verr *character.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "description", verr.Field)
	})
}

func TestValidateName(t *testing.T) {
	valid := []string{
		"Jo",
		"Aria",
		"Aria Stormsong",
		"Jean Luc Picard",
		"Ælfric",
	}
	for _, name := range valid {
		t.Run("accepts "+name, func(t *testing.T) {
			assert.NoError(t, character.ValidateName(name))
		})
	}

	invalid := map[string]string{
		"empty":           "",
		"too short":       "A",
		"too long":        strings.Repeat("a", character.MaxNameLength+1),
		"digits":          "Aria2",
		"underscore":      "Aria_Storm",
		"leading space":   " Aria",
		"trailing space":  "Aria ",
		"double space":    "Aria  Storm",
		"punctuation":     "Aria!",
		"space only word": " ",
	}
	for label, name := range invalid {
		t.Run("rejects "+label, func(t *testing.T) {
			var verr *character.ValidationError
			require.ErrorAs(t, character.ValidateName(name), &verr)
			assert.Equal(t, "name", verr.Field)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Aria Storm", character.NormalizeName("  Aria \t Storm \n"))
	assert.Equal(t, "", character.NormalizeName("   "))
}

func TestDeactivate(t *testing.T) {
	char, err := character.New(ulid.Make(), "Aria", "")
	require.NoError(t, err)

	char.Deactivate()
	assert.False(t, char.Active)
}

func TestRecordLogin(t *testing.T) {
	char, err := character.New(ulid.Make(), "Aria", "")
	require.NoError(t, err)
	require.Nil(t, char.LastLogin)

	char.RecordLogin()
	require.NotNil(t, char.LastLogin)
}
