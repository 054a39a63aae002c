// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package charactertest provides in-memory test doubles for character
// persistence.
package charactertest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/embergate/embergate/internal/character"
)

// MemoryRepository is an in-memory character.Repository for tests.
type MemoryRepository struct {
	mu    sync.Mutex
	chars map[ulid.ULID]*character.Character
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{chars: make(map[ulid.ULID]*character.Character)}
}

// Create stores a copy of char, enforcing global case-insensitive name
// uniqueness like the database unique index does.
func (r *MemoryRepository) Create(_ context.Context, char *character.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.chars {
		if strings.EqualFold(existing.Name, char.Name) {
			return character.ErrNameTaken
		}
	}
	r.chars[char.ID] = copyCharacter(char)
	return nil
}

// GetByID retrieves a character by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id ulid.ULID) (*character.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	char, ok := r.chars[id]
	if !ok {
		return nil, character.ErrNotFound
	}
	return copyCharacter(char), nil
}

// ExistsByName reports whether any character has the given name.
func (r *MemoryRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, char := range r.chars {
		if strings.EqualFold(char.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// ListByAccount returns the account's active characters in creation order.
func (r *MemoryRepository) ListByAccount(_ context.Context, accountID ulid.ULID) ([]*character.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chars []*character.Character
	for _, char := range r.chars {
		if char.AccountID == accountID && char.Active {
			chars = append(chars, copyCharacter(char))
		}
	}
	sort.Slice(chars, func(i, j int) bool {
		if !chars[i].CreatedAt.Equal(chars[j].CreatedAt) {
			return chars[i].CreatedAt.Before(chars[j].CreatedAt)
		}
		return chars[i].ID.Compare(chars[j].ID) < 0
	})
	return chars, nil
}

// Update replaces the stored character.
func (r *MemoryRepository) Update(_ context.Context, char *character.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chars[char.ID]; !ok {
		return character.ErrNotFound
	}
	r.chars[char.ID] = copyCharacter(char)
	return nil
}

func copyCharacter(char *character.Character) *character.Character {
	cp := *char
	if char.LastLogin != nil {
		t := *char.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}
