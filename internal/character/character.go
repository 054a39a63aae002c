// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package character provides the character domain model and its service.
package character

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Name limits.
const (
	MinNameLength = 2
	MaxNameLength = 32

	MaxDescriptionLength = 500
)

// ErrNotFound is returned when a requested character does not exist.
var ErrNotFound = errors.New("not found")

// ErrNameTaken is returned when a character name is already in use.
// Name uniqueness is global, not per-account.
var ErrNameTaken = errors.New("character name already taken")

// nameRegex matches names of Unicode letters with single spaces between words.
var nameRegex = regexp.MustCompile(`^[\p{L}]+( [\p{L}]+)*$`)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Character represents a playable character owned by an account.
type Character struct {
	ID          ulid.ULID
	AccountID   ulid.ULID
	Name        string
	Description string
	Level       int
	Active      bool
	CreatedAt   time.Time
	LastLogin   *time.Time
}

// New creates a level-1 active character with a generated ID. The name is
// normalized and validated before being accepted.
func New(accountID ulid.ULID, name, description string) (*Character, error) {
	normalized := NormalizeName(name)
	if err := ValidateName(normalized); err != nil {
		return nil, err
	}
	if len(description) > MaxDescriptionLength {
		return nil, &ValidationError{Field: "description", Message: fmt.Sprintf("exceeds maximum length of %d", MaxDescriptionLength)}
	}
	if accountID.IsZero() {
		return nil, &ValidationError{Field: "account_id", Message: "cannot be zero"}
	}

	return &Character{
		ID:          ulid.Make(),
		AccountID:   accountID,
		Name:        normalized,
		Description: description,
		Level:       1,
		Active:      true,
		CreatedAt:   time.Now(),
	}, nil
}

// Deactivate soft-deactivates the character. Characters are never hard-deleted.
func (c *Character) Deactivate() {
	c.Active = false
}

// RecordLogin stamps the last-login time.
func (c *Character) RecordLogin() {
	now := time.Now()
	c.LastLogin = &now
}

// NormalizeName trims surrounding whitespace and collapses runs of spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ValidateName checks character name rules: letters and single spaces only,
// 2-32 characters.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(name) < MinNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be at least %d characters", MinNameLength)}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("exceeds maximum length of %d", MaxNameLength)}
	}
	if !nameRegex.MatchString(name) {
		return &ValidationError{Field: "name", Message: "may contain only letters and single spaces"}
	}
	return nil
}

// Repository manages character persistence.
type Repository interface {
	// Create persists a new character.
	Create(ctx context.Context, char *Character) error

	// GetByID retrieves a character by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Character, error)

	// ExistsByName checks if any character (active or not) has the given
	// name, case-insensitively.
	ExistsByName(ctx context.Context, name string) (bool, error)

	// ListByAccount returns the active characters owned by an account, in
	// creation order.
	ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*Character, error)

	// Update updates an existing character.
	Update(ctx context.Context, char *Character) error
}
