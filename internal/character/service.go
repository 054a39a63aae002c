// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package character

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes surfaced by the character service.
const (
	CodeInvalidName  = "CHARACTER_INVALID_NAME"
	CodeNameTaken    = "CHARACTER_NAME_TAKEN"
	CodeCreateFailed = "CHARACTER_CREATE_FAILED"
	CodeListFailed   = "CHARACTER_LIST_FAILED"
)

// Service handles character creation and queries.
type Service struct {
	repo Repository
}

// NewService creates a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new character for an account. Names are unique across all
// accounts; a collision fails with the same message regardless of owner.
func (s *Service) Create(ctx context.Context, accountID ulid.ULID, name, description string) (*Character, error) {
	char, err := New(accountID, name, description)
	if err != nil {
		return nil, oops.Code(CodeInvalidName).With("name", name).Wrap(err)
	}

	exists, err := s.repo.ExistsByName(ctx, char.Name)
	if err != nil {
		return nil, oops.Code(CodeCreateFailed).With("name", char.Name).Wrap(err)
	}
	if exists {
		return nil, oops.Code(CodeNameTaken).
			With("name", char.Name).
			Wrap(ErrNameTaken)
	}

	if err := s.repo.Create(ctx, char); err != nil {
		// A racer may hit the unique index between the check and the insert.
		if isConflict(err) {
			return nil, oops.Code(CodeNameTaken).
				With("name", char.Name).
				Wrap(ErrNameTaken)
		}
		return nil, oops.Code(CodeCreateFailed).With("id", char.ID.String()).Wrap(err)
	}

	return char, nil
}

// ListByAccount returns the account's active characters in creation order.
func (s *Service) ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*Character, error) {
	chars, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, oops.Code(CodeListFailed).With("account_id", accountID.String()).Wrap(err)
	}
	return chars, nil
}

func isConflict(err error) bool {
	return errors.Is(err, ErrNameTaken)
}
