// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package httpapi

import (
	"time"

	"github.com/embergate/embergate/internal/auth"
	"github.com/embergate/embergate/internal/character"
)

// SignupRequest is the POST /signup body.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest is the POST /verify-email body.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest is the POST /login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResendVerificationRequest is the POST /resend-verification body.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// CreateCharacterRequest is the POST /characters body.
type CreateCharacterRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserResponse is the account identity included in login responses.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CharacterResponse is the wire shape of a character.
type CharacterResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Level       int        `json:"level"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func newUserResponse(account *auth.Account) UserResponse {
	return UserResponse{
		ID:       account.ID.String(),
		Username: account.Username,
		Email:    account.Email,
	}
}

// newCharacterResponses converts characters to their wire shape. The result
// is never nil so the JSON field encodes as an array.
func newCharacterResponses(chars []*character.Character) []CharacterResponse {
	out := make([]CharacterResponse, 0, len(chars))
	for _, c := range chars {
		out = append(out, CharacterResponse{
			ID:          c.ID.String(),
			Name:        c.Name,
			Description: c.Description,
			Level:       c.Level,
			CreatedAt:   c.CreatedAt,
			LastLogin:   c.LastLogin,
		})
	}
	return out
}
