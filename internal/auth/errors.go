// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint is violated.
var ErrConflict = errors.New("already exists")

// Error codes surfaced by the auth services. Transport layers map these onto
// status codes and player-facing messages.
const (
	CodeInvalidUsername    = "AUTH_INVALID_USERNAME"
	CodeInvalidEmail       = "AUTH_INVALID_EMAIL"
	CodeInvalidPassword    = "AUTH_INVALID_PASSWORD"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeAccountNotFound    = "AUTH_ACCOUNT_NOT_FOUND"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeNotVerified        = "AUTH_NOT_VERIFIED"
	CodeNoCode             = "AUTH_NO_VERIFICATION_CODE"
	CodeCodeExpired        = "AUTH_CODE_EXPIRED"
	CodeCodeMismatch       = "AUTH_CODE_MISMATCH"
	CodeInternal           = "AUTH_INTERNAL"
)
