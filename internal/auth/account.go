// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
)

// Password validation constraints.
const MinPasswordLength = 8

// Verification code configuration.
const (
	VerificationCodeLength = 6
	VerificationCodeExpiry = 24 * time.Hour
)

// usernameRegex matches usernames of 3-20 letters, digits, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

var (
	upperRegex = regexp.MustCompile(`[A-Z]`)
	lowerRegex = regexp.MustCompile(`[a-z]`)
	digitRegex = regexp.MustCompile(`[0-9]`)
)

// Account represents a registered user account.
type Account struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	Verified     bool

	// Pending email verification. Both fields are nil once verified.
	VerificationCode    *string // digest, never plaintext
	VerificationExpires *time.Time

	FailedAttempts int
	LockedUntil    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates an unverified account with a generated ID. The password
// hash must already be computed by the credential hasher.
func NewAccount(username, email, passwordHash string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidPassword).Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked returns true if the account is currently locked out. A lockout
// timestamp in the past is equivalent to not locked.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockedUntil)
}

// RecordFailure increments the failure counter and sets the lockout timestamp
// once the threshold is reached.
func (a *Account) RecordFailure() {
	a.FailedAttempts++
	a.LockedUntil = ComputeLockoutTime(a.FailedAttempts)
	a.UpdatedAt = time.Now()
}

// RecordSuccess resets the failure counter and clears any lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now()
}

// SetVerificationCode stores the digest of a pending verification code,
// replacing any prior pending code.
func (a *Account) SetVerificationCode(digest string, expires time.Time) {
	a.VerificationCode = &digest
	a.VerificationExpires = &expires
	a.UpdatedAt = time.Now()
}

// MarkVerified flips the account to verified and clears the pending code.
// Verified accounts never carry verification state.
func (a *Account) MarkVerified() {
	a.Verified = true
	a.VerificationCode = nil
	a.VerificationExpires = nil
	a.UpdatedAt = time.Now()
}

// GenerateVerificationCode produces a uniform random numeric code of
// VerificationCodeLength digits. Leading zeros are kept.
func GenerateVerificationCode() (string, error) {
	var b strings.Builder
	for range VerificationCodeLength {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", oops.Code("AUTH_CODE_GENERATE_FAILED").Wrap(err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// ValidateUsername checks that a username is 3-20 characters of letters,
// digits, and underscores.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code(CodeInvalidUsername).Errorf("username is required")
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code(CodeInvalidUsername).
			With("min", MinUsernameLength).
			With("max", MaxUsernameLength).
			Errorf("username must be 3-20 alphanumeric characters or underscores")
	}
	return nil
}

// NormalizeEmail validates an email address syntactically and returns its
// normalized (trimmed, lowercased) form.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", oops.Code(CodeInvalidEmail).Errorf("email is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", oops.Code(CodeInvalidEmail).Errorf("invalid email format")
	}
	return strings.ToLower(addr.Address), nil
}

// ValidatePassword checks password strength: at least 8 characters with one
// uppercase letter, one lowercase letter, and one digit.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code(CodeInvalidPassword).Errorf("password is required")
	}
	if len(password) < MinPasswordLength {
		return oops.Code(CodeInvalidPassword).
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if !upperRegex.MatchString(password) {
		return oops.Code(CodeInvalidPassword).Errorf("password must contain at least one uppercase letter")
	}
	if !lowerRegex.MatchString(password) {
		return oops.Code(CodeInvalidPassword).Errorf("password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return oops.Code(CodeInvalidPassword).Errorf("password must contain at least one number")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByEmail retrieves an account by normalized email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update updates an existing account.
	Update(ctx context.Context, account *Account) error

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int64, error)
}

// Transactor runs a function inside a storage transaction. Repository calls
// made with the provided context participate in the transaction; any error
// rolls back before it is surfaced, so no partial account state is observable.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTransactor is a Transactor that runs the function directly. Used by
// in-memory repositories in tests.
type NopTransactor struct{}

// InTransaction calls fn with the unmodified context.
func (NopTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
