// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified when a username doesn't exist so that lookup
// misses and password mismatches take comparable time. It never matches any
// password.
//
//nolint:gosec // G101: intentionally fake digest for timing uniformity, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// LockedAccountRepository extends AccountRepository with a username lookup
// that holds the account row until the surrounding transaction commits,
// serializing concurrent attempts on the same account so no failure
// increment is lost.
type LockedAccountRepository interface {
	AccountRepository

	// GetByUsernameLocked behaves like GetByUsername but locks the row for
	// the remainder of the transaction in the context.
	GetByUsernameLocked(ctx context.Context, username string) (*Account, error)
}

// LoginService decides login attempts. The same decision logic serves the
// HTTP login endpoint and the gateway authenticate event, so both transports
// share identical lockout behavior.
type LoginService struct {
	accounts LockedAccountRepository
	tx       Transactor
	hasher   CredentialHasher
}

// NewLoginService creates a new LoginService.
func NewLoginService(accounts LockedAccountRepository, tx Transactor, hasher CredentialHasher) *LoginService {
	return &LoginService{
		accounts: accounts,
		tx:       tx,
		hasher:   hasher,
	}
}

// Attempt runs one login attempt against the account state machine:
//
//  1. Unknown username rejects with the same message as a wrong password.
//  2. A live lockout rejects before any password comparison, even when the
//     password is correct.
//  3. A wrong password increments the failure counter; the fifth failure
//     locks the account for the lockout window.
//  4. A correct password on an unverified account rejects without touching
//     the counter.
//  5. A correct password on a verified account resets the counter and clears
//     the lock.
//
// The attempt runs in a transaction with the account row held, so concurrent
// attempts on the same account cannot lose an increment.
func (s *LoginService) Attempt(ctx context.Context, username, password string) (*Account, error) {
	var account *Account

	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		found, err := s.accounts.GetByUsernameLocked(ctx, username)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Burn a verification anyway so the miss is not observable
				// through response timing.
				s.hasher.Verify(password, dummyPasswordHash)
				return oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
			}
			return oops.Code(CodeInternal).With("operation", "get account by username").Wrap(err)
		}

		if found.IsLocked() {
			return oops.Code(CodeAccountLocked).
				With("locked_until", found.LockedUntil).
				Errorf("account is temporarily locked due to multiple failed login attempts")
		}

		if !s.hasher.Verify(password, found.PasswordHash) {
			found.RecordFailure()
			if err := s.accounts.Update(ctx, found); err != nil {
				return oops.Code(CodeInternal).With("operation", "record login failure").Wrap(err)
			}
			if found.IsLocked() {
				slog.WarnContext(ctx, "account locked", "username", found.Username)
			}
			return oops.Code(CodeInvalidCredentials).
				With("failed_attempts", found.FailedAttempts).
				Errorf("invalid username or password")
		}

		if !found.Verified {
			return oops.Code(CodeNotVerified).
				Errorf("email not verified; verify your email first")
		}

		found.RecordSuccess()
		if err := s.accounts.Update(ctx, found); err != nil {
			return oops.Code(CodeInternal).With("operation", "record login success").Wrap(err)
		}

		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "successful login", "username", account.Username)
	return account, nil
}
