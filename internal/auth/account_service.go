// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Mailer delivers a plaintext verification code out-of-band. Delivery is best
// effort; failures are logged by the caller and never block signup.
type Mailer interface {
	SendVerificationCode(ctx context.Context, recipient, code string) error
}

// AccountService handles signup and email verification.
type AccountService struct {
	accounts AccountRepository
	tx       Transactor
	hasher   CredentialHasher
	mailer   Mailer
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts AccountRepository, tx Transactor, hasher CredentialHasher, mailer Mailer) *AccountService {
	return &AccountService{
		accounts: accounts,
		tx:       tx,
		hasher:   hasher,
		mailer:   mailer,
	}
}

// Signup registers a new unverified account and dispatches a verification
// code to the given email address. Mail failure never fails the signup.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code(CodeInternal).With("operation", "hash password").Wrap(err)
	}

	code, err := GenerateVerificationCode()
	if err != nil {
		return nil, oops.Code(CodeInternal).With("operation", "generate verification code").Wrap(err)
	}
	codeDigest, err := s.hasher.Hash(code)
	if err != nil {
		return nil, oops.Code(CodeInternal).With("operation", "hash verification code").Wrap(err)
	}

	account, err := NewAccount(username, normalized, passwordHash)
	if err != nil {
		return nil, err
	}
	account.SetVerificationCode(codeDigest, time.Now().Add(VerificationCodeExpiry))

	// Uniqueness checks and the insert share one transaction so a losing
	// racer observes the conflict, not a partially created account.
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
			return oops.Code(CodeUsernameTaken).
				With("username", username).
				Wrap(ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return oops.Code(CodeInternal).With("operation", "check username").Wrap(err)
		}

		if _, err := s.accounts.GetByEmail(ctx, normalized); err == nil {
			return oops.Code(CodeEmailTaken).Wrap(ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return oops.Code(CodeInternal).With("operation", "check email").Wrap(err)
		}

		if err := s.accounts.Create(ctx, account); err != nil {
			if errors.Is(err, ErrConflict) {
				return oops.Code(CodeUsernameTaken).
					With("username", username).
					Wrap(ErrConflict)
			}
			return oops.Code(CodeInternal).With("operation", "create account").Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Mail dispatch happens outside the transaction and outside any lock.
	if err := s.mailer.SendVerificationCode(ctx, account.Email, code); err != nil {
		slog.WarnContext(ctx, "verification mail dispatch failed",
			"account_id", account.ID.String(),
			"error", err,
		)
	}

	slog.InfoContext(ctx, "new account registered", "username", username)
	return account, nil
}

// VerifyEmail confirms ownership of an email address with a pending code.
// Verifying an already-verified account succeeds idempotently.
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetByEmail(ctx, normalized)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code(CodeAccountNotFound).Wrap(ErrNotFound)
			}
			return oops.Code(CodeInternal).With("operation", "get account by email").Wrap(err)
		}

		if account.Verified {
			return nil
		}
		if account.VerificationCode == nil {
			return oops.Code(CodeNoCode).
				Errorf("no verification code found; request a new one")
		}
		if account.VerificationExpires != nil && time.Now().After(*account.VerificationExpires) {
			return oops.Code(CodeCodeExpired).
				Errorf("verification code expired; request a new one")
		}
		if !s.hasher.Verify(code, *account.VerificationCode) {
			return oops.Code(CodeCodeMismatch).Errorf("invalid verification code")
		}

		account.MarkVerified()
		if err := s.accounts.Update(ctx, account); err != nil {
			return oops.Code(CodeInternal).With("operation", "mark verified").Wrap(err)
		}

		slog.InfoContext(ctx, "email verified", "account_id", account.ID.String())
		return nil
	})
}

// ResendVerification regenerates the pending code and redispatches mail.
// An already-verified account succeeds without generating a new code.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	var code string
	var recipient string
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetByEmail(ctx, normalized)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code(CodeAccountNotFound).Wrap(ErrNotFound)
			}
			return oops.Code(CodeInternal).With("operation", "get account by email").Wrap(err)
		}

		if account.Verified {
			return nil
		}

		code, err = GenerateVerificationCode()
		if err != nil {
			return oops.Code(CodeInternal).With("operation", "generate verification code").Wrap(err)
		}
		digest, err := s.hasher.Hash(code)
		if err != nil {
			return oops.Code(CodeInternal).With("operation", "hash verification code").Wrap(err)
		}

		account.SetVerificationCode(digest, time.Now().Add(VerificationCodeExpiry))
		if err := s.accounts.Update(ctx, account); err != nil {
			return oops.Code(CodeInternal).With("operation", "store verification code").Wrap(err)
		}
		recipient = account.Email
		return nil
	})
	if err != nil {
		return err
	}

	// Verified accounts fall through with no code to send.
	if code == "" {
		return nil
	}

	if err := s.mailer.SendVerificationCode(ctx, recipient, code); err != nil {
		slog.WarnContext(ctx, "verification mail dispatch failed", "error", err)
	}
	return nil
}
