// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/auth"
)

const accountColumns = `id, username, email, password_hash, verified, verification_code, verification_expires, failed_attempts, locked_until, created_at, updated_at`

// AccountRepository implements auth.LockedAccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := querierFromContext(ctx, r.db).Exec(ctx, `
		INSERT INTO accounts (
			id, username, email, password_hash, verified,
			verification_code, verification_expires,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		account.ID.String(),
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Verified,
		account.VerificationCode,
		account.VerificationExpires,
		account.FailedAttempts,
		account.LockedUntil,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_CREATE_CONFLICT").
				With("username", account.Username).
				Wrap(auth.ErrConflict)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := querierFromContext(ctx, r.db).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := querierFromContext(ctx, r.db).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(username) = LOWER($1)`, username)
	return r.wrapUsernameLookup(row, username)
}

// GetByUsernameLocked retrieves an account by username and locks the row for
// the remainder of the transaction in ctx, serializing concurrent
// read-modify-write cycles on the same account.
func (r *AccountRepository) GetByUsernameLocked(ctx context.Context, username string) (*auth.Account, error) {
	row := querierFromContext(ctx, r.db).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(username) = LOWER($1) FOR UPDATE`, username)
	return r.wrapUsernameLookup(row, username)
}

func (r *AccountRepository) wrapUsernameLookup(row pgx.Row, username string) (*auth.Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("username", username).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := querierFromContext(ctx, r.db).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").Wrap(err)
	}
	return account, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	result, err := querierFromContext(ctx, r.db).Exec(ctx, `
		UPDATE accounts SET
			username = $2,
			email = $3,
			password_hash = $4,
			verified = $5,
			verification_code = $6,
			verification_expires = $7,
			failed_attempts = $8,
			locked_until = $9,
			updated_at = $10
		WHERE id = $1
	`,
		account.ID.String(),
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Verified,
		account.VerificationCode,
		account.VerificationExpires,
		account.FailedAttempts,
		account.LockedUntil,
		account.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("id", account.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Count returns the total number of accounts.
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := querierFromContext(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, oops.Code("ACCOUNT_COUNT_FAILED").Wrap(err)
	}
	return count, nil
}

// scanAccount hydrates an Account from a row in accountColumns order.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var a auth.Account
	var idStr string

	err := row.Scan(
		&idStr,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.Verified,
		&a.VerificationCode,
		&a.VerificationExpires,
		&a.FailedAttempts,
		&a.LockedUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse account id").With("id", idStr).Wrap(err)
	}
	return &a, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
