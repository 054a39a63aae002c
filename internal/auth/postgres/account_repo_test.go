// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embergate/embergate/internal/auth"
	"github.com/embergate/embergate/internal/auth/postgres"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func accountRows(a *auth.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "verified",
		"verification_code", "verification_expires",
		"failed_attempts", "locked_until", "created_at", "updated_at",
	}).AddRow(
		a.ID.String(), a.Username, a.Email, a.PasswordHash, a.Verified,
		a.VerificationCode, a.VerificationExpires,
		a.FailedAttempts, a.LockedUntil, a.CreatedAt, a.UpdatedAt,
	)
}

func testAccount(t *testing.T) *auth.Account {
	t.Helper()
	account, err := auth.NewAccount("alice", "a@x.com", "digest")
	require.NoError(t, err)
	return account
}

func TestAccountRepositoryCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts account", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)

		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(
				account.ID.String(), account.Username, account.Email,
				account.PasswordHash, account.Verified,
				account.VerificationCode, account.VerificationExpires,
				account.FailedAttempts, account.LockedUntil,
				account.CreatedAt, account.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewAccountRepository(mock)
		require.NoError(t, repo.Create(ctx, account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to conflict", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)

		mock.ExpectExec(`INSERT INTO accounts`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := postgres.NewAccountRepository(mock)
		err := repo.Create(ctx, account)
		assert.ErrorIs(t, err, auth.ErrConflict)
	})
}

func TestAccountRepositoryGetByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hydrated account", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)
		account.FailedAttempts = 3
		locked := time.Now().Add(5 * time.Minute)
		account.LockedUntil = &locked

		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE LOWER\(username\)`).
			WithArgs("alice").
			WillReturnRows(accountRows(account))

		repo := postgres.NewAccountRepository(mock)
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, 3, got.FailedAttempts)
		require.NotNil(t, got.LockedUntil)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE LOWER\(username\)`).
			WithArgs("nobody").
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		repo := postgres.NewAccountRepository(mock)
		_, err := repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("locked variant issues FOR UPDATE", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)

		mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE LOWER\(username\) = LOWER\(\$1\) FOR UPDATE`).
			WithArgs("alice").
			WillReturnRows(accountRows(account))

		repo := postgres.NewAccountRepository(mock)
		_, err := repo.GetByUsernameLocked(ctx, "alice")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepositoryUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("updates existing account", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)

		mock.ExpectExec(`UPDATE accounts SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewAccountRepository(mock)
		assert.NoError(t, repo.Update(ctx, account))
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)

		mock.ExpectExec(`UPDATE accounts SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewAccountRepository(mock)
		err := repo.Update(ctx, account)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestAccountRepositoryCount(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	repo := postgres.NewAccountRepository(mock)
	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestTransactor(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		tx := postgres.NewTransactor(mock)
		err := tx.InTransaction(ctx, func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		tx := postgres.NewTransactor(mock)
		err := tx.InTransaction(ctx, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repository joins the transaction", func(t *testing.T) {
		mock := newMock(t)
		account := testAccount(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FOR UPDATE`).
			WithArgs("alice").
			WillReturnRows(accountRows(account))
		mock.ExpectExec(`UPDATE accounts SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		tx := postgres.NewTransactor(mock)
		repo := postgres.NewAccountRepository(mock)

		err := tx.InTransaction(ctx, func(ctx context.Context) error {
			got, err := repo.GetByUsernameLocked(ctx, "alice")
			if err != nil {
				return err
			}
			got.RecordFailure()
			return repo.Update(ctx, got)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
