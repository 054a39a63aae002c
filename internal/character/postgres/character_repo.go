// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package postgres implements character persistence using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/character"
)

// DB abstracts the pgx pool so the repository works against *pgxpool.Pool in
// production and pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const characterColumns = `id, account_id, name, description, level, active, created_at, last_login`

// CharacterRepository implements character.Repository using PostgreSQL.
type CharacterRepository struct {
	db DB
}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository(db DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create stores a new character.
func (r *CharacterRepository) Create(ctx context.Context, char *character.Character) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO characters (
			id, account_id, name, description, level, active,
			created_at, last_login
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		char.ID.String(),
		char.AccountID.String(),
		char.Name,
		char.Description,
		char.Level,
		char.Active,
		char.CreatedAt,
		char.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("CHARACTER_NAME_TAKEN").
				With("name", char.Name).
				Wrap(character.ErrNameTaken)
		}
		return oops.Code("CHARACTER_CREATE_FAILED").
			With("operation", "insert character").
			With("name", char.Name).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a character by ID.
func (r *CharacterRepository) GetByID(ctx context.Context, id ulid.ULID) (*character.Character, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id.String())

	char, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CHARACTER_NOT_FOUND").
			With("id", id.String()).
			Wrap(character.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CHARACTER_GET_BY_ID_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	return char, nil
}

// ExistsByName reports whether any character has the given name,
// case-insensitively. Deactivated characters still hold their name.
func (r *CharacterRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM characters WHERE LOWER(name) = LOWER($1))`, name).Scan(&exists)
	if err != nil {
		return false, oops.Code("CHARACTER_EXISTS_FAILED").
			With("name", name).
			Wrap(err)
	}
	return exists, nil
}

// ListByAccount returns the active characters owned by an account, in
// creation order.
func (r *CharacterRepository) ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE account_id = $1 AND active ORDER BY created_at, id`,
		accountID.String())
	if err != nil {
		return nil, oops.Code("CHARACTER_LIST_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var chars []*character.Character
	for rows.Next() {
		char, err := scanCharacter(rows)
		if err != nil {
			return nil, oops.Code("CHARACTER_LIST_FAILED").
				With("operation", "scan character").
				Wrap(err)
		}
		chars = append(chars, char)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CHARACTER_LIST_FAILED").Wrap(err)
	}
	return chars, nil
}

// Update updates an existing character.
func (r *CharacterRepository) Update(ctx context.Context, char *character.Character) error {
	result, err := r.db.Exec(ctx, `
		UPDATE characters SET
			name = $2,
			description = $3,
			level = $4,
			active = $5,
			last_login = $6
		WHERE id = $1
	`,
		char.ID.String(),
		char.Name,
		char.Description,
		char.Level,
		char.Active,
		char.LastLogin,
	)
	if err != nil {
		return oops.Code("CHARACTER_UPDATE_FAILED").
			With("id", char.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CHARACTER_NOT_FOUND").
			With("id", char.ID.String()).
			Wrap(character.ErrNotFound)
	}
	return nil
}

// scanCharacter hydrates a Character from a row in characterColumns order.
func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	var idStr, accountIDStr string

	err := row.Scan(
		&idStr,
		&accountIDStr,
		&c.Name,
		&c.Description,
		&c.Level,
		&c.Active,
		&c.CreatedAt,
		&c.LastLogin,
	)
	if err != nil {
		return nil, err
	}

	c.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse character id").With("id", idStr).Wrap(err)
	}
	c.AccountID, err = ulid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.With("operation", "parse account id").With("id", accountIDStr).Wrap(err)
	}
	return &c, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
