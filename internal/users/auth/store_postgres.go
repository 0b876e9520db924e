// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/annetade/contacts/internal/platform/dberr"
	"github.com/annetade/contacts/internal/platform/postgres"
	"github.com/annetade/contacts/internal/platform/sec"
)

// resourceUser names the entity in NotFound and Conflict messages.
const resourceUser = "User"

// userColumns is the projection shared by every query that hydrates a [User].
const userColumns = `id, email, password_hash, is_verified, avatar_url, role, created_at`

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db postgres.DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user User
		role string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.AvatarURL,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = sec.UserRole(role)
	return &user, nil
}

/*
Create inserts a new row and hydrates the generated ID and timestamp.

Returns:
  - error: apperr.Conflict when the email is taken, else storage failures
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (email, password_hash, is_verified, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := repository.db.QueryRow(context, query,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)

	return dberr.Wrap(err, resourceUser, "postgres_user_create")
}

// FindByID retrieves a user by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_find_by_id")
	}
	return user, nil
}

// FindByEmail retrieves a user by the unique, normalised email.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(repository.db.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_find_by_email")
	}
	return user, nil
}

// MarkVerified flips is_verified and returns the committed row.
func (repository *PostgresUserRepository) MarkVerified(context context.Context, id int64) (*User, error) {
	const query = `UPDATE users SET is_verified = TRUE WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_mark_verified")
	}
	return user, nil
}

// UpdatePassword replaces the password hash.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, id int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`

	tag, err := repository.db.Exec(context, query, id, passwordHash)
	if err != nil {
		return dberr.Wrap(err, resourceUser, "postgres_user_update_password")
	}

	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resourceUser, "postgres_user_update_password")
	}
	return nil
}

// UpdateRole replaces the role and returns the committed row.
func (repository *PostgresUserRepository) UpdateRole(context context.Context, id int64, role sec.UserRole) (*User, error) {
	const query = `UPDATE users SET role = $2 WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(repository.db.QueryRow(context, query, id, string(role)))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_update_role")
	}
	return user, nil
}

// UpdateAvatar replaces the avatar URL and returns the committed row.
func (repository *PostgresUserRepository) UpdateAvatar(context context.Context, id int64, avatarURL string) (*User, error) {
	const query = `UPDATE users SET avatar_url = $2 WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(repository.db.QueryRow(context, query, id, avatarURL))
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser, "postgres_user_update_avatar")
	}
	return user, nil
}
