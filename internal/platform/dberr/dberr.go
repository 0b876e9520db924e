// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/annetade/contacts/internal/platform/apperr"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Parameters
//   - err: the raw driver error
//   - resource: the entity name used in NotFound/Conflict messages (e.g. "User")
//   - action: a snake_case label for the failed operation, kept in the cause for logs
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	cause := fmt.Errorf("%s_failed: %w", action, err)

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource).WithCause(cause)
	}

	// 2. Unique constraint violations become conflicts
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == uniqueViolation {
		return apperr.Conflict(resource + " already exists").WithCause(cause)
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(cause)
}
