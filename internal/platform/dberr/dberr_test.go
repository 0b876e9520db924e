// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/dberr"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no_rows", pgx.ErrNoRows, http.StatusNotFound, apperr.CodeNotFound},
		{"wrapped_no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), http.StatusNotFound, apperr.CodeNotFound},
		{"unique_violation", &pgconn.PgError{Code: "23505"}, http.StatusConflict, apperr.CodeConflict},
		{"other_pg_error", &pgconn.PgError{Code: "42P01"}, http.StatusInternalServerError, apperr.CodeInternal},
		{"plain_error", errors.New("conn reset"), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := apperr.As(dberr.Wrap(tt.err, "User", "user_find"))
			require.NotNil(t, wrapped)

			assert.Equal(t, tt.wantStatus, wrapped.HTTPStatus)
			assert.Equal(t, tt.wantCode, wrapped.Code)
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "User", "user_find"))
}
