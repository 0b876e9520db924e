// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetade/contacts/internal/platform/apperr"
)

/*
TestConstructors_StatusMapping checks every constructor against its HTTP status.
*/
func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"not_found", apperr.NotFound("User"), http.StatusNotFound, apperr.CodeNotFound},
		{"unauthorized", apperr.Unauthorized("x"), http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"forbidden", apperr.Forbidden("x"), http.StatusForbidden, apperr.CodeForbidden},
		{"conflict", apperr.Conflict("x"), http.StatusConflict, apperr.CodeConflict},
		{"validation", apperr.ValidationError("x"), http.StatusBadRequest, apperr.CodeValidation},
		{"invalid_token", apperr.InvalidToken("x"), http.StatusBadRequest, apperr.CodeInvalidToken},
		{"unprocessable", apperr.Unprocessable("x"), http.StatusUnprocessableEntity, apperr.CodeUnprocessable},
		{"rate_limited", apperr.RateLimited(60), http.StatusTooManyRequests, apperr.CodeRateLimited},
		{"internal", apperr.Internal(errors.New("db down")), http.StatusInternalServerError, apperr.CodeInternal},
		{"unavailable", apperr.ServiceUnavailable("x"), http.StatusServiceUnavailable, apperr.CodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "User not found", apperr.NotFound("User").Error())
}

/*
TestAs_TraversesWrappedChain verifies extraction through fmt.Errorf wrapping.
*/
func TestAs_TraversesWrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", apperr.Conflict("Email already registered"))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeConflict, ae.Code)
	assert.True(t, apperr.IsAppError(wrapped))
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeConflict))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeConflict))
	assert.Nil(t, apperr.As(errors.New("plain")))
}

func TestWithCause_DoesNotMutateOriginal(t *testing.T) {
	base := apperr.Unauthorized("Could not validate credentials")
	cause := errors.New("token expired")

	withCause := base.WithCause(cause)

	assert.Nil(t, base.Cause)
	assert.ErrorIs(t, withCause, cause)
	assert.Equal(t, base.Message, withCause.Message)
}
