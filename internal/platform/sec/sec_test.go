// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/sec"
)

/*
TestPasswordHasher_Reflexive verifies verify(p, hash(p)) for a spread of inputs.
*/
func TestPasswordHasher_Reflexive(t *testing.T) {
	hasher, err := sec.NewPasswordHasher(4)
	require.NoError(t, err)

	passwords := []string{"pw123456", "string123", "ünïcødé-パスワード", " spaced out ", strings.Repeat("a", sec.MaxPasswordBytes)}

	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		require.NoError(t, err)

		assert.NotEqual(t, password, hash)
		assert.True(t, hasher.Verify(password, hash))
		assert.False(t, hasher.Verify(password+"x", hash))
		assert.False(t, hasher.Verify("wrong", hash))
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	hasher, err := sec.NewPasswordHasher(4)
	require.NoError(t, err)

	first, err := hasher.Hash("pw123456")
	require.NoError(t, err)
	second, err := hasher.Hash("pw123456")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_RejectsGarbageHash(t *testing.T) {
	hasher, err := sec.NewPasswordHasher(4)
	require.NoError(t, err)

	assert.False(t, hasher.Verify("pw123456", "x"))
	assert.False(t, hasher.Verify("pw123456", ""))

	// Equalize must never panic regardless of input.
	hasher.Equalize("anything")
}

func TestNewPasswordHasher_CostRange(t *testing.T) {
	_, err := sec.NewPasswordHasher(2)
	assert.Error(t, err)

	_, err = sec.NewPasswordHasher(40)
	assert.Error(t, err)
}

func TestUserRole_AtLeast(t *testing.T) {
	tests := []struct {
		role   sec.UserRole
		target sec.UserRole
		want   bool
	}{
		{sec.RoleAdmin, sec.RoleAdmin, true},
		{sec.RoleAdmin, sec.RoleUser, true},
		{sec.RoleUser, sec.RoleUser, true},
		{sec.RoleUser, sec.RoleAdmin, false},
		{sec.UserRole("root"), sec.RoleUser, false},
		{sec.UserRole(""), sec.UserRole(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.target))
		})
	}
}

/*
TestRequireRole distinguishes 401 (no principal) from 403 (insufficient role).
*/
func TestRequireRole(t *testing.T) {
	admin := &sec.Principal{ID: 1, Role: sec.RoleAdmin, IsVerified: true}
	user := &sec.Principal{ID: 2, Role: sec.RoleUser, IsVerified: true}

	got, err := sec.RequireRole(admin, sec.RoleAdmin)
	require.NoError(t, err)
	assert.Same(t, admin, got)

	_, err = sec.RequireRole(user, sec.RoleAdmin)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = sec.RequireRole(nil, sec.RoleAdmin)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

func TestRequireVerified(t *testing.T) {
	verified := &sec.Principal{ID: 1, IsVerified: true, Role: sec.RoleUser}
	pending := &sec.Principal{ID: 2, IsVerified: false, Role: sec.RoleAdmin}

	got, err := sec.RequireVerified(verified)
	require.NoError(t, err)
	assert.Same(t, verified, got)

	_, err = sec.RequireVerified(pending)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = sec.RequireVerified(nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}
