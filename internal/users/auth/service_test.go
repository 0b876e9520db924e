// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/users/auth"
)

// # Signup

func TestSignup_CreatesUnverifiedUser(t *testing.T) {
	f := newFixture(t)

	principal, err := f.service.Signup(context.Background(), auth.SignupInput{Email: "  A@X.com ", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", principal.Email)
	assert.False(t, principal.IsVerified)
	assert.Equal(t, sec.RoleUser, principal.Role)

	stored, ok := f.store.Get(principal.ID)
	require.True(t, ok)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.True(t, f.hasher.Verify(testPassword, stored.PasswordHash))

	// The verification email carries a verification-purpose token for the user.
	message, ok := f.notifier.Last("verification")
	require.True(t, ok)
	assert.Equal(t, "a@x.com", message.Email)

	email, err := f.codec.VerifyEmailToken(message.Token, sec.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Signup(context.Background(), auth.SignupInput{Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)

	for _, email := range []string{"a@x.com", "A@X.COM"} {
		_, err = f.service.Signup(context.Background(), auth.SignupInput{Email: email, Password: testPassword})

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeConflict, appError.Code)
		assert.Equal(t, auth.MsgEmailRegistered, appError.Message)
	}
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad_email", "not-an-email", testPassword},
		{"empty_email", "", testPassword},
		{"short_password", "a@x.com", "pw"},
		{"password_over_72_bytes", "a@x.com", strings.Repeat("p", sec.MaxPasswordBytes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.service.Signup(context.Background(), auth.SignupInput{Email: tt.email, Password: tt.password})

			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
			assert.Zero(t, f.store.Calls("Create"))
		})
	}
}

/*
TestSignup_NotifierFailureDoesNotFail verifies that email delivery is a side effect.
*/
func TestSignup_NotifierFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("smtp down")

	principal, err := f.service.Signup(context.Background(), auth.SignupInput{Email: "a@x.com", Password: testPassword})
	require.NoError(t, err)
	assert.NotZero(t, principal.ID)
}

// # Login

/*
TestLogin_AntiEnumeration verifies that unknown email and wrong password are
indistinguishable.
*/
func TestLogin_AntiEnumeration(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "a@x.com", sec.RoleUser, false)

	_, wrongPassword := f.service.Login(context.Background(), "a@x.com", "wrong-password")
	_, unknownEmail := f.service.Login(context.Background(), "nobody@x.com", testPassword)

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, apperr.As(wrongPassword), apperr.As(unknownEmail))
	assert.Equal(t, auth.MsgInvalidCredentials, wrongPassword.Error())
}

func TestLogin_UnverifiedStillGetsToken(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "a@x.com", sec.RoleUser, false)

	grant, err := f.service.Login(context.Background(), "A@x.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", grant.TokenType)
	assert.Equal(t, f.codec.AccessTTL(), grant.ExpiresIn)

	subject, err := f.codec.VerifyAccess(grant.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", subject)

	// Login never verifies the account.
	stored, _ := f.store.Get(user.ID)
	assert.False(t, stored.IsVerified)
}

// # Verify Email

/*
TestVerifyEmail_InvalidatesCache verifies that a primed snapshot does not
outlive the verification.
*/
func TestVerifyEmail_InvalidatesCache(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "a@x.com", sec.RoleUser, false)
	accessToken := f.accessToken(t, user.ID)

	before, err := f.resolver.Resolve(context.Background(), accessToken)
	require.NoError(t, err)
	require.False(t, before.IsVerified)
	require.True(t, f.cache.Has(user.ID))

	token, err := f.codec.IssueEmailToken("a@x.com", sec.PurposeEmailVerification)
	require.NoError(t, err)
	require.NoError(t, f.service.VerifyEmail(context.Background(), token))

	assert.False(t, f.cache.Has(user.ID))
	assert.Equal(t, []int64{user.ID}, f.cache.Invalidations)

	after, err := f.resolver.Resolve(context.Background(), accessToken)
	require.NoError(t, err)
	assert.True(t, after.IsVerified)
}

/*
TestVerifyEmail_PurposeIsolation verifies that a reset token cannot verify an account.
*/
func TestVerifyEmail_PurposeIsolation(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "a@x.com", sec.RoleUser, false)

	resetToken, err := f.codec.IssueEmailToken("a@x.com", sec.PurposePasswordReset)
	require.NoError(t, err)

	err = f.service.VerifyEmail(context.Background(), resetToken)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeInvalidToken, appError.Code)
	assert.Equal(t, 400, appError.HTTPStatus)

	stored, _ := f.store.Get(user.ID)
	assert.False(t, stored.IsVerified)
	assert.Zero(t, f.store.Calls("MarkVerified"))
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	f := newFixture(t)

	token, err := f.codec.IssueEmailToken("ghost@x.com", sec.PurposeEmailVerification)
	require.NoError(t, err)

	err = f.service.VerifyEmail(context.Background(), token)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestVerifyEmail_EvictsAfterCancellation verifies that invalidation still runs
when the request context is cancelled after the commit.
*/
func TestVerifyEmail_EvictsAfterCancellation(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "a@x.com", sec.RoleUser, false)
	_, err := f.resolver.Resolve(context.Background(), f.accessToken(t, user.ID))
	require.NoError(t, err)

	token, err := f.codec.IssueEmailToken("a@x.com", sec.PurposeEmailVerification)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.service.VerifyEmail(ctx, token))
	assert.False(t, f.cache.Has(user.ID))
}

// # Password Reset

func TestRequestPasswordReset_SameOutcome(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "a@x.com", sec.RoleUser, true)

	assert.NoError(t, f.service.RequestPasswordReset(context.Background(), "nobody@x.com"))
	assert.Empty(t, f.notifier.Messages())

	assert.NoError(t, f.service.RequestPasswordReset(context.Background(), "a@x.com"))

	message, ok := f.notifier.Last("password_reset")
	require.True(t, ok)
	assert.Equal(t, "a@x.com", message.Email)

	email, err := f.codec.VerifyEmailToken(message.Token, sec.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestRequestPasswordReset_MalformedEmail(t *testing.T) {
	f := newFixture(t)

	err := f.service.RequestPasswordReset(context.Background(), "not-an-email")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestResetPassword_ReplacesHashAndEvicts(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "a@x.com", sec.RoleUser, true)
	_, err := f.resolver.Resolve(context.Background(), f.accessToken(t, user.ID))
	require.NoError(t, err)

	token, err := f.codec.IssueEmailToken("a@x.com", sec.PurposePasswordReset)
	require.NoError(t, err)

	require.NoError(t, f.service.ResetPassword(context.Background(), token, "new-secret"))

	assert.False(t, f.cache.Has(user.ID))

	_, err = f.service.Login(context.Background(), "a@x.com", testPassword)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = f.service.Login(context.Background(), "a@x.com", "new-secret")
	assert.NoError(t, err)
}

func TestResetPassword_Failures(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "a@x.com", sec.RoleUser, true)

	verifyToken, err := f.codec.IssueEmailToken("a@x.com", sec.PurposeEmailVerification)
	require.NoError(t, err)
	ghostToken, err := f.codec.IssueEmailToken("ghost@x.com", sec.PurposePasswordReset)
	require.NoError(t, err)
	goodToken, err := f.codec.IssueEmailToken("a@x.com", sec.PurposePasswordReset)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		password string
		wantCode string
	}{
		{"verification_token", verifyToken, "new-secret", apperr.CodeInvalidToken},
		{"garbage_token", "garbage", "new-secret", apperr.CodeInvalidToken},
		{"unknown_user", ghostToken, "new-secret", apperr.CodeNotFound},
		{"short_password", goodToken, "abc", apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.ResetPassword(context.Background(), tt.token, tt.password)
			assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
		})
	}

	assert.Zero(t, f.store.Calls("UpdatePassword"))
}

// # Role Promotion

/*
TestPromoteToAdmin_VisibleOnNextResolution verifies that promotion evicts the
target's snapshot so the very next resolution sees role=admin.
*/
func TestPromoteToAdmin_VisibleOnNextResolution(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "admin@x.com", sec.RoleAdmin, true)
	target := f.seedUser(t, "a@x.com", sec.RoleUser, true)
	targetToken := f.accessToken(t, target.ID)

	before, err := f.resolver.Resolve(context.Background(), targetToken)
	require.NoError(t, err)
	require.Equal(t, sec.RoleUser, before.Role)

	promoted, err := f.service.PromoteToAdmin(context.Background(), admin.Principal(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, promoted.Role)

	after, err := f.resolver.Resolve(context.Background(), targetToken)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, after.Role)
}

func TestPromoteToAdmin_Gate(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "user@x.com", sec.RoleUser, true)
	target := f.seedUser(t, "a@x.com", sec.RoleUser, true)
	admin := f.seedUser(t, "admin@x.com", sec.RoleAdmin, true)

	_, err := f.service.PromoteToAdmin(context.Background(), user.Principal(), target.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = f.service.PromoteToAdmin(context.Background(), nil, target.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = f.service.PromoteToAdmin(context.Background(), admin.Principal(), 404)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	assert.Equal(t, 1, f.store.Calls("UpdateRole"))
	stored, _ := f.store.Get(target.ID)
	assert.Equal(t, sec.RoleUser, stored.Role)
}
