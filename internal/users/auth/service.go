// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/ctxutil"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/platform/validate"
)

// # Contracts & Types

// Service implements the credential lifecycle flows.
//
// # Cache discipline
//
// Every method that commits a change to a user row evicts that user's
// cache entry afterwards via [EvictUser]. A new flow that writes to the
// store without evicting is a bug.
type Service struct {
	users    UserRepository
	cache    UserCache
	codec    *sec.TokenCodec
	hasher   *sec.PasswordHasher
	notifier Notifier
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	users UserRepository,
	cache UserCache,
	codec *sec.TokenCodec,
	hasher *sec.PasswordHasher,
	notifier Notifier,
) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		codec:    codec,
		hasher:   hasher,
		notifier: notifier,
	}
}

// validatePassword applies the signup and reset password policy.
func validatePassword(validator *validate.Validator, password string) *validate.Validator {
	return validator.
		Required(FieldPassword, password).
		MinLen(FieldPassword, password, constants.MinPasswordLength).
		MaxBytes(FieldPassword, password, sec.MaxPasswordBytes)
}

// # Registration Flow

// SignupInput holds the data required to create an account.
type SignupInput struct {
	Email    string
	Password string
}

/*
Signup validates, hashes, and persists a new unverified user.

Description: The verification email is handed to the notifier after the
commit. Delivery failures are logged and never fail the signup.

Returns:
  - *sec.Principal: The created user's public projection
  - error: ValidationError, Conflict (email taken) or storage errors
*/
func (service *Service) Signup(ctx context.Context, input SignupInput) (*sec.Principal, error) {
	email := validate.NormalizeEmail(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := validatePassword(validator, input.Password).Err(); err != nil {
		return nil, err
	}

	// 1. Uniqueness pre-check. The unique index settles races.
	if _, err := service.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(MsgEmailRegistered)
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// 2. Persist as unverified member
	user := &User{
		Email:        email,
		PasswordHash: passwordHash,
		IsVerified:   false,
		Role:         sec.RoleUser,
	}

	if err := service.users.Create(ctx, user); err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict(MsgEmailRegistered).WithCause(err)
		}
		return nil, err
	}

	// 3. Side effect: verification email
	service.notify(ctx, user.Email, sec.PurposeEmailVerification)

	return user.Principal(), nil
}

// # Authentication Flow

// AccessGrant is a successfully issued access token.
type AccessGrant struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

/*
Login checks credentials and issues an access token.

Description: Unknown email and wrong password return the same error, and the
unknown-email path still spends one bcrypt comparison. Login never verifies
or creates an account.

Returns:
  - *AccessGrant: Bearer token and lifetime
  - error: apperr.Unauthorized (generic) or storage errors
*/
func (service *Service) Login(ctx context.Context, email, password string) (*AccessGrant, error) {
	user, err := service.users.FindByEmail(ctx, validate.NormalizeEmail(email))
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		service.hasher.Equalize(password)
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	if !service.hasher.Verify(password, user.PasswordHash) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	token, err := service.codec.IssueAccess(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &AccessGrant{
		AccessToken: token,
		TokenType:   constants.TokenTypeBearer,
		ExpiresIn:   service.codec.AccessTTL(),
	}, nil
}

// # Verification Flow

/*
VerifyEmail marks the account named by a verification token as verified.

Returns:
  - error: InvalidToken (bad, expired or wrong-purpose), NotFound, storage errors
*/
func (service *Service) VerifyEmail(ctx context.Context, token string) error {
	user, err := service.userFromToken(ctx, token, sec.PurposeEmailVerification)
	if err != nil {
		return err
	}

	if _, err := service.users.MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	EvictUser(ctx, service.cache, user.ID)
	return nil
}

// # Recovery Flow

/*
RequestPasswordReset issues a reset token when the account exists.

Description: The outcome seen by the caller does not depend on whether the
email is registered.

Returns:
  - error: ValidationError for a malformed address, or storage errors
*/
func (service *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = validate.NormalizeEmail(email)

	validator := &validate.Validator{}
	if err := validator.Required(FieldEmail, email).Email(FieldEmail, email).Err(); err != nil {
		return err
	}

	user, err := service.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil
		}
		return err
	}

	service.notify(ctx, user.Email, sec.PurposePasswordReset)
	return nil
}

/*
ResetPassword replaces the password of the account named by a reset token.

Returns:
  - error: ValidationError, InvalidToken, NotFound or storage errors
*/
func (service *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(&validate.Validator{}, newPassword).Err(); err != nil {
		return err
	}

	user, err := service.userFromToken(ctx, token, sec.PurposePasswordReset)
	if err != nil {
		return err
	}

	passwordHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}

	EvictUser(ctx, service.cache, user.ID)
	return nil
}

// # Role Management

/*
PromoteToAdmin grants the admin role to the target user.

Description: The caller is gated again here so the flow is safe even if a
route forgets the middleware.

Returns:
  - *sec.Principal: Target after promotion
  - error: Unauthorized, Forbidden, NotFound (target) or storage errors
*/
func (service *Service) PromoteToAdmin(ctx context.Context, caller *sec.Principal, targetID int64) (*sec.Principal, error) {
	if _, err := sec.RequireRole(caller, sec.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := service.users.UpdateRole(ctx, targetID, sec.RoleAdmin)
	if err != nil {
		return nil, err
	}

	EvictUser(ctx, service.cache, user.ID)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_promoted_to_admin",
		slog.Int64("caller_id", caller.ID),
		slog.Int64("target_id", user.ID),
	)

	return user.Principal(), nil
}

// # Helpers

// userFromToken decodes a lifecycle token of the expected purpose and loads its user.
func (service *Service) userFromToken(ctx context.Context, token string, purpose sec.TokenPurpose) (*User, error) {
	email, err := service.codec.VerifyEmailToken(token, purpose)
	if err != nil {
		return nil, apperr.InvalidToken(MsgInvalidToken).WithCause(err)
	}

	return service.users.FindByEmail(ctx, email)
}

// notify issues a lifecycle token and hands it to the notifier.
// Failures are logged; the primary operation has already committed.
func (service *Service) notify(ctx context.Context, email string, purpose sec.TokenPurpose) {
	logger := ctxutil.GetLogger(ctx)

	token, err := service.codec.IssueEmailToken(email, purpose)
	if err != nil {
		logger.ErrorContext(ctx, "email_token_issue_failed", slog.String("purpose", string(purpose)), slog.Any("error", err))
		return
	}

	switch purpose {
	case sec.PurposeEmailVerification:
		err = service.notifier.SendVerification(ctx, email, token)
	case sec.PurposePasswordReset:
		err = service.notifier.SendPasswordReset(ctx, email, token)
	}

	if err != nil {
		logger.WarnContext(ctx, "notifier_dispatch_failed", slog.String("purpose", string(purpose)), slog.Any("error", err))
	}
}
