// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

// Package sec provides cryptographic primitives, token management and the
// authorization gate.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. It is injected into the application layer through the
// small interfaces declared by its consumers.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Purposes

// TokenPurpose scopes a signed token to exactly one action.
//
// The purpose travels both as the "aud" claim and as an explicit "purpose"
// claim, and both are checked on verification, so a token minted for one
// action is rejected by every other verifier.
type TokenPurpose string

const (
	PurposeAccess            TokenPurpose = "access"
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// Verification failures. Callers map both to their own client-facing error.
var (
	ErrTokenInvalid = errors.New("sec: token invalid")
	ErrTokenExpired = errors.New("sec: token expired")
)

// TokenClaims is the payload embedded in every token this package issues.
//
// Access tokens carry only the subject id. Role and verification state are
// deliberately absent so a role change takes effect on the next request.
type TokenClaims struct {
	jwt.RegisteredClaims

	Purpose TokenPurpose `json:"purpose"`
}

// TokenConfig configures a [TokenCodec].
type TokenConfig struct {
	Secret    string
	Algorithm string
	Issuer    string
	AccessTTL time.Duration
	EmailTTL  time.Duration
}

// TokenCodec issues and verifies HMAC-signed JWTs for the three token classes.
type TokenCodec struct {
	secret    []byte
	method    jwt.SigningMethod
	issuer    string
	accessTTL time.Duration
	emailTTL  time.Duration
	now       func() time.Time
}

// NewTokenCodec validates cfg and returns a ready codec.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("sec: empty signing secret")
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q", cfg.Algorithm)
	}

	if cfg.AccessTTL <= 0 || cfg.EmailTTL <= 0 {
		return nil, fmt.Errorf("sec: token lifetimes must be positive")
	}

	return &TokenCodec{
		secret:    []byte(cfg.Secret),
		method:    method,
		issuer:    cfg.Issuer,
		accessTTL: cfg.AccessTTL,
		emailTTL:  cfg.EmailTTL,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (codec *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	clone := *codec
	clone.now = now
	return &clone
}

// AccessTTL reports the configured access token lifetime.
func (codec *TokenCodec) AccessTTL() time.Duration {
	return codec.accessTTL
}

// # Issuing

// IssueAccess creates a session access token for the given principal id.
func (codec *TokenCodec) IssueAccess(subjectID int64) (string, error) {
	return codec.sign(fmt.Sprintf("%d", subjectID), PurposeAccess, codec.accessTTL)
}

// IssueEmailToken creates a short-lived verification or password-reset token
// bound to email.
func (codec *TokenCodec) IssueEmailToken(email string, purpose TokenPurpose) (string, error) {
	if purpose != PurposeEmailVerification && purpose != PurposePasswordReset {
		return "", fmt.Errorf("sec: %q is not an email token purpose", purpose)
	}
	return codec.sign(email, purpose, codec.emailTTL)
}

func (codec *TokenCodec) sign(subject string, purpose TokenPurpose, timeToLive time.Duration) (string, error) {
	currentTime := codec.now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    codec.issuer,
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(codec.method, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// # Verification

// VerifyAccess checks an access token and returns its subject (the principal
// id as a decimal string).
func (codec *TokenCodec) VerifyAccess(tokenString string) (string, error) {
	claims, err := codec.parse(tokenString, PurposeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyEmailToken checks a lifecycle token against the expected purpose and
// returns the email it was issued for.
func (codec *TokenCodec) VerifyEmailToken(tokenString string, expected TokenPurpose) (string, error) {
	if expected != PurposeEmailVerification && expected != PurposePasswordReset {
		return "", ErrTokenInvalid
	}

	claims, err := codec.parse(tokenString, expected)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (codec *TokenCodec) parse(tokenString string, purpose TokenPurpose) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return codec.secret, nil
		},
		jwt.WithValidMethods([]string{codec.method.Alg()}),
		jwt.WithIssuer(codec.issuer),
		jwt.WithAudience(string(purpose)),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(codec.now),
	)

	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// classify folds jwt parser errors into the two sentinel classes. Expiry is
// only reported for tokens that were otherwise well-formed and correctly
// signed for the expected purpose.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}
