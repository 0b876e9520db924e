// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

/*
Package auth implements identity resolution and the credential lifecycle.

It turns an opaque bearer token into a trusted [sec.Principal] using a
cache-aside read path in front of the durable user store, and owns every
flow that mutates a principal (signup, verification, password reset, role
promotion).

# Architecture

  - Resolver: token -> cache -> store -> principal.
  - Service: lifecycle flows; every store mutation evicts the cache entry.
  - Repository: Postgres (users) and Redis (principal snapshots).
*/
package auth

import (
	"time"

	"github.com/annetade/contacts/internal/platform/sec"
)

// # Domain Entities

// User is the durable record of a principal. It is owned by the store.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsVerified   bool
	AvatarURL    *string
	Role         sec.UserRole
	CreatedAt    time.Time
}

// Principal projects the user onto its public, cacheable shape.
// The password hash never leaves this package through a principal.
func (user *User) Principal() *sec.Principal {
	var avatarURL *string
	if user.AvatarURL != nil {
		url := *user.AvatarURL
		avatarURL = &url
	}

	return &sec.Principal{
		ID:         user.ID,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		AvatarURL:  avatarURL,
		Role:       user.Role,
		CreatedAt:  user.CreatedAt,
	}
}

// # Field Identifiers

const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldUsername    = "username"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldUser        = "user"
	FieldMessage     = "message"
)
