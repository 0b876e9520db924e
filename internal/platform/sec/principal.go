// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package sec

import (
	"time"

	"github.com/annetade/contacts/internal/platform/apperr"
)

// # Resolved Identity

// Principal is the authenticated identity attached to a request.
//
// It is the public projection of a stored account: it never carries the
// password hash. Role and verification status come from the store (or the
// identity cache) on every request and are never read from a token.
type Principal struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	AvatarURL  *string   `json:"avatar_url"`
	Role       UserRole  `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// # Authorization Gate

// RequireRole returns p unchanged when it holds at least role.
//
// A nil principal means identity resolution did not run or failed; that is
// reported as 401 so the gate can never stand in for authentication.
func RequireRole(p *Principal, role UserRole) (*Principal, error) {
	if p == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	if !p.Role.AtLeast(role) {
		return nil, apperr.Forbidden("Only admins can perform this action")
	}

	return p, nil
}

// RequireVerified returns p unchanged when its email address is confirmed.
func RequireVerified(p *Principal) (*Principal, error) {
	if p == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	if !p.IsVerified {
		return nil, apperr.Forbidden("Email not verified")
	}

	return p, nil
}
