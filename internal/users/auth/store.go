// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/annetade/contacts/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for the durable user store.
//
// Lookups return apperr.NotFound when no row matches. Updates report the
// post-commit row so callers never need a second read.
type UserRepository interface {

	/*
		FindByID returns the user with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByEmail returns the user with the given normalised email.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a new user and fills in its ID and CreatedAt.

		Returns:
		  - error: apperr.Conflict on duplicate email, or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		MarkVerified sets is_verified = true.

		Returns:
		  - *User: Row after the update
		  - error: apperr.NotFound or storage failures
	*/
	MarkVerified(context context.Context, id int64) (*User, error)

	/*
		UpdatePassword replaces only the password hash.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdatePassword(context context.Context, id int64, passwordHash string) error

	/*
		UpdateRole replaces the role.

		Returns:
		  - *User: Row after the update
		  - error: apperr.NotFound or storage failures
	*/
	UpdateRole(context context.Context, id int64, role sec.UserRole) (*User, error)

	/*
		UpdateAvatar replaces the avatar URL.

		Returns:
		  - *User: Row after the update
		  - error: apperr.NotFound or storage failures
	*/
	UpdateAvatar(context context.Context, id int64, avatarURL string) (*User, error)
}

// # Principal Cache

// ErrCacheMiss is returned by [UserCache.Get] when no snapshot is stored.
var ErrCacheMiss = errors.New("auth: user cache miss")

// ErrCacheStale is returned by [UserCache.Put] when the entry was evicted
// after the caller read its generation. Nothing is written.
var ErrCacheStale = errors.New("auth: user cache generation changed")

// UserCache is a cache-aside store of principal snapshots keyed by user ID.
//
// It never writes through to the store. Callers populate it after a miss and
// evict entries after every store mutation. Every eviction also moves the
// user's generation, so a populate that read the store before the eviction
// cannot put its older row back.
type UserCache interface {

	/*
		Get returns the cached principal.

		Returns:
		  - error: ErrCacheMiss when absent, other errors on backend failure
	*/
	Get(context context.Context, id int64) (*sec.Principal, error)

	/*
		Generation returns the user's current eviction stamp. Read it before
		loading the row that will be passed to Put.
	*/
	Generation(context context.Context, id int64) (string, error)

	/*
		Put stores a snapshot of the principal for ttl, but only while the
		user's generation still equals generation.

		Returns:
		  - error: ErrCacheStale when an eviction ran in between, other errors on backend failure
	*/
	Put(context context.Context, principal *sec.Principal, generation string, ttl time.Duration) error

	// Invalidate deletes the snapshot and moves the generation. Deleting an
	// absent key is not an error.
	Invalidate(context context.Context, id int64) error
}

// # Notifications

// Notifier delivers lifecycle emails. Implementations must not block the
// caller on delivery.
type Notifier interface {
	SendVerification(context context.Context, email, token string) error
	SendPasswordReset(context context.Context, email, token string) error
}
