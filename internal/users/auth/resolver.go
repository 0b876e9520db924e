// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/ctxutil"
	"github.com/annetade/contacts/internal/platform/sec"
)

// # Identity Resolution

// Resolver turns an access token into a principal, reading through the
// [UserCache] before the [UserRepository].
//
// Role and verification status always come from the resolved record. The
// token only ever contributes the subject id.
type Resolver struct {
	codec    *sec.TokenCodec
	users    UserRepository
	cache    UserCache
	cacheTTL time.Duration
}

// NewResolver wires the resolver. Pass [NopUserCache] to run store-only.
func NewResolver(codec *sec.TokenCodec, users UserRepository, cache UserCache, cacheTTL time.Duration) *Resolver {
	return &Resolver{
		codec:    codec,
		users:    users,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// errCouldNotValidate is returned for every token and subject failure so the
// caller cannot tell which check rejected it.
func errCouldNotValidate(cause error) error {
	return apperr.Unauthorized(MsgCouldNotValidate).WithCause(cause)
}

/*
Resolve validates the token and loads the principal it names.

Description: A cache hit returns without touching the store. On a miss the
store is queried and the public projection is cached for the configured TTL,
unless the user was evicted while the query ran.
Cache backend errors degrade to the store path and are only logged.

Returns:
  - *sec.Principal: Resolved identity
  - error: apperr.Unauthorized (generic) or apperr.Internal on store failure
*/
func (resolver *Resolver) Resolve(ctx context.Context, token string) (*sec.Principal, error) {
	logger := ctxutil.GetLogger(ctx)

	// 1. Decode the token. Expired, forged and malformed all look the same outside.
	subject, err := resolver.codec.VerifyAccess(token)
	if err != nil {
		return nil, errCouldNotValidate(err)
	}

	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, errCouldNotValidate(errors.New("auth: non-integer subject"))
	}

	// 2. Cache hit never touches the store
	principal, err := resolver.cache.Get(ctx, id)
	if err == nil {
		return principal, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.WarnContext(ctx, "user_cache_get_failed", slog.Int64("user_id", id), slog.Any("error", err))
	}

	// 3. Stamp the generation before reading the store, so an eviction that
	// lands while this lookup is in flight turns the Put below into a no-op.
	generation, genErr := resolver.cache.Generation(ctx, id)
	if genErr != nil {
		logger.WarnContext(ctx, "user_cache_generation_failed", slog.Int64("user_id", id), slog.Any("error", genErr))
	}

	// 4. Miss: the store is authoritative
	user, err := resolver.users.FindByID(ctx, id)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, errCouldNotValidate(err)
		}
		return nil, err
	}

	// 5. Populate with the public projection
	principal = user.Principal()
	if genErr == nil {
		switch err := resolver.cache.Put(ctx, principal, generation, resolver.cacheTTL); {
		case errors.Is(err, ErrCacheStale):
			logger.DebugContext(ctx, "user_cache_put_skipped", slog.Int64("user_id", id))
		case err != nil:
			logger.WarnContext(ctx, "user_cache_put_failed", slog.Int64("user_id", id), slog.Any("error", err))
		}
	}

	return principal, nil
}
