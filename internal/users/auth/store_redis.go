// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/ctxutil"
	"github.com/annetade/contacts/internal/platform/sec"
)

// snapshotVersion is bumped whenever userSnapshot changes shape. Entries
// written under another version read as a miss.
const snapshotVersion = 1

// userSnapshot is the fixed schema of a cached principal. It deliberately
// has no password hash field.
type userSnapshot struct {
	Version    int       `json:"v"`
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	AvatarURL  *string   `json:"avatar_url"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

func snapshotOf(principal *sec.Principal) userSnapshot {
	return userSnapshot{
		Version:    snapshotVersion,
		ID:         principal.ID,
		Email:      principal.Email,
		IsVerified: principal.IsVerified,
		AvatarURL:  principal.AvatarURL,
		Role:       string(principal.Role),
		CreatedAt:  principal.CreatedAt,
	}
}

func (snapshot userSnapshot) principal() *sec.Principal {
	return &sec.Principal{
		ID:         snapshot.ID,
		Email:      snapshot.Email,
		IsVerified: snapshot.IsVerified,
		AvatarURL:  snapshot.AvatarURL,
		Role:       sec.UserRole(snapshot.Role),
		CreatedAt:  snapshot.CreatedAt,
	}
}

// # Redis User Cache

// generationTTL bounds how long an eviction stamp is kept. Stamps are random,
// so an expired stamp never matches one read earlier.
const generationTTL = 24 * time.Hour

// putIfCurrent writes KEYS[1] only while KEYS[2] still holds ARGV[1].
// A missing stamp compares as the empty string.
var putIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if not current then current = '' end
if current ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisUserCache implements [UserCache] using Redis string keys with TTL.
type RedisUserCache struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedisUserCache creates a cache whose keys live under namespace,
// normally the deployment environment, so environments sharing one Redis
// never read each other's entries.
func NewRedisUserCache(client redis.UniversalClient, namespace string) *RedisUserCache {
	return &RedisUserCache{client: client, namespace: namespace}
}

// Key returns "<namespace>:user:<id>".
func (cache *RedisUserCache) Key(id int64) string {
	return fmt.Sprintf("%s:%s:%d", cache.namespace, constants.RedisSegmentUser, id)
}

// GenerationKey returns "<namespace>:user:<id>:gen".
func (cache *RedisUserCache) GenerationKey(id int64) string {
	return cache.Key(id) + ":gen"
}

/*
Get loads and decodes a snapshot.

Returns:
  - error: ErrCacheMiss when absent, stale-versioned or for another id
*/
func (cache *RedisUserCache) Get(context context.Context, id int64) (*sec.Principal, error) {
	raw, err := cache.client.Get(context, cache.Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis_user_cache_get_failed: %w", err)
	}

	var snapshot userSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("redis_user_cache_decode_failed: %w", err)
	}

	if snapshot.Version != snapshotVersion || snapshot.ID != id || !sec.UserRole(snapshot.Role).Valid() {
		return nil, ErrCacheMiss
	}

	return snapshot.principal(), nil
}

// Generation reads the eviction stamp, or "" when the user was never evicted.
func (cache *RedisUserCache) Generation(context context.Context, id int64) (string, error) {
	stamp, err := cache.client.Get(context, cache.GenerationKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis_user_cache_generation_failed: %w", err)
	}
	return stamp, nil
}

// Put stores the snapshot with the given TTL when generation is current.
func (cache *RedisUserCache) Put(context context.Context, principal *sec.Principal, generation string, ttl time.Duration) error {
	payload, err := json.Marshal(snapshotOf(principal))
	if err != nil {
		return fmt.Errorf("redis_user_cache_encode_failed: %w", err)
	}

	keys := []string{cache.Key(principal.ID), cache.GenerationKey(principal.ID)}
	written, err := putIfCurrent.Run(context, cache.client, keys, generation, payload, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis_user_cache_set_failed: %w", err)
	}
	if written == 0 {
		return ErrCacheStale
	}
	return nil
}

// Invalidate removes the snapshot and stamps a fresh generation in one transaction.
func (cache *RedisUserCache) Invalidate(context context.Context, id int64) error {
	_, err := cache.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.Set(context, cache.GenerationKey(id), uuid.NewString(), generationTTL)
		pipe.Del(context, cache.Key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_user_cache_delete_failed: %w", err)
	}
	return nil
}

// # Disabled Cache

// NopUserCache is used when no cache backend is configured. Every read misses.
type NopUserCache struct{}

func (NopUserCache) Get(context.Context, int64) (*sec.Principal, error) { return nil, ErrCacheMiss }

func (NopUserCache) Generation(context.Context, int64) (string, error) { return "", nil }

func (NopUserCache) Put(context.Context, *sec.Principal, string, time.Duration) error { return nil }

func (NopUserCache) Invalidate(context.Context, int64) error { return nil }

// # Eviction

/*
EvictUser invalidates the cache entry after a committed store write.

The delete runs on a context detached from the caller's cancellation and
bounded by [constants.CacheInvalidationTimeout], so a client disconnecting
right after the commit does not leave a stale snapshot behind. Failures are
logged and swallowed: the entry still expires at its TTL.
*/
func EvictUser(ctx context.Context, cache UserCache, id int64) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.CacheInvalidationTimeout)
	defer cancel()

	if err := cache.Invalidate(detached, id); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "user_cache_invalidate_failed",
			slog.Int64("user_id", id),
			slog.Any("error", err),
		)
	}
}
