// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/users/auth"
)

func newRedisCache(t *testing.T, namespace string) (*auth.RedisUserCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return auth.NewRedisUserCache(client, namespace), server
}

func samplePrincipal() *sec.Principal {
	avatar := "https://cdn.example/avatars/7"
	return &sec.Principal{
		ID:         7,
		Email:      "a@x.com",
		IsVerified: true,
		AvatarURL:  &avatar,
		Role:       sec.RoleAdmin,
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisUserCache_RoundTrip(t *testing.T) {
	cache, server := newRedisCache(t, "test")
	principal := samplePrincipal()

	require.NoError(t, cache.Put(context.Background(), principal, "", 300*time.Second))

	assert.Equal(t, "test:user:7", cache.Key(7))
	assert.True(t, server.Exists("test:user:7"))
	assert.Equal(t, 300*time.Second, server.TTL("test:user:7"))

	got, err := cache.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

/*
TestRedisUserCache_NoPasswordHash verifies the stored payload shape.
*/
func TestRedisUserCache_NoPasswordHash(t *testing.T) {
	cache, server := newRedisCache(t, "test")
	require.NoError(t, cache.Put(context.Background(), samplePrincipal(), "", time.Minute))

	raw, err := server.Get("test:user:7")
	require.NoError(t, err)
	assert.NotContains(t, raw, "password")
	assert.Contains(t, raw, `"role":"admin"`)
}

func TestRedisUserCache_MissAndInvalidate(t *testing.T) {
	cache, _ := newRedisCache(t, "test")

	_, err := cache.Get(context.Background(), 7)
	assert.ErrorIs(t, err, auth.ErrCacheMiss)

	require.NoError(t, cache.Put(context.Background(), samplePrincipal(), "", time.Minute))
	require.NoError(t, cache.Invalidate(context.Background(), 7))

	_, err = cache.Get(context.Background(), 7)
	assert.ErrorIs(t, err, auth.ErrCacheMiss)

	// Invalidating an absent key is fine.
	assert.NoError(t, cache.Invalidate(context.Background(), 7))
}

func TestRedisUserCache_Expiry(t *testing.T) {
	cache, server := newRedisCache(t, "test")
	require.NoError(t, cache.Put(context.Background(), samplePrincipal(), "", 300*time.Second))

	server.FastForward(299 * time.Second)
	_, err := cache.Get(context.Background(), 7)
	require.NoError(t, err)

	server.FastForward(2 * time.Second)
	_, err = cache.Get(context.Background(), 7)
	assert.ErrorIs(t, err, auth.ErrCacheMiss)
}

/*
TestRedisUserCache_EnvironmentIsolation verifies that two environments sharing
one backend never read each other's entries.
*/
func TestRedisUserCache_EnvironmentIsolation(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	testEnv := auth.NewRedisUserCache(client, "test")
	production := auth.NewRedisUserCache(client, "production")

	require.NoError(t, testEnv.Put(context.Background(), samplePrincipal(), "", time.Minute))

	_, err := production.Get(context.Background(), 7)
	assert.ErrorIs(t, err, auth.ErrCacheMiss)

	require.NoError(t, production.Invalidate(context.Background(), 7))
	_, err = testEnv.Get(context.Background(), 7)
	assert.NoError(t, err)
}

func TestRedisUserCache_ShapeDrift(t *testing.T) {
	cache, server := newRedisCache(t, "test")

	tests := []struct {
		name    string
		payload string
	}{
		{"old_version", `{"v":0,"id":7,"email":"a@x.com","role":"admin"}`},
		{"id_mismatch", `{"v":1,"id":8,"email":"a@x.com","role":"admin"}`},
		{"unknown_role", `{"v":1,"id":7,"email":"a@x.com","role":"root"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, server.Set("test:user:7", tt.payload))

			_, err := cache.Get(context.Background(), 7)
			assert.ErrorIs(t, err, auth.ErrCacheMiss)
		})
	}

	require.NoError(t, server.Set("test:user:7", "{not json"))
	_, err := cache.Get(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrCacheMiss)
}

/*
TestResolve_WithRedis verifies the cache-aside path end to end against a real
protocol implementation, including fallback when the backend disappears.
*/
func TestResolve_WithRedis(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "a@x.com", sec.RoleUser, true)
	cache, server := newRedisCache(t, "test")
	resolver := auth.NewResolver(f.codec, f.store, cache, testCacheTTL)
	token := f.accessToken(t, user.ID)

	_, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Calls("FindByID"))
	assert.Equal(t, testCacheTTL, server.TTL("test:user:1"))

	server.Close()

	principal, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, 2, f.store.Calls("FindByID"))
}

func TestRedisUserCache_PutAfterEvictionIsDropped(t *testing.T) {
	cache, server := newRedisCache(t, "test")

	generation, err := cache.Generation(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, generation)

	require.NoError(t, cache.Invalidate(context.Background(), 7))
	assert.True(t, server.Exists("test:user:7:gen"))

	err = cache.Put(context.Background(), samplePrincipal(), generation, time.Minute)
	assert.ErrorIs(t, err, auth.ErrCacheStale)
	assert.False(t, server.Exists("test:user:7"))

	current, err := cache.Generation(context.Background(), 7)
	require.NoError(t, err)
	assert.NotEqual(t, generation, current)
	require.NoError(t, cache.Put(context.Background(), samplePrincipal(), current, time.Minute))
	assert.True(t, server.Exists("test:user:7"))
}

/*
TestResolve_WithRedis_EvictionDuringLookup runs the promotion race against the
Redis cache.
*/
func TestResolve_WithRedis_EvictionDuringLookup(t *testing.T) {
	f := newFixture(t)
	cache, server := newRedisCache(t, "test")

	inFlight, after := f.promoteDuringLookup(t, cache)

	assert.Equal(t, sec.RoleUser, inFlight.Role)
	assert.Equal(t, sec.RoleAdmin, after.Role)

	raw, err := server.Get("test:user:2")
	require.NoError(t, err)
	assert.Contains(t, raw, `"role":"admin"`)
}
