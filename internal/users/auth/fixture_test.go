// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/users/auth"
	"github.com/annetade/contacts/internal/users/auth/authtest"
)

const (
	testSecret   = "test-secret-key-with-enough-entropy"
	testPassword = "pw123456"
	testCacheTTL = 300 * time.Second
)

// fixture bundles a resolver and service over shared in-memory doubles.
type fixture struct {
	store    *authtest.UserStore
	cache    *authtest.UserCache
	notifier *authtest.Notifier
	codec    *sec.TokenCodec
	hasher   *sec.PasswordHasher
	resolver *auth.Resolver
	service  *auth.Service
}

func newCodec(t *testing.T) *sec.TokenCodec {
	t.Helper()

	codec, err := sec.NewTokenCodec(sec.TokenConfig{
		Secret:    testSecret,
		Algorithm: "HS256",
		Issuer:    constants.AuthIssuer,
		AccessTTL: 30 * time.Minute,
		EmailTTL:  15 * time.Minute,
	})
	require.NoError(t, err)
	return codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := sec.NewPasswordHasher(4)
	require.NoError(t, err)

	f := &fixture{
		store:    authtest.NewUserStore(),
		cache:    authtest.NewUserCache(),
		notifier: &authtest.Notifier{},
		codec:    newCodec(t),
		hasher:   hasher,
	}
	f.resolver = auth.NewResolver(f.codec, f.store, f.cache, testCacheTTL)
	f.service = auth.NewService(f.store, f.cache, f.codec, f.hasher, f.notifier)
	return f
}

// seedUser stores a user with testPassword and returns it.
func (f *fixture) seedUser(t *testing.T, email string, role sec.UserRole, verified bool) *auth.User {
	t.Helper()

	hash, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)

	return f.store.Seed(auth.User{
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
		Role:         role,
	})
}

func (f *fixture) accessToken(t *testing.T, id int64) string {
	t.Helper()

	token, err := f.codec.IssueAccess(id)
	require.NoError(t, err)
	return token
}

// pausingStore holds the first FindByID after it has read the row, until
// resume is closed. The row it returns is the one read before the pause.
type pausingStore struct {
	*authtest.UserStore

	loaded chan struct{}
	resume chan struct{}
	once   sync.Once
}

func newPausingStore(store *authtest.UserStore) *pausingStore {
	return &pausingStore{
		UserStore: store,
		loaded:    make(chan struct{}),
		resume:    make(chan struct{}),
	}
}

func (store *pausingStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	user, err := store.UserStore.FindByID(ctx, id)
	store.once.Do(func() {
		close(store.loaded)
		<-store.resume
	})
	return user, err
}

// promoteDuringLookup promotes the target while a resolution of its token is
// paused between the store read and the cache populate. It returns what the
// paused resolution saw and what a fresh one sees afterwards.
func (f *fixture) promoteDuringLookup(t *testing.T, cache auth.UserCache) (inFlight, after *sec.Principal) {
	t.Helper()

	admin := f.seedUser(t, "root@x.com", sec.RoleAdmin, true)
	target := f.seedUser(t, "u@x.com", sec.RoleUser, true)

	store := newPausingStore(f.store)
	resolver := auth.NewResolver(f.codec, store, cache, testCacheTTL)
	service := auth.NewService(f.store, cache, f.codec, f.hasher, f.notifier)
	token := f.accessToken(t, target.ID)

	type result struct {
		principal *sec.Principal
		err       error
	}
	done := make(chan result, 1)
	go func() {
		principal, err := resolver.Resolve(context.Background(), token)
		done <- result{principal, err}
	}()

	<-store.loaded
	_, err := service.PromoteToAdmin(context.Background(), admin.Principal(), target.ID)
	require.NoError(t, err)
	close(store.resume)

	paused := <-done
	require.NoError(t, paused.err)

	after, err = resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	return paused.principal, after
}
