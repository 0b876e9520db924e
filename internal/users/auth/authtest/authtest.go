// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

// Package authtest provides in-memory doubles of the auth collaborators.
// Each double counts calls so tests can assert which path a flow took.
package authtest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/users/auth"
)

// # User Store

// UserStore is a map-backed [auth.UserRepository].
type UserStore struct {
	mu     sync.Mutex
	users  map[int64]*auth.User
	nextID int64
	calls  map[string]int

	// Err, when set, is returned by every method.
	Err error
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]*auth.User), calls: make(map[string]int)}
}

// Calls reports how many times the named method ran.
func (store *UserStore) Calls(method string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.calls[method]
}

// Reads is the total number of FindByID and FindByEmail calls.
func (store *UserStore) Reads() int {
	return store.Calls("FindByID") + store.Calls("FindByEmail")
}

// Seed inserts a user directly, bypassing call counters.
func (store *UserStore) Seed(user auth.User) *auth.User {
	store.mu.Lock()
	defer store.mu.Unlock()

	if user.ID == 0 {
		store.nextID++
		user.ID = store.nextID
	} else if user.ID > store.nextID {
		store.nextID = user.ID
	}
	if user.Role == "" {
		user.Role = sec.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	store.users[user.ID] = &user

	clone := user
	return &clone
}

// Get returns a copy of the stored user without counting a call.
func (store *UserStore) Get(id int64) (*auth.User, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, false
	}
	clone := *user
	return &clone, true
}

func (store *UserStore) enter(method string) error {
	store.calls[method]++
	return store.Err
}

func (store *UserStore) FindByID(_ context.Context, id int64) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := store.enter("FindByID"); err != nil {
		return nil, err
	}

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (store *UserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := store.enter("FindByEmail"); err != nil {
		return nil, err
	}

	for _, user := range store.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *UserStore) Create(_ context.Context, user *auth.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := store.enter("Create"); err != nil {
		return err
	}

	for _, existing := range store.users {
		if existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}

	store.nextID++
	user.ID = store.nextID
	user.CreatedAt = time.Now().UTC()

	clone := *user
	store.users[user.ID] = &clone
	return nil
}

func (store *UserStore) update(method string, id int64, mutate func(*auth.User)) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := store.enter(method); err != nil {
		return nil, err
	}

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	mutate(user)

	clone := *user
	return &clone, nil
}

func (store *UserStore) MarkVerified(_ context.Context, id int64) (*auth.User, error) {
	return store.update("MarkVerified", id, func(user *auth.User) { user.IsVerified = true })
}

func (store *UserStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	_, err := store.update("UpdatePassword", id, func(user *auth.User) { user.PasswordHash = passwordHash })
	return err
}

func (store *UserStore) UpdateRole(_ context.Context, id int64, role sec.UserRole) (*auth.User, error) {
	return store.update("UpdateRole", id, func(user *auth.User) { user.Role = role })
}

func (store *UserStore) UpdateAvatar(_ context.Context, id int64, avatarURL string) (*auth.User, error) {
	return store.update("UpdateAvatar", id, func(user *auth.User) { user.AvatarURL = &avatarURL })
}

// # User Cache

// UserCache is a map-backed [auth.UserCache] that ignores TTLs but records them.
type UserCache struct {
	mu      sync.Mutex
	entries map[int64]sec.Principal
	stamps  map[int64]int

	Hits          int
	Misses        int
	Puts          int
	StalePuts     int
	Invalidations []int64
	LastTTL       time.Duration

	// Err, when set, is returned by every method to simulate a backend outage.
	Err error
}

// NewUserCache returns an empty cache.
func NewUserCache() *UserCache {
	return &UserCache{entries: make(map[int64]sec.Principal), stamps: make(map[int64]int)}
}

// Has reports whether an entry exists for id.
func (cache *UserCache) Has(id int64) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	_, ok := cache.entries[id]
	return ok
}

func (cache *UserCache) Get(_ context.Context, id int64) (*sec.Principal, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.Err != nil {
		return nil, cache.Err
	}

	entry, ok := cache.entries[id]
	if !ok {
		cache.Misses++
		return nil, auth.ErrCacheMiss
	}
	cache.Hits++
	return &entry, nil
}

func (cache *UserCache) Generation(_ context.Context, id int64) (string, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.Err != nil {
		return "", cache.Err
	}
	return strconv.Itoa(cache.stamps[id]), nil
}

func (cache *UserCache) Put(_ context.Context, principal *sec.Principal, generation string, ttl time.Duration) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.Err != nil {
		return cache.Err
	}
	if strconv.Itoa(cache.stamps[principal.ID]) != generation {
		cache.StalePuts++
		return auth.ErrCacheStale
	}

	cache.Puts++
	cache.LastTTL = ttl
	cache.entries[principal.ID] = *principal
	return nil
}

func (cache *UserCache) Invalidate(ctx context.Context, id int64) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.Invalidations = append(cache.Invalidations, id)
	if err := ctx.Err(); err != nil {
		return err
	}
	if cache.Err != nil {
		return cache.Err
	}

	cache.stamps[id]++
	delete(cache.entries, id)
	return nil
}

// # Notifier

// Message is one recorded notification.
type Message struct {
	Kind  string
	Email string
	Token string
}

// Notifier records every message it is asked to send.
type Notifier struct {
	mu       sync.Mutex
	messages []Message

	// Err, when set, is returned after recording.
	Err error
}

func (notifier *Notifier) record(kind, email, token string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	notifier.messages = append(notifier.messages, Message{Kind: kind, Email: email, Token: token})
	return notifier.Err
}

func (notifier *Notifier) SendVerification(_ context.Context, email, token string) error {
	return notifier.record("verification", email, token)
}

func (notifier *Notifier) SendPasswordReset(_ context.Context, email, token string) error {
	return notifier.record("password_reset", email, token)
}

// Messages returns a copy of the recorded messages.
func (notifier *Notifier) Messages() []Message {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return append([]Message(nil), notifier.messages...)
}

// Last returns the most recent message of the given kind.
func (notifier *Notifier) Last(kind string) (Message, bool) {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	for i := len(notifier.messages) - 1; i >= 0; i-- {
		if notifier.messages[i].Kind == kind {
			return notifier.messages[i], true
		}
	}
	return Message{}, false
}

// # Static Resolver

// StaticResolver resolves a fixed token table. Useful for handler tests that
// do not exercise the codec.
type StaticResolver map[string]*sec.Principal

func (resolver StaticResolver) Resolve(_ context.Context, token string) (*sec.Principal, error) {
	principal, ok := resolver[token]
	if !ok {
		return nil, apperr.Unauthorized(auth.MsgCouldNotValidate)
	}
	return principal, nil
}
