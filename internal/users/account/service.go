// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package account

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/ctxutil"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/platform/validate"
	"github.com/annetade/contacts/internal/users/auth"
)

// allowedAvatarTypes are the sniffed content types accepted for avatars.
var allowedAvatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// # Service Layer

// Service implements profile reads and avatar updates.
type Service struct {
	users   AvatarRepository
	cache   auth.UserCache
	avatars AvatarStore
}

// NewService constructs a new [Service]. A nil avatars store disables uploads.
func NewService(users AvatarRepository, cache auth.UserCache, avatars AvatarStore) *Service {
	return &Service{
		users:   users,
		cache:   cache,
		avatars: avatars,
	}
}

/*
Profile returns the caller's own principal.

Returns:
  - *sec.Principal: The resolved principal
  - error: Unauthorized (anonymous) or Forbidden (unverified)
*/
func (service *Service) Profile(_ context.Context, principal *sec.Principal) (*sec.Principal, error) {
	return sec.RequireVerified(principal)
}

/*
UpdateAvatar uploads a new avatar for a verified admin and records its URL.

Description: The cache entry is evicted after the store commit so the next
resolution returns the new URL.

Returns:
  - *sec.Principal: Principal after the update
  - error: Unauthorized, Forbidden, ValidationError, ServiceUnavailable or storage errors
*/
func (service *Service) UpdateAvatar(ctx context.Context, principal *sec.Principal, upload AvatarUpload) (*sec.Principal, error) {
	if _, err := sec.RequireRole(principal, sec.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := sec.RequireVerified(principal); err != nil {
		return nil, err
	}

	if service.avatars == nil {
		return nil, apperr.ServiceUnavailable("Avatar uploads are not configured")
	}

	validator := &validate.Validator{}
	validator.
		Custom("file", len(upload.Data) == 0, "File is empty").
		Custom("file", len(upload.Data) > constants.MaxAvatarSize, "File too large").
		OneOf("content_type", upload.ContentType, allowedAvatarTypes...)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	url, err := service.avatars.PutAvatar(ctx, principal.ID, upload.ContentType, bytes.NewReader(upload.Data), int64(len(upload.Data)))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_avatar_upload_failed: %w", err))
	}

	user, err := service.users.UpdateAvatar(ctx, principal.ID, url)
	if err != nil {
		return nil, err
	}

	auth.EvictUser(ctx, service.cache, user.ID)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_avatar_updated", slog.Int64("user_id", user.ID))

	return user.Principal(), nil
}
