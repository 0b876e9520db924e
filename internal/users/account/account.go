// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

/*
Package account serves the authenticated principal's own profile.

# Architecture

  - Domain: depends on the auth package for the User entity and cache eviction.
  - Media: avatars are pushed to an external [AvatarStore]; only the URL is stored.
*/
package account

import (
	"context"
	"io"

	"github.com/annetade/contacts/internal/users/auth"
)

// # Contracts

// AvatarRepository is the subset of the user store the account flows write to.
type AvatarRepository interface {
	/*
		UpdateAvatar replaces the avatar URL.

		Returns:
		  - *auth.User: Row after the update
		  - error: apperr.NotFound or storage failures
	*/
	UpdateAvatar(context context.Context, id int64, avatarURL string) (*auth.User, error)
}

// AvatarStore uploads avatar images to the media host.
type AvatarStore interface {
	/*
		PutAvatar stores the image under the user's id, replacing any previous one.

		Returns:
		  - string: Public URL of the stored image
		  - error: Upload failures
	*/
	PutAvatar(context context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error)
}

// # DTOs

// AvatarUpload is a decoded avatar image.
type AvatarUpload struct {
	ContentType string
	Data        []byte
}
