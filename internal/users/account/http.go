// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package account

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/middleware"
	requestutil "github.com/annetade/contacts/internal/platform/request"
	"github.com/annetade/contacts/internal/platform/respond"
	"github.com/annetade/contacts/internal/platform/sec"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// # Definitions & Constructors

// Handler implements the profile endpoints for the current principal.
type Handler struct {
	accountService *Service
	resolver       middleware.PrincipalResolver
	profileLimiter *middleware.RateLimiter
}

// NewHandler constructs a new [Handler]. profileLimiter throttles GET /me.
func NewHandler(service *Service, resolver middleware.PrincipalResolver, profileLimiter *middleware.RateLimiter) *Handler {
	return &Handler{
		accountService: service,
		resolver:       resolver,
		profileLimiter: profileLimiter,
	}
}

// Register adds the account routes to router. They share the /api/auth
// prefix with the credential flows.
//
// # Endpoints
//   - GET  /me     : Verified principals only, rate limited.
//   - POST /avatar : Verified admins only, multipart field "file".
func (handler *Handler) Register(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.resolver))

		r.With(handler.profileLimiter.Handler, middleware.RequireVerified).Get("/me", handler.getMe)
		r.With(middleware.RequireRole(sec.RoleAdmin), middleware.RequireVerified).Post("/avatar", handler.uploadAvatar)
	})
}

/*
GetMe returns the caller's profile.

GET /api/auth/me

Response:
  - 200: Principal
  - 401: Not authenticated
  - 403: Email not verified
  - 429: Rate limited
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	principal, err := handler.accountService.Profile(request.Context(), requestutil.Principal(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
UploadAvatar replaces the caller's avatar.

POST /api/auth/avatar

Request:
  - Body: multipart/form-data with an image in field "file" (max 5 MiB)

Response:
  - 200: Principal with the new avatar_url
  - 400: Empty, oversized or non-image file
  - 403: Not an admin, or not verified
  - 422: Missing file field
  - 503: Avatar host not configured
*/
func (handler *Handler) uploadAvatar(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxAvatarSize+multipartOverhead)

	file, _, err := request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.ValidationError("File too large"))
			return
		}
		respond.Error(writer, request, apperr.Unprocessable("Field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxAvatarSize+1))
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Could not read file"))
		return
	}

	// Sniff the type instead of trusting the client's part header.
	principal, err := handler.accountService.UpdateAvatar(request.Context(), requestutil.Principal(request), AvatarUpload{
		ContentType: http.DetectContentType(data),
		Data:        data,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}
