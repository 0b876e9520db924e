// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/ctxutil"
	"github.com/annetade/contacts/internal/platform/respond"
	"github.com/annetade/contacts/internal/platform/sec"
)

// PrincipalResolver turns a raw bearer token into a trusted principal.
//
// Defining it here decouples the middleware from the users/auth package,
// which lets handler tests inject a stub.
type PrincipalResolver interface {
	/*
		Resolve decodes the token and loads the principal it references.

		Returns:
			- *sec.Principal: resolved identity, never nil on success
			- error: apperr.Unauthorized for any token or subject failure
	*/
	Resolve(context context.Context, token string) (*sec.Principal, error)
}

// Authenticate resolves the bearer token in the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve the principal via [PrincipalResolver].
//  4. Inject [*sec.Principal] into the request context for downstream use.
func Authenticate(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// 1. Anonymous access
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Format validation
			scheme, token, found := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Could not validate credentials"))
				return
			}

			// 3. Identity resolution
			principal, err := resolver.Resolve(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// 4. Context injection
			recordPrincipal(request.Context(), principal.ID)
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the principal doesn't have the required role.
//
// It implies [RequireAuth]: anonymous requests get 401, insufficient roles get 403.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if _, err := sec.RequireRole(ctxutil.GetPrincipal(request.Context()), role); err != nil {
				respond.Error(writer, request, err)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// RequireVerified blocks principals whose email is not yet verified.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, err := sec.RequireVerified(ctxutil.GetPrincipal(request.Context())); err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request)
	})
}
