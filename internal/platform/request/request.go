// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/annetade/contacts/internal/platform/apperr"
	"github.com/annetade/contacts/internal/platform/ctxutil"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/platform/validate"
)

// maxBodyBytes caps JSON and form bodies. Multipart uploads set their own limit.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Credentials is the login payload after encoding has been resolved.
type Credentials struct {
	Email    string
	Password string
}

type credentialsBody struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
DecodeCredentials accepts login credentials as JSON, as an urlencoded form or
as multipart/form-data.

All encodings accept either an "email" or an OAuth2 style "username" field
next to "password". The outcome does not depend on which encoding was used.

Returns:
  - error: apperr.Unprocessable when the body is unreadable or a field is missing
*/
func DecodeCredentials(writer http.ResponseWriter, request *http.Request) (Credentials, error) {
	var body credentialsBody

	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)

		parse := request.ParseForm
		if mediaType == "multipart/form-data" {
			parse = func() error { return request.ParseMultipartForm(maxBodyBytes) }
		}
		if err := parse(); err != nil {
			return Credentials{}, apperr.Unprocessable("Invalid form payload")
		}

		// ParseMultipartForm merges the text parts into PostForm.
		body.Email = request.PostForm.Get("email")
		body.Username = request.PostForm.Get("username")
		body.Password = request.PostForm.Get("password")
	default:
		if err := DecodeJSON(writer, request, &body); err != nil {
			return Credentials{}, err
		}
	}

	email := body.Email
	if strings.TrimSpace(email) == "" {
		email = body.Username
	}

	if strings.TrimSpace(email) == "" || body.Password == "" {
		return Credentials{}, apperr.Unprocessable("Email and password are required")
	}

	return Credentials{Email: email, Password: body.Password}, nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Int64Param parses a named URL parameter as a positive integer id.
*/
func Int64Param(request *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Unprocessable("Invalid " + name)
	}
	return id, nil
}

/*
Principal extracts the resolved principal from the request context.

Returns nil if the request is anonymous.
*/
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns its principal.

Returns:
  - error: apperr.Unauthorized if the request is anonymous
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {
	principal := ctxutil.GetPrincipal(request.Context())
	if principal == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return principal, nil
}
