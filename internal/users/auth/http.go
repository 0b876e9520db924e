// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annetade/contacts/internal/platform/middleware"
	requestutil "github.com/annetade/contacts/internal/platform/request"
	"github.com/annetade/contacts/internal/platform/respond"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
	resolver    middleware.PrincipalResolver
}

// NewHandler constructs a new [Handler]. The resolver guards the admin-only routes.
func NewHandler(service *Service, resolver middleware.PrincipalResolver) *Handler {
	return &Handler{authService: service, resolver: resolver}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /signup                  : Creates an unverified account.
//   - POST /login                   : JSON or form credentials, returns a bearer token.
//   - GET  /verify-email/{token}    : Consumes a verification token.
//   - POST /request-password-reset  : Always answers with the same message.
//   - POST /reset-password/{token}  : Consumes a reset token.
//   - POST /make-admin/{user_id}    : Admin only.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)
	router.Get("/verify-email/{token}", handler.verifyEmail)
	router.Post("/request-password-reset", handler.requestPasswordReset)
	router.Post("/reset-password/{token}", handler.resetPassword)

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.resolver))
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/make-admin/{user_id}", handler.makeAdmin)
	})

	return router
}

// # Request/Response Payloads

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	User *sec.Principal `json:"user"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

/*
Signup handles the creation of a new account.

POST /api/auth/signup

Response:
  - 201: {"user": Principal}
  - 400: Validation failure
  - 409: Email already registered
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.authService.Signup(request.Context(), SignupInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, signupResponse{User: principal})
}

/*
Login authenticates credentials sent as JSON or as an urlencoded form.

POST /api/auth/login

Response:
  - 200: tokenResponse
  - 401: Invalid credentials
  - 422: Missing email or password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	credentials, err := requestutil.DecodeCredentials(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.authService.Login(request.Context(), credentials.Email, credentials.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tokenResponse{
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		ExpiresIn:   int(grant.ExpiresIn.Seconds()),
	})
}

/*
VerifyEmail consumes a verification-purpose token.

GET /api/auth/verify-email/{token}

Response:
  - 200: messageResponse
  - 400: Invalid or expired token
  - 404: User not found
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.VerifyEmail(request.Context(), requestutil.Param(request, "token")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: MsgEmailVerified})
}

/*
RequestPasswordReset accepts the email as ?email= or as a JSON body.

POST /api/auth/request-password-reset

Response:
  - 200: messageResponse (identical for registered and unknown emails)
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	email := request.URL.Query().Get(FieldEmail)

	if email == "" && request.ContentLength != 0 {
		var input emailRequest
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		email = input.Email
	}

	if err := handler.authService.RequestPasswordReset(request.Context(), email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: MsgResetRequested})
}

/*
ResetPassword consumes a reset-purpose token.

POST /api/auth/reset-password/{token}

Request:
  - Body: a bare JSON string or {"password": "..."}

Response:
  - 200: messageResponse
  - 400: Invalid or expired token, or password policy failure
  - 404: User not found
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var raw json.RawMessage
	if err := requestutil.DecodeJSON(writer, request, &raw); err != nil {
		respond.Error(writer, request, err)
		return
	}

	password, err := decodePassword(raw)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), requestutil.Param(request, "token"), password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: MsgPasswordReset})
}

func decodePassword(raw json.RawMessage) (string, error) {
	var password string
	if err := json.Unmarshal(raw, &password); err == nil {
		return password, nil
	}

	var input passwordRequest
	if err := json.Unmarshal(raw, &input); err != nil {
		return "", validate.ErrInvalidJSON
	}
	return input.Password, nil
}

/*
MakeAdmin promotes the target user.

POST /api/auth/make-admin/{user_id}

Response:
  - 200: messageResponse naming the promoted email
  - 401: Not authenticated
  - 403: Caller is not an admin
  - 404: Target not found
*/
func (handler *Handler) makeAdmin(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.Int64Param(request, "user_id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	target, err := handler.authService.PromoteToAdmin(request.Context(), caller, targetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: fmt.Sprintf(MsgPromotedToAdminFm, target.Email)})
}
