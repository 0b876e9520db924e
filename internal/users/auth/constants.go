// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

package auth

// # Client Messages

const (
	// MsgCouldNotValidate is the only message a failed identity resolution returns.
	MsgCouldNotValidate = "Could not validate credentials"

	// MsgInvalidCredentials is shared by unknown-email and wrong-password logins.
	MsgInvalidCredentials = "Invalid credentials"

	MsgEmailRegistered   = "Email already registered"
	MsgInvalidToken      = "Invalid or expired token"
	MsgEmailVerified     = "Email verified successfully!"
	MsgResetRequested    = "If the email is registered, reset instructions will be sent."
	MsgPasswordReset     = "Password reset successfully."
	MsgPromotedToAdminFm = "User %s promoted to admin"
)
