package models

import "errors"

// Domain error taxonomy. Services return these (possibly wrapped), handlers
// translate them to HTTP status codes via helper.GetStatusCode.
var (
	ErrNotFound  = errors.New("article not found")
	ErrForbidden = errors.New("you can only modify your own articles")
	// ErrInvalidCredentials is shared by the unknown-email and wrong-password
	// paths so a caller cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already in use")
)
