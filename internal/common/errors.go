// Package common defines shared constants and sentinel errors used across
// the tokenkeeper server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (refresh token failed signature, expiry or match checks).
	ErrInvalidToken = errors.New("invalid token")
)
