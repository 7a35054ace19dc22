// Package common defines shared constants and sentinel errors used across
// client and server layers of recordkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Storage-level error: a transport or permission failure from the document
	// or blob store, wrapped around the original cause.
	ErrStorage = errors.New("storage error")

	// Validation errors.
	ErrValidation = errors.New("validation error")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrLoginAlreadyExists = errors.New("login already exists")
)
