// Package common defines shared constants and sentinel errors used across
// the storage, service and transport layers of GophMarket. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Purchase protocol errors.
	ErrorForbidden         = errors.New("forbidden")
	ErrorInvalidState      = errors.New("invalid state")
	ErrorAlreadySold       = errors.New("already sold")
	ErrorInsufficientFunds = errors.New("insufficient funds")
	ErrorNoInventory       = errors.New("no inventory")
	ErrorCapacityExceeded  = errors.New("capacity exceeded")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrorAlreadyExists = errors.New("already exists")
)
