package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to canonical RPC statuses without leaking infrastructure details.
// Anything that wraps none of them is reported as an internal error.
var (
	ErrBadRequest   = errors.New("invalid argument")
	ErrUnauthorized = errors.New("unauthenticated")
	ErrForbidden    = errors.New("permission denied")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("deadline exceeded")
)
