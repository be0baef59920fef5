package domain

import "errors"

// Error kinds returned by stores and services. Callers match with errors.Is;
// anything that matches none of these is treated as unexpected.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrTimeout      = errors.New("timeout")
)
