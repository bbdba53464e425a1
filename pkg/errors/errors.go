package taskerrors

import "errors"

// Common errors
var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyExists   = errors.New("already exists")
	ErrRateLimited     = errors.New("rate limited")
	ErrDeliveryFailure = errors.New("transient delivery failure")
)
