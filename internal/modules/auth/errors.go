package auth

import "errors"

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("role must be customer or repairer")
	ErrRateLimitExceeded  = errors.New("please wait before requesting another code")
	ErrCodeInvalid        = errors.New("verification code is invalid")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrTooManyAttempts    = errors.New("too many verification attempts, request a new code")
)
