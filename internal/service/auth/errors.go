package auth

import "errors"

// Common authentication errors
var (
	// ErrInvalidToken indicates the token is malformed, has an invalid
	// signature, or otherwise failed validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's expiry time has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid indicates the token's not-before time is in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")
)
