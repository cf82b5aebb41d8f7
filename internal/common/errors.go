// Package common defines shared constants and sentinel errors used across
// credkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrConflict = errors.New("already exists")
	ErrNotFound = errors.New("not found")

	// ErrAuthenticationFailed covers both an unknown username and a wrong
	// password. The two cases must stay indistinguishable to callers.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrInternal masks unexpected failures from callers.
	ErrInternal = errors.New("internal error")
)
