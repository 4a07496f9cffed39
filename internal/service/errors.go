package service

import "errors"

var (
	// ErrRejected is the uniform authorization failure. Unknown user,
	// replayed request, stale timestamp, missing or invalid signature all
	// collapse into this one error so a caller cannot probe which check
	// failed.
	ErrRejected = errors.New("request rejected")

	// ErrInvalidDataProvided is returned when a request is structurally
	// unusable before any authorization check applies.
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrQuotaExceeded is returned when a note mutation would push the note
	// or the user past the configured byte limits. Nothing is written.
	ErrQuotaExceeded = errors.New("quota exceeded")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
)
