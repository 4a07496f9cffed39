package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty database DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAuthConfigs indicates invalid session-token settings
	// (for example, missing sign key or zero token duration).
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
	// ErrInvalidLockConfigs indicates invalid sync lock settings
	// (for example, a non-positive retry delay or timeout).
	ErrInvalidLockConfigs = errors.New("invalid lock configuration")
	// ErrInvalidQuotaConfigs indicates invalid quota settings
	// (for example, non-positive byte limits).
	ErrInvalidQuotaConfigs = errors.New("invalid quota configuration")
)
