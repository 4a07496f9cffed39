// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Auth.TokenSignKey == "" || cfg.Auth.TokenDuration == 0 {
		return ErrInvalidAuthConfigs
	}

	if cfg.Locks.RetryDelay <= 0 || cfg.Locks.Timeout <= 0 {
		return ErrInvalidLockConfigs
	}

	if cfg.Quota.MaxNoteBytes <= 0 || cfg.Quota.MaxUserBytes <= 0 {
		return ErrInvalidQuotaConfigs
	}

	return nil
}
