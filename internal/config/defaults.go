package config

import "time"

// Built-in fallbacks applied last in the merge chain. Values match the
// documented contract of the sync lock manager and the pruning sweeps, so a
// server started with nothing but a DSN behaves as specified.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		Auth: Auth{
			TokenIssuer:   "go-note-sync",
			TokenDuration: 24 * time.Hour,
		},
		Quota: Quota{
			MaxNoteBytes:      1 << 20,  // 1 MiB per note
			MaxUserBytes:      10 << 20, // 10 MiB per user
			PremiumMultiplier: 10,
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Locks: Locks{
			RetryDelay: 200 * time.Millisecond,
			Timeout:    10 * time.Second,
		},
	}
}
