package service

import (
	"github.com/mlevkov/go-note-sync/internal/config"
	"github.com/mlevkov/go-note-sync/internal/guard"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/notify"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
)

// Services bundles the business-logic layer handed to the transport.
type Services struct {
	AuthService AuthService
	KeyService  KeyService
	NoteService NoteService
	SyncService SyncService
}

// NewServices wires every service to the shared repositories, guards, lock
// manager, and notifier.
func NewServices(storages *store.Storages, challenges *guard.ChallengeManager, requests *guard.RequestValidator, locks *synclock.Manager, notifier notify.Notifier, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	auth := &authorizer{
		users:     storages.UserRepository,
		keys:      storages.KeyRepository,
		validator: requests,
		logger:    logger,
	}
	quota := newQuotaPolicy(cfg.Quota)

	return &Services{
		AuthService: NewAuthService(storages.UserRepository, challenges, auth, locks, notifier, cfg.Auth, logger),
		KeyService:  NewKeyService(storages.KeyRepository, auth, locks, notifier, logger),
		NoteService: NewNoteService(storages, auth, locks, quota, notifier, logger),
		SyncService: NewSyncService(storages.KeyRepository, storages.NoteRepository, auth, locks, logger),
	}
}
