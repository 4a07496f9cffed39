package main

import (
	"context"
	"fmt"

	"github.com/mlevkov/go-note-sync/internal/config"
	"github.com/mlevkov/go-note-sync/internal/guard"
	"github.com/mlevkov/go-note-sync/internal/handler"
	"github.com/mlevkov/go-note-sync/internal/logger"
	"github.com/mlevkov/go-note-sync/internal/notify"
	"github.com/mlevkov/go-note-sync/internal/server"
	"github.com/mlevkov/go-note-sync/internal/service"
	"github.com/mlevkov/go-note-sync/internal/store"
	"github.com/mlevkov/go-note-sync/internal/synclock"
	"github.com/mlevkov/go-note-sync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("note-sync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error running migrations")
	}

	storages := store.NewStorages(db, log)

	challenges := guard.NewChallengeManager(log)
	requests := guard.NewRequestValidator(log)
	locks := synclock.NewManager(storages.KeyRepository, cfg.Locks.RetryDelay, cfg.Locks.Timeout, log)

	notifier, err := notify.NewWebhookNotifier(cfg.Notify, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating webhook notifier")
	}

	services := service.NewServices(storages, challenges, requests, locks, notifier, cfg, log)

	handlers, err := handler.NewHandlers(services, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	// expiry sweepers for login challenges and replay nonces
	workers.NewWorkers(challenges, requests).Run(ctx)

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
