package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"tapline/internal/config"
	"tapline/internal/connectivity"
	"tapline/internal/daemon"
	"tapline/internal/logging"
	"tapline/internal/queue"
	"tapline/internal/remote"
	"tapline/internal/roster"
	"tapline/internal/settings"
	"tapline/internal/sms"
	"tapline/internal/storage"
	"tapline/internal/syncer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := storage.Open(cfg)
	if err != nil {
		logger.Error("open database", logging.Error(err))
		return
	}

	settingsStore, err := settings.Open(cfg.SettingsPath(), cfg.Site.ID)
	if err != nil {
		logger.Error("open settings", logging.Error(err))
		_ = db.Close()
		return
	}

	backend := remote.NewClient(cfg, logger)
	orchestrator := syncer.New(
		roster.NewStore(db),
		queue.NewStore(db),
		backend,
		sms.NewService(cfg, logger),
		settingsStore,
		cfg,
		logger,
	)
	watcher := connectivity.NewWatcher(backend, time.Duration(cfg.Sync.ProbeInterval)*time.Second, logger)

	d, err := daemon.New(cfg, db, orchestrator, watcher, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = db.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("taplined shutting down")
}
