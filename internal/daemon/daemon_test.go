package daemon_test

import (
	"context"
	"testing"
	"time"

	"tapline/internal/config"
	"tapline/internal/connectivity"
	"tapline/internal/daemon"
	"tapline/internal/queue"
	"tapline/internal/remote"
	"tapline/internal/roster"
	"tapline/internal/settings"
	"tapline/internal/sms"
	"tapline/internal/storage"
	"tapline/internal/syncer"
	"tapline/internal/testsupport"
)

type idleRemote struct{}

func (idleRemote) FetchRoster(context.Context, string) ([]roster.Record, error) {
	return nil, remote.ErrRemoteUnreachable
}
func (idleRemote) SubmitArrival(context.Context, remote.Arrival) error {
	return remote.ErrRemoteUnreachable
}
func (idleRemote) SubmitDeparture(context.Context, remote.Departure) error {
	return remote.ErrRemoteUnreachable
}
func (idleRemote) Probe(context.Context) bool { return false }

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()

	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	settingsStore, err := settings.Open(cfg.SettingsPath(), cfg.Site.ID)
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}

	backend := idleRemote{}
	orchestrator := syncer.New(roster.NewStore(db), queue.NewStore(db), backend, sms.NewService(cfg, nil), settingsStore, cfg, nil)
	watcher := connectivity.NewWatcher(backend, 50*time.Millisecond, nil)

	d, err := daemon.New(cfg, db, orchestrator, watcher, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sync.RefreshRetryDelayMS = 1

	d := newDaemon(t, cfg)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should be running")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.Running() {
		t.Fatal("daemon should have stopped")
	}
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sync.RefreshRetryDelayMS = 1

	first := newDaemon(t, cfg)
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Close()

	second := newDaemon(t, cfg)
	defer second.Close()
	if err := second.Start(ctx); err == nil {
		t.Fatal("second instance must fail to acquire the lock")
	}
}
