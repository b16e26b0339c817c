package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tapline/internal/config"
	"tapline/internal/connectivity"
	"tapline/internal/logging"
	"tapline/internal/storage"
	"tapline/internal/syncer"
)

// Daemon owns the background sync loop and enforces single-instance
// execution through a lock file in the log directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.DB
	syncer  *syncer.Syncer
	watcher *connectivity.Watcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, db *storage.DB, orchestrator *syncer.Syncer, watcher *connectivity.Watcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || db == nil || orchestrator == nil || watcher == nil {
		return nil, errors.New("daemon requires config, store, syncer, and watcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "taplined.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		db:       db,
		syncer:   orchestrator,
		watcher:  watcher,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the sync loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tapline daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.syncer.Run(runCtx, d.watcher); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("sync loop exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("tapline daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop terminates the sync loop and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("tapline daemon stopped")
}

// Close stops the daemon and closes the database.
func (d *Daemon) Close() error {
	d.Stop()
	return d.db.Close()
}

// Running reports whether the sync loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
