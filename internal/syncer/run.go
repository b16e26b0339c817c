package syncer

import (
	"context"
	"time"

	"tapline/internal/connectivity"
	"tapline/internal/logging"
)

// Run drives the background sync loop until ctx is cancelled. It reacts to
// four triggers: process start, offline-to-online connectivity edges, a
// periodic timer while online, and site reassignment. Site reassignment
// additionally clears the roster cache before resyncing, so badges from the
// previous site cannot resolve against the new one.
func (s *Syncer) Run(ctx context.Context, watcher *connectivity.Watcher) error {
	siteChanges := make(chan string, 1)
	unsubscribe := s.settings.Subscribe(func(siteID string) {
		select {
		case siteChanges <- siteID:
		default:
			// A pending notification already forces a resync; the handler
			// reads the current site id itself.
		}
	})
	defer unsubscribe()

	watcher.Start(ctx)
	defer watcher.Stop()

	interval := time.Duration(s.cfg.Sync.FlushInterval) * time.Second
	if interval <= 0 {
		interval = 45 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.OnOnline(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case transition := <-watcher.Transitions():
			if transition.Online {
				s.OnOnline(ctx, "online")
			}
		case <-ticker.C:
			if watcher.Online() {
				s.OnOnline(ctx, "interval")
			}
		case siteID := <-siteChanges:
			s.logger.Info("site changed, clearing roster cache",
				logging.String(logging.FieldSiteID, siteID))
			if err := s.roster.Clear(ctx); err != nil {
				s.logger.Error("clear roster cache failed", logging.Error(err))
			}
			if watcher.Online() {
				s.OnOnline(ctx, "site-change")
			}
		}
	}
}
