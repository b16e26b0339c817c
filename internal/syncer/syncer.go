package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tapline/internal/config"
	"tapline/internal/logging"
	"tapline/internal/queue"
	"tapline/internal/remote"
	"tapline/internal/roster"
	"tapline/internal/schedule"
	"tapline/internal/settings"
	"tapline/internal/sms"
)

// Remote is the backend surface the orchestrator depends on.
type Remote interface {
	FetchRoster(ctx context.Context, siteID string) ([]roster.Record, error)
	SubmitArrival(ctx context.Context, arrival remote.Arrival) error
	SubmitDeparture(ctx context.Context, departure remote.Departure) error
}

// Result summarizes one queue flush.
type Result struct {
	Processed int
	Failed    int
}

// Syncer coordinates roster refreshes and queue flushes.
type Syncer struct {
	roster   *roster.Store
	queue    *queue.Store
	remote   Remote
	messages sms.Service
	settings *settings.Store
	cfg      *config.Config
	logger   *slog.Logger

	inFlight atomic.Bool
}

// New builds an orchestrator. All collaborators are injected; the zero
// messaging service is not allowed, pass the noop service instead.
func New(rosterStore *roster.Store, queueStore *queue.Store, backend Remote, messages sms.Service, settingsStore *settings.Store, cfg *config.Config, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{
		roster:   rosterStore,
		queue:    queueStore,
		remote:   backend,
		messages: messages,
		settings: settingsStore,
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "syncer"),
	}
}

// RefreshRoster replaces the local snapshot with the backend's directory for
// siteID. It retries a fixed number of times with a fixed delay and returns
// the last error once attempts are exhausted; the previous snapshot stays
// installed in that case.
func (s *Syncer) RefreshRoster(ctx context.Context, siteID string) error {
	attempts := s.cfg.Sync.RefreshRetries
	if attempts <= 0 {
		attempts = 1
	}
	delay := time.Duration(s.cfg.Sync.RefreshRetryDelayMS) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		records, err := s.remote.FetchRoster(ctx, siteID)
		if err == nil {
			if err := s.roster.ReplaceAll(ctx, records); err != nil {
				return fmt.Errorf("install roster snapshot: %w", err)
			}
			s.logger.Info("roster refreshed",
				logging.String(logging.FieldSiteID, siteID),
				logging.Int("records", len(records)))
			return nil
		}
		lastErr = err
		s.logger.Warn("roster fetch failed",
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt < attempts {
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("refresh roster after %d attempts: %w", attempts, lastErr)
}

// FlushQueue submits queued scans oldest first. A scan whose badge is not in
// the roster cache, or whose submit fails after one retry, counts as failed
// and stays queued for the next cycle. Submits carry each scan's own
// captured instant, not the flush time.
func (s *Syncer) FlushQueue(ctx context.Context) (Result, error) {
	events, err := s.queue.ListUnsynced(ctx)
	if err != nil {
		return Result{}, err
	}
	queue.SortByCaptured(events)

	var result Result
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.flushOne(ctx, event) {
			result.Processed++
		} else {
			result.Failed++
		}
	}

	if result.Processed > 0 || result.Failed > 0 {
		s.logger.Info("queue flushed",
			logging.Int("processed", result.Processed),
			logging.Int("failed", result.Failed))
	}
	return result, nil
}

func (s *Syncer) flushOne(ctx context.Context, event *queue.Event) bool {
	profile, err := s.roster.LookupByBadge(ctx, event.BadgeID)
	if err != nil || profile == nil {
		s.logger.Warn("queued scan has no roster entry",
			logging.String(logging.FieldEventID, event.ID),
			logging.String(logging.FieldBadgeID, event.BadgeID),
			logging.Error(err))
		return false
	}

	if err := s.submitWithRetry(ctx, event, profile); err != nil {
		s.logger.Warn("queued scan submit failed",
			logging.String(logging.FieldEventID, event.ID),
			logging.String(logging.FieldAction, string(event.Action)),
			logging.Error(err))
		return false
	}

	s.notifyGuardian(ctx, profile, event.Action, event.CapturedAt)

	if err := s.queue.MarkSynced(ctx, event.ID); err != nil {
		s.logger.Error("mark synced failed", logging.String(logging.FieldEventID, event.ID), logging.Error(err))
		return false
	}
	if err := s.queue.Delete(ctx, event.ID); err != nil {
		// The synced marker keeps the row out of future flushes even when
		// deletion fails here.
		s.logger.Error("delete synced event failed", logging.String(logging.FieldEventID, event.ID), logging.Error(err))
	}
	return true
}

func (s *Syncer) submitWithRetry(ctx context.Context, event *queue.Event, profile *roster.Record) error {
	err := s.submit(ctx, event, profile)
	if err == nil {
		return nil
	}
	if errors.Is(err, remote.ErrNoPriorArrival) {
		return err
	}
	delay := time.Duration(s.cfg.Sync.SubmitRetryDelayMS) * time.Millisecond
	if sleepErr := sleepCtx(ctx, delay); sleepErr != nil {
		return sleepErr
	}
	return s.submit(ctx, event, profile)
}

func (s *Syncer) submit(ctx context.Context, event *queue.Event, profile *roster.Record) error {
	switch event.Action {
	case schedule.ActionDeparture:
		return s.remote.SubmitDeparture(ctx, remote.Departure{
			BadgeRef:   profile.RefID,
			CapturedAt: event.CapturedAt,
		})
	default:
		siteYear := profile.SiteYear
		if siteYear == "" {
			siteYear = s.cfg.Site.Year
		}
		return s.remote.SubmitArrival(ctx, remote.Arrival{
			BadgeRef:   profile.RefID,
			SiteYear:   siteYear,
			Cohort:     profile.Cohort,
			BadgeID:    profile.BadgeID,
			CapturedAt: event.CapturedAt,
		})
	}
}

func (s *Syncer) notifyGuardian(ctx context.Context, profile *roster.Record, action schedule.Action, capturedAt time.Time) {
	if profile.Contact == "" {
		return
	}
	if err := s.messages.SendAttendance(ctx, profile.Contact, profile.FirstName, profile.LastName, action, capturedAt); err != nil {
		s.logger.Warn("guardian notification failed",
			logging.String(logging.FieldBadgeID, profile.BadgeID),
			logging.Error(err))
	}
}

// OnOnline runs a roster refresh followed by a queue flush. The two halves
// fail independently: a refresh failure still lets previously cached badges
// flush. Overlapping calls are dropped by the in-flight guard. Each cycle
// first re-reads the settings file, so a site reassignment written by the
// CLI takes effect on a running daemon without a restart.
func (s *Syncer) OnOnline(ctx context.Context, trigger string) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("sync already in flight", logging.String(logging.FieldTrigger, trigger))
		return
	}
	defer s.inFlight.Store(false)

	s.reloadSite(ctx)
	siteID := s.settings.SiteID()
	s.logger.Info("sync cycle started",
		logging.String(logging.FieldTrigger, trigger),
		logging.String(logging.FieldSiteID, siteID))

	if err := s.RefreshRoster(ctx, siteID); err != nil {
		s.logger.Warn("roster refresh failed", logging.Error(err))
	}
	if _, err := s.FlushQueue(ctx); err != nil {
		s.logger.Warn("queue flush failed", logging.Error(err))
	}
}

// reloadSite picks up a site reassignment persisted by another process and
// clears the roster cache before the refresh, so the old site's badges never
// resolve against the new assignment even when the refresh itself fails.
func (s *Syncer) reloadSite(ctx context.Context) {
	siteID, changed, err := s.settings.Reload()
	if err != nil {
		s.logger.Warn("reload settings failed", logging.Error(err))
		return
	}
	if !changed {
		return
	}
	s.logger.Info("site reassigned, clearing roster cache",
		logging.String(logging.FieldSiteID, siteID))
	if err := s.roster.Clear(ctx); err != nil {
		s.logger.Error("clear roster cache failed", logging.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
