// Package capture turns raw badge reads into attendance events.
//
// A scan resolves to an arrival or departure through the site's session
// schedule, then takes one of two paths: direct submission when the backend
// is reachable, or the durable queue when it is not. A direct submission
// that fails on transport falls back to the queue, so a scan is never lost
// to a connectivity race.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
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

// ErrUnknownBadge is returned for a scan whose badge has no roster entry.
var ErrUnknownBadge = errors.New("badge not in roster")

// scheduleTTL bounds how long a cached schedule is trusted before the next
// online scan refetches it.
const scheduleTTL = 5 * time.Minute

// Remote is the backend surface the capture path depends on.
type Remote interface {
	SubmitArrival(ctx context.Context, arrival remote.Arrival) error
	SubmitDeparture(ctx context.Context, departure remote.Departure) error
	FetchSchedule(ctx context.Context, siteID string) ([]schedule.Window, error)
	FetchTodayAttendance(ctx context.Context, siteID string, now time.Time) ([]remote.AttendanceRow, error)
}

// Result describes what a scan resolved to and which path it took.
type Result struct {
	Profile    *roster.Record
	Action     schedule.Action
	CapturedAt time.Time
	Queued     bool
}

// Entry is one row of the recent-scans view.
type Entry struct {
	Name    string
	BadgeID string
	Action  schedule.Action
	At      time.Time
	Pending bool
	Session string
}

// Service handles badge scans and the recent-scans view.
type Service struct {
	roster   *roster.Store
	queue    *queue.Store
	remote   Remote
	messages sms.Service
	settings *settings.Store
	online   func() bool
	cfg      *config.Config
	logger   *slog.Logger
	now      func() time.Time

	mu             sync.Mutex
	windows        []schedule.Window
	windowsFetched time.Time
}

// NewService builds a capture service. online reports current backend
// reachability, typically connectivity.Watcher.Online.
func NewService(rosterStore *roster.Store, queueStore *queue.Store, backend Remote, messages sms.Service, settingsStore *settings.Store, online func() bool, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		roster:   rosterStore,
		queue:    queueStore,
		remote:   backend,
		messages: messages,
		settings: settingsStore,
		online:   online,
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "capture"),
		now:      time.Now,
	}
}

// SetClock overrides the service's time source. Tests pin it to exercise
// schedule resolution at fixed civil instants.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Scan records one badge read. The capture instant is taken before any
// network activity so queued and direct submissions agree on event time.
func (s *Service) Scan(ctx context.Context, badgeID string) (*Result, error) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return nil, errors.New("empty badge id")
	}

	profile, err := s.roster.LookupByBadge(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBadge, badgeID)
	}

	capturedAt := s.now().UTC()
	action := s.resolveAction(ctx, capturedAt)
	result := &Result{Profile: profile, Action: action, CapturedAt: capturedAt}

	if s.online() {
		err := s.submitDirect(ctx, profile, action, capturedAt)
		if err == nil {
			s.logger.Info("scan submitted",
				logging.String(logging.FieldBadgeID, badgeID),
				logging.String(logging.FieldAction, string(action)))
			s.notifyGuardian(ctx, profile, action, capturedAt)
			return result, nil
		}
		if !errors.Is(err, remote.ErrRemoteUnreachable) {
			return nil, err
		}
		s.logger.Warn("direct submit failed, queueing scan", logging.Error(err))
	}

	if _, err := s.queue.Enqueue(ctx, badgeID, action, capturedAt); err != nil {
		return nil, err
	}
	result.Queued = true
	s.logger.Info("scan queued",
		logging.String(logging.FieldBadgeID, badgeID),
		logging.String(logging.FieldAction, string(action)))
	return result, nil
}

func (s *Service) submitDirect(ctx context.Context, profile *roster.Record, action schedule.Action, capturedAt time.Time) error {
	if action == schedule.ActionDeparture {
		return s.remote.SubmitDeparture(ctx, remote.Departure{
			BadgeRef:   profile.RefID,
			CapturedAt: capturedAt,
		})
	}
	siteYear := profile.SiteYear
	if siteYear == "" {
		siteYear = s.cfg.Site.Year
	}
	return s.remote.SubmitArrival(ctx, remote.Arrival{
		BadgeRef:   profile.RefID,
		SiteYear:   siteYear,
		Cohort:     profile.Cohort,
		BadgeID:    profile.BadgeID,
		CapturedAt: capturedAt,
	})
}

func (s *Service) notifyGuardian(ctx context.Context, profile *roster.Record, action schedule.Action, capturedAt time.Time) {
	if profile.Contact == "" {
		return
	}
	if err := s.messages.SendAttendance(ctx, profile.Contact, profile.FirstName, profile.LastName, action, capturedAt); err != nil {
		s.logger.Warn("guardian notification failed",
			logging.String(logging.FieldBadgeID, profile.BadgeID),
			logging.Error(err))
	}
}

func (s *Service) resolveAction(ctx context.Context, now time.Time) schedule.Action {
	fallback, ok := schedule.ParseAction(s.cfg.Site.DefaultAction)
	if !ok {
		fallback = schedule.ActionArrival
	}
	return schedule.ResolveAction(s.scheduleWindows(ctx), fallback, now)
}

func (s *Service) scheduleWindows(ctx context.Context) []schedule.Window {
	s.mu.Lock()
	windows := s.windows
	fresh := s.now().Sub(s.windowsFetched) < scheduleTTL
	s.mu.Unlock()

	if (len(windows) > 0 && fresh) || !s.online() {
		return windows
	}

	fetched, err := s.remote.FetchSchedule(ctx, s.settings.SiteID())
	if err != nil {
		s.logger.Warn("schedule fetch failed, using cached windows", logging.Error(err))
		return windows
	}

	s.mu.Lock()
	s.windows = fetched
	s.windowsFetched = s.now()
	s.mu.Unlock()
	return fetched
}

// InvalidateSchedule drops the cached session windows. Called on site change
// so the next scan fetches the new site's schedule.
func (s *Service) InvalidateSchedule() {
	s.mu.Lock()
	s.windows = nil
	s.windowsFetched = time.Time{}
	s.mu.Unlock()
}

// RecentScans returns the rows for the recent-activity view: the backend's
// reconciled attendance for today when online, otherwise the locally queued
// scans.
func (s *Service) RecentScans(ctx context.Context, limit int) ([]Entry, error) {
	if s.online() {
		rows, err := s.remote.FetchTodayAttendance(ctx, s.settings.SiteID(), s.now())
		if err == nil {
			return remoteEntries(rows, limit), nil
		}
		s.logger.Warn("today attendance fetch failed, falling back to queue", logging.Error(err))
	}

	events, err := s.queue.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		entry := Entry{
			BadgeID: event.BadgeID,
			Action:  event.Action,
			At:      event.CapturedAt,
			Pending: true,
		}
		if profile, err := s.roster.LookupByBadge(ctx, event.BadgeID); err == nil && profile != nil {
			entry.Name = profile.DisplayName()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func remoteEntries(rows []remote.AttendanceRow, limit int) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := Entry{
			Name:    strings.TrimSpace(row.FirstName + " " + row.LastName),
			BadgeID: row.BadgeID,
			Session: row.SessionName,
		}
		switch {
		case row.DepartedAt != nil:
			entry.Action = schedule.ActionDeparture
			entry.At = *row.DepartedAt
		case row.ArrivedAt != nil:
			entry.Action = schedule.ActionArrival
			entry.At = *row.ArrivedAt
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries
}
