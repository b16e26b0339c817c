package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tapline/internal/schedule"
	"tapline/internal/storage"
)

// Event is one queued scan awaiting remote confirmation.
type Event struct {
	ID         string
	BadgeID    string
	Action     schedule.Action
	CapturedAt time.Time
	Synced     bool
	CreatedAt  time.Time
}

// Store manages queued scan persistence.
type Store struct {
	db *storage.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

const eventColumns = "id, badge_id, action, captured_at, synced, created_at"

// Enqueue persists a scan with a fresh id and synced=false and returns the
// stored event. CapturedAt is the scan instant, not the flush time.
func (s *Store) Enqueue(ctx context.Context, badgeID string, action schedule.Action, capturedAt time.Time) (*Event, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	event := &Event{
		ID:         id.String(),
		BadgeID:    strings.TrimSpace(badgeID),
		Action:     action,
		CapturedAt: capturedAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}

	_, err = s.db.Handle().ExecContext(ctx,
		`INSERT INTO queue_events (`+eventColumns+`) VALUES (?, ?, ?, ?, 0, ?)`,
		event.ID,
		event.BadgeID,
		string(event.Action),
		event.CapturedAt.Format(time.RFC3339Nano),
		event.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, storage.Unavailable("enqueue scan", err)
	}
	return event, nil
}

// ListUnsynced returns all events with synced=false. Order is unspecified;
// callers sort when order matters.
func (s *Store) ListUnsynced(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.Handle().QueryContext(ctx,
		`SELECT `+eventColumns+` FROM queue_events WHERE synced = 0`)
	if err != nil {
		return nil, storage.Unavailable("list unsynced", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, storage.Unavailable("scan queue row", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("iterate queue rows", err)
	}
	return events, nil
}

// MarkSynced flips the synced flag. Marking an absent id is a no-op.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	if _, err := s.db.Handle().ExecContext(ctx,
		`UPDATE queue_events SET synced = 1 WHERE id = ?`, id); err != nil {
		return storage.Unavailable("mark synced", err)
	}
	return nil
}

// Delete removes an event. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Handle().ExecContext(ctx,
		`DELETE FROM queue_events WHERE id = ?`, id); err != nil {
		return storage.Unavailable("delete event", err)
	}
	return nil
}

// Count returns the number of unsynced events. Drives the pending badge in
// the UI, not correctness.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.Handle().QueryRowContext(ctx,
		`SELECT COUNT(1) FROM queue_events WHERE synced = 0`)
	if err := row.Scan(&count); err != nil {
		return 0, storage.Unavailable("count unsynced", err)
	}
	return count, nil
}

// Recent returns events sorted descending by captured instant, truncated to
// limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Handle().QueryContext(ctx,
		`SELECT `+eventColumns+` FROM queue_events`)
	if err != nil {
		return nil, storage.Unavailable("list recent", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, storage.Unavailable("scan queue row", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("iterate queue rows", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CapturedAt.After(events[j].CapturedAt)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// SortByCaptured orders events ascending by captured instant in place. The
// flush path uses it to preserve the causal order of arrival/departure pairs.
func SortByCaptured(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CapturedAt.Before(events[j].CapturedAt)
	})
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*Event, error) {
	var (
		id          string
		badgeID     string
		action      string
		capturedRaw string
		synced      int64
		createdRaw  string
	)
	if err := scanner.Scan(&id, &badgeID, &action, &capturedRaw, &synced, &createdRaw); err != nil {
		return nil, err
	}
	captured, err := parseTimeString(capturedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse captured_at %q: %w", capturedRaw, err)
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	return &Event{
		ID:         id,
		BadgeID:    badgeID,
		Action:     schedule.Action(action),
		CapturedAt: captured,
		Synced:     synced != 0,
		CreatedAt:  created,
	}, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
