// Package settings holds runtime-mutable device settings, currently the
// active site id. Values persist to a JSON file in the data directory and
// survive restarts; the configured site id seeds the store on first run.
//
// Components that care about site changes register an observer with
// Subscribe. Notification is explicit and synchronous, so a subscriber that
// clears caches has done so before SetSiteID returns.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type persisted struct {
	SiteID string `json:"site_id"`
}

// Store is a file-backed settings store safe for concurrent use.
type Store struct {
	path string

	mu          sync.Mutex
	siteID      string
	subscribers map[int]func(siteID string)
	nextSubID   int
}

// Open loads the settings file at path, seeding the site id with
// defaultSiteID when no file exists yet.
func Open(path, defaultSiteID string) (*Store, error) {
	store := &Store{
		path:        path,
		siteID:      strings.TrimSpace(defaultSiteID),
		subscribers: make(map[int]func(string)),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if s := strings.TrimSpace(p.SiteID); s != "" {
		store.siteID = s
	}
	return store, nil
}

// SiteID returns the active site id, which may be empty when the device has
// not been assigned to a site yet.
func (s *Store) SiteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.siteID
}

// SetSiteID persists the new site id and notifies subscribers. Setting the
// current value again is a no-op and does not notify. An empty value clears
// the assignment.
func (s *Store) SetSiteID(siteID string) error {
	siteID = strings.TrimSpace(siteID)

	s.mu.Lock()
	if siteID == s.siteID {
		s.mu.Unlock()
		return nil
	}
	s.siteID = siteID
	if err := s.persistLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	observers := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(siteID)
	}
	return nil
}

// Reload re-reads the backing file and reports a site id written by another
// process, such as the CLI reassigning a running daemon's device. The
// in-memory value is updated on change; subscribers are not notified because
// the caller observes the change directly through the return values. A
// missing file leaves the current value in place.
func (s *Store) Reload() (siteID string, changed bool, err error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.SiteID(), false, nil
		}
		return "", false, fmt.Errorf("read settings: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", false, fmt.Errorf("parse settings: %w", err)
	}
	next := strings.TrimSpace(p.SiteID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if next == s.siteID {
		return s.siteID, false, nil
	}
	s.siteID = next
	return next, true, nil
}

// Subscribe registers an observer for site-id changes and returns a function
// that removes it. Observers run synchronously on the goroutine calling
// SetSiteID.
func (s *Store) Subscribe(fn func(siteID string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(persisted{SiteID: s.siteID}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
