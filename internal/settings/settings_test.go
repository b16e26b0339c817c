package settings_test

import (
	"path/filepath"
	"testing"

	"tapline/internal/settings"
)

func TestOpenSeedsDefaultAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store, err := settings.Open(path, "site-default")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.SiteID() != "site-default" {
		t.Fatalf("SiteID = %q", store.SiteID())
	}

	if err := store.SetSiteID("site-42"); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}

	reopened, err := settings.Open(path, "site-default")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.SiteID() != "site-42" {
		t.Fatalf("persisted SiteID = %q", reopened.SiteID())
	}
}

func TestReloadSeesExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	daemon, err := settings.Open(path, "site-a")
	if err != nil {
		t.Fatalf("Open daemon store: %v", err)
	}
	cli, err := settings.Open(path, "site-a")
	if err != nil {
		t.Fatalf("Open cli store: %v", err)
	}

	// Another process writes a new assignment through its own handle.
	if err := cli.SetSiteID("site-b"); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}
	if daemon.SiteID() != "site-a" {
		t.Fatalf("SiteID before reload = %q", daemon.SiteID())
	}

	siteID, changed, err := daemon.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !changed || siteID != "site-b" {
		t.Fatalf("Reload = (%q, %v), want (site-b, true)", siteID, changed)
	}
	if daemon.SiteID() != "site-b" {
		t.Fatalf("SiteID after reload = %q", daemon.SiteID())
	}

	// A second reload with no further writes reports no change.
	if _, changed, err := daemon.Reload(); err != nil || changed {
		t.Fatalf("second Reload = (changed=%v, err=%v)", changed, err)
	}
}

func TestReloadWithoutFileKeepsCurrentValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := settings.Open(path, "site-a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	siteID, changed, err := store.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if changed || siteID != "site-a" {
		t.Fatalf("Reload = (%q, %v), want (site-a, false)", siteID, changed)
	}
}

func TestSubscribeNotifiesOnChangeOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := settings.Open(path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var seen []string
	unsubscribe := store.Subscribe(func(siteID string) {
		seen = append(seen, siteID)
	})

	if err := store.SetSiteID("site-1"); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}
	// Re-setting the same value must not notify.
	if err := store.SetSiteID("  site-1  "); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}
	if err := store.SetSiteID("site-2"); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}

	unsubscribe()
	if err := store.SetSiteID("site-3"); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}

	if len(seen) != 2 || seen[0] != "site-1" || seen[1] != "site-2" {
		t.Fatalf("notifications = %v", seen)
	}
}

func TestClearingSiteNotifiesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := settings.Open(path, "site-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got string
	called := false
	store.Subscribe(func(siteID string) {
		got = siteID
		called = true
	})

	if err := store.SetSiteID(""); err != nil {
		t.Fatalf("SetSiteID: %v", err)
	}
	if !called || got != "" {
		t.Fatalf("called=%v got=%q", called, got)
	}
}
