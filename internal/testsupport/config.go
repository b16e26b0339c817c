// Package testsupport provides helpers for constructing test configurations
// and stores backed by temporary directories.
package testsupport

import (
	"testing"

	"tapline/internal/config"
)

// NewConfig returns a validated configuration rooted in temporary
// directories, suitable for store and service tests.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Site.ID = "site-test"
	cfg.Site.Year = "2025-2026"
	cfg.Remote.BaseURL = "http://127.0.0.1:0"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate test config: %v", err)
	}
	return &cfg
}
