package testsupport

import (
	"testing"

	"tapline/internal/config"
	"tapline/internal/storage"
)

// MustOpenDB opens the sqlite database for cfg and closes it when the test
// finishes.
func MustOpenDB(t testing.TB, cfg *config.Config) *storage.DB {
	t.Helper()

	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}
