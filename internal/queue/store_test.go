package queue_test

import (
	"context"
	"testing"
	"time"

	"tapline/internal/queue"
	"tapline/internal/schedule"
	"tapline/internal/testsupport"
)

func TestEnqueuePersistsScanInstant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := queue.NewStore(db)
	ctx := context.Background()

	captured := time.Date(2026, 3, 2, 8, 15, 30, 0, time.UTC)
	event, err := store.Enqueue(ctx, "A100", schedule.ActionArrival, captured)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if event.ID == "" {
		t.Fatal("expected generated event id")
	}
	if event.Synced {
		t.Fatal("new event must start unsynced")
	}

	pending, err := store.ListUnsynced(ctx)
	if err != nil {
		t.Fatalf("ListUnsynced: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if !pending[0].CapturedAt.Equal(captured) {
		t.Fatalf("captured = %v, want %v", pending[0].CapturedAt, captured)
	}
	if pending[0].Action != schedule.ActionArrival {
		t.Fatalf("action = %q", pending[0].Action)
	}
}

func TestMarkSyncedHidesEventFromPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := queue.NewStore(db)
	ctx := context.Background()

	event, err := store.Enqueue(ctx, "A100", schedule.ActionArrival, time.Now().UTC())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.MarkSynced(ctx, event.ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	pending, err := store.ListUnsynced(ctx)
	if err != nil {
		t.Fatalf("ListUnsynced: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d after mark, want 0", len(pending))
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d after mark, want 0", count)
	}
}

func TestMarkSyncedAndDeleteAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := queue.NewStore(db)
	ctx := context.Background()

	if err := store.MarkSynced(ctx, "no-such-id"); err != nil {
		t.Fatalf("MarkSynced on absent id: %v", err)
	}
	if err := store.Delete(ctx, "no-such-id"); err != nil {
		t.Fatalf("Delete on absent id: %v", err)
	}

	event, err := store.Enqueue(ctx, "A100", schedule.ActionDeparture, time.Now().UTC())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := store.Delete(ctx, event.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, event.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestRecentOrdersByCapturedDescending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDB(t, cfg)
	store := queue.NewStore(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	// Enqueue out of chronological order on purpose.
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		if _, err := store.Enqueue(ctx, "A100", schedule.ActionArrival, base.Add(offset)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(recent))
	}
	if !recent[0].CapturedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("recent[0] = %v", recent[0].CapturedAt)
	}
	if !recent[1].CapturedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("recent[1] = %v", recent[1].CapturedAt)
	}
}

func TestSortByCapturedIsAscending(t *testing.T) {
	base := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	events := []*queue.Event{
		{ID: "c", CapturedAt: base.Add(2 * time.Hour)},
		{ID: "a", CapturedAt: base},
		{ID: "b", CapturedAt: base.Add(time.Hour)},
	}
	queue.SortByCaptured(events)
	if events[0].ID != "a" || events[1].ID != "b" || events[2].ID != "c" {
		t.Fatalf("order = %s %s %s", events[0].ID, events[1].ID, events[2].ID)
	}
}
