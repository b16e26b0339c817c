package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tapline/internal/config"
	"tapline/internal/remote"
)

func newTestClient(t *testing.T, handler http.Handler) *remote.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Remote.BaseURL = server.URL
	cfg.Remote.APIKey = "test-key"
	return remote.NewClient(&cfg, nil)
}

func TestFetchRosterSkipsBadgelessRecords(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/roster" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("site_id"); got != "site-1" {
			t.Errorf("site_id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{"badge_id": "A100", "ref_id": "LRN-1", "first_name": "Ana", "last_name": "Reyes"},
				{"badge_id": "", "ref_id": "LRN-2"},
			},
		})
	}))

	records, err := client.FetchRoster(context.Background(), "site-1")
	if err != nil {
		t.Fatalf("FetchRoster: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].BadgeID != "A100" || records[0].FirstName != "Ana" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestSubmitArrivalSendsCapturedInstant(t *testing.T) {
	captured := time.Date(2026, 3, 2, 0, 15, 0, 0, time.UTC)
	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/attendance" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"ID": "row-1"}})
	}))

	err := client.SubmitArrival(context.Background(), remote.Arrival{
		BadgeRef:   "LRN-1",
		SiteYear:   "2025-2026",
		Cohort:     "Grade 7",
		BadgeID:    "A100",
		CapturedAt: captured,
	})
	if err != nil {
		t.Fatalf("SubmitArrival: %v", err)
	}
	if got["action"] != "arrival" || got["badge_ref"] != "LRN-1" {
		t.Fatalf("payload = %+v", got)
	}
	if got["captured_at"] != captured.Format(time.RFC3339Nano) {
		t.Fatalf("captured_at = %v", got["captured_at"])
	}
}

func TestSubmitDepartureMapsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "no arrival row today"})
	}))

	err := client.SubmitDeparture(context.Background(), remote.Departure{
		BadgeRef:   "LRN-1",
		CapturedAt: time.Now().UTC(),
	})
	if !errors.Is(err, remote.ErrNoPriorArrival) {
		t.Fatalf("err = %v, want ErrNoPriorArrival", err)
	}
}

func TestRejectedAndUnreachableAreDistinct(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"error": "bad cohort"})
	}))

	err := client.SubmitArrival(context.Background(), remote.Arrival{BadgeRef: "LRN-1", CapturedAt: time.Now()})
	if !errors.Is(err, remote.ErrRemoteRejected) {
		t.Fatalf("err = %v, want ErrRemoteRejected", err)
	}
	if errors.Is(err, remote.ErrRemoteUnreachable) {
		t.Fatalf("rejection must not look like a transport failure: %v", err)
	}

	cfg := config.Default()
	cfg.Remote.BaseURL = "http://127.0.0.1:1"
	cfg.Remote.RequestTimeout = 1
	down := remote.NewClient(&cfg, nil)
	err = down.SubmitArrival(context.Background(), remote.Arrival{BadgeRef: "LRN-1", CapturedAt: time.Now()})
	if !errors.Is(err, remote.ErrRemoteUnreachable) {
		t.Fatalf("err = %v, want ErrRemoteUnreachable", err)
	}
}

func TestFetchScheduleSortsWindows(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/schedule" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"windows": []map[string]any{
				{"id": 2, "name": "Afternoon", "arrival_start": "12:30:00", "departure_start": "17:00:00"},
				{"id": 1, "name": "Morning", "arrival_start": "06:00:00", "departure_start": "11:30:00"},
				{"id": 3, "name": "Broken", "arrival_start": "nope", "departure_start": "17:00:00"},
			},
		})
	}))

	windows, err := client.FetchSchedule(context.Background(), "site-1")
	if err != nil {
		t.Fatalf("FetchSchedule: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("windows = %d, want 2 (malformed skipped)", len(windows))
	}
	if windows[0].Name != "Morning" || windows[1].Name != "Afternoon" {
		t.Fatalf("order = %s, %s", windows[0].Name, windows[1].Name)
	}
	if windows[0].ArrivalStart != 6*60 {
		t.Fatalf("arrival start = %v", windows[0].ArrivalStart)
	}
}

func TestFetchTodayAttendanceParsesBounds(t *testing.T) {
	var from, to string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from = r.URL.Query().Get("from")
		to = r.URL.Query().Get("to")
		json.NewEncoder(w).Encode(map[string]any{
			"rows": []map[string]any{
				{
					"id": "row-1", "badge_ref": "LRN-1", "badge_id": "A100",
					"first_name": "Ana", "last_name": "Reyes",
					"arrived_at": "2026-03-02 00:15:00+00", "departed_at": nil,
				},
			},
		})
	}))

	now := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	rows, err := client.FetchTodayAttendance(context.Background(), "site-1", now)
	if err != nil {
		t.Fatalf("FetchTodayAttendance: %v", err)
	}
	if from == "" || to == "" {
		t.Fatal("expected from/to query parameters")
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].ArrivedAt == nil || rows[0].DepartedAt != nil {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	want := time.Date(2026, 3, 2, 0, 15, 0, 0, time.UTC)
	if !rows[0].ArrivedAt.Equal(want) {
		t.Fatalf("arrived = %v, want %v", rows[0].ArrivedAt, want)
	}
}

func TestProbeReportsHealth(t *testing.T) {
	healthy := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	if !healthy.Probe(context.Background()) {
		t.Fatal("expected healthy probe")
	}

	cfg := config.Default()
	cfg.Remote.BaseURL = "http://127.0.0.1:1"
	cfg.Remote.RequestTimeout = 1
	if remote.NewClient(&cfg, nil).Probe(context.Background()) {
		t.Fatal("expected unreachable probe to fail")
	}
}
