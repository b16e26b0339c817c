package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tapline/internal/civiltime"
	"tapline/internal/config"
	"tapline/internal/logging"
	"tapline/internal/roster"
	"tapline/internal/schedule"
)

// Client is the attendance backend HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client from the remote configuration section.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Remote.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Remote.BaseURL, "/"),
		apiKey:     cfg.Remote.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.WithComponent(logger, "remote"),
	}
}

// FetchRoster downloads the full badge directory for a site.
func (c *Client) FetchRoster(ctx context.Context, siteID string) ([]roster.Record, error) {
	query := url.Values{}
	if siteID != "" {
		query.Set("site_id", siteID)
	}

	var payload rosterResponse
	if err := c.getJSON(ctx, "/api/roster", query, &payload); err != nil {
		return nil, err
	}

	records := make([]roster.Record, 0, len(payload.Records))
	for _, r := range payload.Records {
		if strings.TrimSpace(r.BadgeID) == "" {
			continue
		}
		records = append(records, roster.Record{
			BadgeID:   r.BadgeID,
			RefID:     r.RefID,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Cohort:    r.Cohort,
			SiteYear:  r.SiteYear,
			Contact:   r.Contact,
			SiteID:    r.SiteID,
		})
	}
	return records, nil
}

// SubmitArrival records an arrival with the scan's own captured instant.
func (c *Client) SubmitArrival(ctx context.Context, arrival Arrival) error {
	payload := attendancePayload{
		Action:     string(schedule.ActionArrival),
		BadgeRef:   strings.TrimSpace(arrival.BadgeRef),
		BadgeID:    strings.TrimSpace(arrival.BadgeID),
		Cohort:     arrival.Cohort,
		SiteYear:   arrival.SiteYear,
		CapturedAt: arrival.CapturedAt.UTC().Format(time.RFC3339Nano),
	}
	return c.postAttendance(ctx, payload)
}

// SubmitDeparture closes today's open arrival for the person. A 404 from the
// backend means no arrival exists to close and maps to ErrNoPriorArrival.
func (c *Client) SubmitDeparture(ctx context.Context, departure Departure) error {
	payload := attendancePayload{
		Action:     string(schedule.ActionDeparture),
		BadgeRef:   strings.TrimSpace(departure.BadgeRef),
		CapturedAt: departure.CapturedAt.UTC().Format(time.RFC3339Nano),
	}
	return c.postAttendance(ctx, payload)
}

func (c *Client) postAttendance(ctx context.Context, payload attendancePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode attendance payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/attendance", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build attendance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: submit %s: %v", ErrRemoteUnreachable, payload.Action, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound && payload.Action == string(schedule.ActionDeparture) {
		return fmt.Errorf("%w: badge ref %s", ErrNoPriorArrival, payload.BadgeRef)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rejectionError(resp, "submit "+payload.Action)
	}
	return nil
}

// FetchTodayAttendance returns the backend's reconciled rows for the current
// civil day at the site.
func (c *Client) FetchTodayAttendance(ctx context.Context, siteID string, now time.Time) ([]AttendanceRow, error) {
	start, end := civiltime.DayBounds(now)
	query := url.Values{}
	if siteID != "" {
		query.Set("site_id", siteID)
	}
	query.Set("from", start.UTC().Format(time.RFC3339Nano))
	query.Set("to", end.UTC().Format(time.RFC3339Nano))

	var payload todayResponse
	if err := c.getJSON(ctx, "/api/attendance/today", query, &payload); err != nil {
		return nil, err
	}

	rows := make([]AttendanceRow, 0, len(payload.Rows))
	for _, r := range payload.Rows {
		row := AttendanceRow{
			ID:          r.ID,
			BadgeRef:    r.BadgeRef,
			BadgeID:     r.BadgeID,
			Cohort:      r.Cohort,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			SessionName: r.SessionName,
		}
		if t, ok := parseOptionalInstant(r.ArrivedAt); ok {
			row.ArrivedAt = &t
		}
		if t, ok := parseOptionalInstant(r.DepartedAt); ok {
			row.DepartedAt = &t
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchSchedule downloads the site's session windows, sorted ascending by
// arrival start regardless of upstream order.
func (c *Client) FetchSchedule(ctx context.Context, siteID string) ([]schedule.Window, error) {
	query := url.Values{}
	if siteID != "" {
		query.Set("site_id", siteID)
	}

	var payload scheduleResponse
	if err := c.getJSON(ctx, "/api/schedule", query, &payload); err != nil {
		return nil, err
	}

	windows := make([]schedule.Window, 0, len(payload.Windows))
	for _, w := range payload.Windows {
		arrival, err := schedule.ParseTimeOfDay(w.ArrivalStart)
		if err != nil {
			c.logger.Warn("skipping malformed schedule window",
				logging.String("window", w.Name),
				logging.Error(err))
			continue
		}
		departure, err := schedule.ParseTimeOfDay(w.DepartureStart)
		if err != nil {
			c.logger.Warn("skipping malformed schedule window",
				logging.String("window", w.Name),
				logging.Error(err))
			continue
		}
		windows = append(windows, schedule.Window{
			ID:             w.ID,
			Name:           w.Name,
			ArrivalStart:   arrival,
			DepartureStart: departure,
		})
	}
	schedule.Sort(windows)
	return windows, nil
}

// Probe reports whether the backend currently answers. It is a cheap health
// check for the connectivity watcher, not a correctness gate.
func (c *Client) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer drainAndClose(resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", ErrRemoteUnreachable, path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rejectionError(resp, "get "+path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrRemoteRejected, path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func rejectionError(resp *http.Response, operation string) error {
	detail := strings.TrimSpace(readErrorDetail(resp.Body))
	if detail != "" {
		return fmt.Errorf("%w: %s: status %d: %s", ErrRemoteRejected, operation, resp.StatusCode, detail)
	}
	return fmt.Errorf("%w: %s: status %d", ErrRemoteRejected, operation, resp.StatusCode)
}

func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(raw)
}

func parseOptionalInstant(value *string) (time.Time, bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return time.Time{}, false
	}
	t, err := civiltime.ParseInstant(*value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
