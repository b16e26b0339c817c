package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tapline/internal/config"
	"tapline/internal/logging"
	"tapline/internal/schedule"
)

const gatewayBase = "https://api.semaphore.co/api/v4"

// Service defines the guardian messaging surface exposed to the capture and
// sync paths.
type Service interface {
	SendAttendance(ctx context.Context, contact, firstName, lastName string, action schedule.Action, capturedAt time.Time) error
}

// NewService builds a Semaphore-backed service when messaging is enabled and
// an API key is configured. Otherwise a noop implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	apiKey := strings.TrimSpace(cfg.Messaging.APIKey)
	if !cfg.Messaging.Enabled || apiKey == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Messaging.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &semaphoreService{
		endpoint: gatewayBase + "/messages",
		apiKey:   apiKey,
		sender:   cfg.Messaging.SenderName,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.WithComponent(logger, "sms"),
	}
}

type semaphoreService struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
	logger   *slog.Logger
}

func (s *semaphoreService) SendAttendance(ctx context.Context, contact, firstName, lastName string, action schedule.Action, capturedAt time.Time) error {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil
	}

	message := AttendanceMessage(firstName, lastName, action, capturedAt)
	form := url.Values{}
	form.Set("apikey", s.apiKey)
	form.Set("number", NormalizeNumber(contact))
	form.Set("message", message)
	form.Set("sendername", s.sender)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send attendance message: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	// A 2xx with no message id still means the gateway dropped the send.
	var accepted []struct {
		MessageID json.Number `json:"message_id"`
		Status    string      `json:"status"`
		Recipient string      `json:"recipient"`
	}
	if err := json.Unmarshal(raw, &accepted); err != nil || len(accepted) == 0 || accepted[0].MessageID.String() == "" {
		return fmt.Errorf("gateway did not accept message: %s", strings.TrimSpace(string(raw)))
	}

	s.logger.Debug("attendance message sent",
		logging.String("recipient", accepted[0].Recipient),
		logging.String("status", accepted[0].Status))
	return nil
}

type noopService struct{}

func (noopService) SendAttendance(context.Context, string, string, string, schedule.Action, time.Time) error {
	return nil
}
