package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"bookmarket-api/internal/core/domain"
)

// NotificationSink receives overdue-loan events
type NotificationSink interface {
	Notify(ctx context.Context, event domain.OverdueEvent) error
}

// LogSink writes one log line per event
type LogSink struct{}

// Notify logs the event
func (LogSink) Notify(_ context.Context, event domain.OverdueEvent) error {
	log.Printf("⏰ Loan overdue: loan=%d user=%s book=%q overdue by %d day(s)",
		event.LoanID, event.Username, event.BookTitle, event.DaysOverdue)
	return nil
}

// WebhookSink POSTs each event as JSON to a URL
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink with a bounded HTTP client
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends the event
func (s *WebhookSink) Notify(ctx context.Context, event domain.OverdueEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

// MultiSink delivers to every sink and joins their errors
type MultiSink []NotificationSink

// Notify delivers to all sinks
func (m MultiSink) Notify(ctx context.Context, event domain.OverdueEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewNotificationSink logs every event and additionally posts to webhookURL when set
func NewNotificationSink(webhookURL string) NotificationSink {
	if webhookURL == "" {
		return LogSink{}
	}
	return MultiSink{LogSink{}, NewWebhookSink(webhookURL)}
}
