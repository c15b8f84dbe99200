// Package notify delivers best-effort text notifications, e.g. "report
// published" pings to the client channel. Delivery failures are logged
// and never propagate into report operations.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a short text message to a channel reference. A false
// return means the message was not delivered; callers treat it as
// informational only.
type Sender interface {
	Send(ctx context.Context, channelRef, text string) bool
}

// WebhookSender posts notifications to a messaging webhook.
type WebhookSender struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookSender creates a sender for the given webhook URL.
func NewWebhookSender(webhookURL string, logger *zap.Logger) *WebhookSender {
	return &WebhookSender{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

type webhookPayload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// Send posts the message. Fire-and-forget: any failure is logged and
// reported as false.
func (s *WebhookSender) Send(ctx context.Context, channelRef, text string) bool {
	body, err := json.Marshal(webhookPayload{Channel: channelRef, Text: text})
	if err != nil {
		s.logger.Warn("notification marshal failed", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("notification request build failed", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("channel", channelRef),
			zap.Error(err),
		)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("notification rejected",
			zap.String("channel", channelRef),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
		return false
	}
	return true
}

// NopSender discards all notifications. Used when no webhook is
// configured and in tests.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, channelRef, text string) bool { return true }

// RecordingSender captures sent messages, for tests.
type RecordingSender struct {
	Messages []string
	Fail     bool
}

func (r *RecordingSender) Send(ctx context.Context, channelRef, text string) bool {
	r.Messages = append(r.Messages, text)
	return !r.Fail
}
