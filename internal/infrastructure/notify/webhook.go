package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kevinzhao/taskflow/internal/application/port"
	"go.uber.org/zap"
)

// WebhookNotifier implements port.Notifier by POSTing notifications to a
// configured webhook endpoint (e.g. a chat-ops bridge). The engine treats
// delivery as a blocking dependency of the transition, so the request
// timeout doubles as the action deadline.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook-backed notifier
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type webhookPayload struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Notify delivers a message to a user via the webhook
func (n *WebhookNotifier) Notify(ctx context.Context, userID, message string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	body, err := json.Marshal(webhookPayload{UserID: userID, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("Notification delivery failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Error("Notification endpoint returned error",
			zap.String("user_id", userID),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Debug("Notification delivered", zap.String("user_id", userID))
	return nil
}

// LogNotifier implements port.Notifier by writing notifications to the
// application log. Used when no webhook endpoint is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify records the notification in the log
func (n *LogNotifier) Notify(ctx context.Context, userID, message string) error {
	n.logger.Info("Notification",
		zap.String("user_id", userID),
		zap.String("message", message))
	return nil
}

// Verify interface compliance
var (
	_ port.Notifier = (*WebhookNotifier)(nil)
	_ port.Notifier = (*LogNotifier)(nil)
)
