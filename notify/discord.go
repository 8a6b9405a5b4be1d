package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 10 * time.Second

// DiscordWebhook posts messages to Discord-compatible webhook URLs.
type DiscordWebhook struct {
	httpClient *http.Client
}

type discordPayload struct {
	Content string `json:"content"`
}

// NewDiscordWebhook creates a webhook transport. A non-positive timeout uses
// DefaultTimeout.
func NewDiscordWebhook(timeout time.Duration) *DiscordWebhook {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DiscordWebhook{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts {"content": content} to target. Any non-2xx response is an
// error.
func (d *DiscordWebhook) Send(ctx context.Context, target, content string) error {
	body, err := json.Marshal(discordPayload{Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
