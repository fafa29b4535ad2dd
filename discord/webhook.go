// Package discord posts messages to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Client posts messages to a single configured webhook URL.
type Client struct {
	WebhookURL string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// FormatClipMessage renders the notification template for one clip.
func FormatClipMessage(channel, title, url string) string {
	return fmt.Sprintf("🎬 New clip from **%s**!\n**%s**\n%s", channel, title, url)
}

// Send posts content as a webhook message. The caller decides whether a failed
// delivery is retried; this client never retries.
func (c *Client) Send(ctx context.Context, content string) error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook url empty")
	}
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook failed: %s: %s", resp.Status, string(b))
	}
	return nil
}
