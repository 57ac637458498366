// Package notify posts operator notifications to a Discord webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Kind colours a notification.
type Kind int

const (
	KindInfo Kind = iota
	KindWarn
	KindError
)

func (k Kind) color() int {
	switch k {
	case KindWarn:
		return 0xFFA500
	case KindError:
		return 0xFF0000
	}
	return 0x00FF00
}

// Event is one notification.
type Event struct {
	Kind    Kind
	Title   string
	Message string
	Time    time.Time
}

// Notifier delivers events to a webhook. The webhook lives in the saved
// configuration, so it is passed per call.
type Notifier interface {
	Notify(ctx context.Context, webhookURL string, ev Event) error
}

// Discord posts events as webhook embeds.
type Discord struct {
	client *http.Client
}

// NewDiscord returns a Discord notifier. A nil client gets a 10s timeout.
func NewDiscord(client *http.Client) *Discord {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Discord{client: client}
}

// Notify sends ev. An empty webhook URL disables delivery.
func (d *Discord) Notify(ctx context.Context, webhookURL string, ev Event) error {
	if webhookURL == "" {
		return nil
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	payload := map[string]interface{}{
		"content": "🤖 **Lotto Bot Notification**",
		"embeds": []map[string]interface{}{{
			"title":       ev.Title,
			"description": ev.Message,
			"color":       ev.Kind.color(),
			"timestamp":   ev.Time.Format(time.RFC3339),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}
