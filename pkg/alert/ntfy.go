package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cuemby/keepalive/pkg/config"
)

const defaultNtfyServer = "https://ntfy.sh"

// NtfyNotifier publishes alerts to ntfy.sh or a self-hosted ntfy server.
// The topic is the ntfy topic name.
type NtfyNotifier struct {
	serverURL string
	token     string
	client    *http.Client
}

// NewNtfyNotifier creates an ntfy notifier
func NewNtfyNotifier(cfg config.NtfyConfig) *NtfyNotifier {
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = defaultNtfyServer
	}
	return &NtfyNotifier{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		token:     cfg.Token,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish implements Notifier using the ntfy JSON publish API
func (n *NtfyNotifier) Publish(ctx context.Context, topic, subject, message string) error {
	body, err := json.Marshal(map[string]any{
		"topic":    topic,
		"title":    subject,
		"message":  message,
		"tags":     []string{"rotating_light"},
		"priority": 4,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.serverURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
