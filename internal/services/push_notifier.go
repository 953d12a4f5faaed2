package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storekit-relay/internal/models"
)

// Notifier delivers one alert to the downstream push channel. Failure must
// be distinguishable from success for the pipeline's terminal decision.
type Notifier interface {
	Send(ctx context.Context, title, body string, routing models.RoutingOverrides) error
}

// NtfyNotifier publishes alerts to an ntfy topic over HTTP.
type NtfyNotifier struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	token      string
}

// NewNtfyNotifier creates a notifier with global routing defaults
func NewNtfyNotifier(baseURL, topic, token string) *NtfyNotifier {
	return &NtfyNotifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		topic:   topic,
		token:   token,
	}
}

// Send publishes one message. Tenant routing overrides take precedence
// over the global configuration field by field.
func (n *NtfyNotifier) Send(ctx context.Context, title, body string, routing models.RoutingOverrides) error {
	baseURL := n.baseURL
	if routing.URL != "" {
		baseURL = routing.URL
	}
	topic := n.topic
	if routing.Topic != "" {
		topic = routing.Topic
	}
	token := n.token
	if routing.Token != "" {
		token = routing.Token
	}

	if baseURL == "" || topic == "" {
		return configurationErrorf("push channel is not configured: missing ntfy URL or topic")
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/" + topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return infrastructureErrorf("failed to create push request: %v", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return infrastructureErrorf("failed to send push: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return infrastructureErrorf("push channel returned status %d", resp.StatusCode)
	}
	return nil
}
