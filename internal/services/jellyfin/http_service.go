package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shokofin/internal/config"
	"shokofin/internal/services"
)

// HTTPDoer describes the HTTP client used by the Jellyfin notifier.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpNotifier struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewConfiguredNotifier returns a notifier that posts to Jellyfin when the
// integration is enabled and has credentials, and a no-op otherwise.
func NewConfiguredNotifier(cfg *config.Config) Notifier {
	if cfg == nil || !cfg.Jellyfin.Enabled {
		return NopNotifier{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Jellyfin.URL), "/")
	apiKey := strings.TrimSpace(cfg.Jellyfin.APIKey)
	if baseURL == "" || apiKey == "" {
		return NopNotifier{}
	}
	return &httpNotifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewHTTPNotifier constructs an HTTP-backed Jellyfin notifier.
func NewHTTPNotifier(baseURL, apiKey string, client HTTPDoer) Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpNotifier{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (n *httpNotifier) MediaUpdated(ctx context.Context, updates []MediaUpdate) error {
	if n == nil || n.client == nil || n.baseURL == "" || n.apiKey == "" || len(updates) == 0 {
		return nil
	}
	body, err := json.Marshal(struct {
		Updates []MediaUpdate `json:"Updates"`
	}{Updates: updates})
	if err != nil {
		return fmt.Errorf("encode jellyfin media updates: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/Library/Media/Updated", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build jellyfin media update request: %w", err)
	}
	req.Header.Set("X-Emby-Token", n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "jellyfin", "media updated", "request failed", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "jellyfin", "media updated", fmt.Sprintf("rejected api key (status %d)", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(services.ErrExternal, "jellyfin", "media updated", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	return nil
}
