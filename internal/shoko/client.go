package shoko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shokofin/internal/services"
)

const apiKeyHeader = "apikey"

// Client provides access to the Shoko Server API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a Shoko client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("shoko api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("shoko base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Version returns the server version string. It doubles as a reachability and
// credential check.
func (c *Client) Version(ctx context.Context) (string, error) {
	var payload struct {
		Server struct {
			Version string `json:"Version"`
		} `json:"Server"`
	}
	if err := c.get(ctx, "version", "/api/v3/Init/Version", nil, &payload); err != nil {
		return "", err
	}
	return payload.Server.Version, nil
}

// GetSeries fetches one series with its AniDB block.
func (c *Client) GetSeries(ctx context.Context, seriesID string) (*Series, error) {
	id, err := parseID("series", seriesID)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("includeDataFrom", "AniDB")
	var payload Series
	if err := c.get(ctx, "get series", "/api/v3/Series/"+strconv.Itoa(id), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSeriesTags fetches the tags of a series.
func (c *Client) GetSeriesTags(ctx context.Context, seriesID string) ([]Tag, error) {
	id, err := parseID("series", seriesID)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("excludeDescriptions", "true")
	var payload []Tag
	if err := c.get(ctx, "get series tags", "/api/v3/Series/"+strconv.Itoa(id)+"/Tags", params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetSeriesCast fetches the cast and staff credits of a series.
func (c *Client) GetSeriesCast(ctx context.Context, seriesID string) ([]Cast, error) {
	id, err := parseID("series", seriesID)
	if err != nil {
		return nil, err
	}
	var payload []Cast
	if err := c.get(ctx, "get series cast", "/api/v3/Series/"+strconv.Itoa(id)+"/Cast", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetGroup fetches one group.
func (c *Client) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	id, err := parseID("group", groupID)
	if err != nil {
		return nil, err
	}
	var payload Group
	if err := c.get(ctx, "get group", "/api/v3/Group/"+strconv.Itoa(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetGroupSeries fetches the series directly inside a group.
func (c *Client) GetGroupSeries(ctx context.Context, groupID string) ([]Series, error) {
	id, err := parseID("group", groupID)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("recursive", "false")
	params.Set("includeDataFrom", "AniDB")
	var payload []Series
	if err := c.get(ctx, "get group series", "/api/v3/Group/"+strconv.Itoa(id)+"/Series", params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "shoko", operation, "parse url", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "shoko", operation, "build request", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrTransient, "shoko", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrNotFound, "shoko", operation, path, nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrConfiguration, "shoko", operation, fmt.Sprintf("api key rejected with %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrExternal, "shoko", operation,
			fmt.Sprintf("returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(body))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternal, "shoko", operation, "decode response", err)
	}
	return nil
}

func parseID(kind, value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrNotFound, "shoko", "parse id", fmt.Sprintf("invalid %s id %q", kind, value), nil)
	}
	return id, nil
}
