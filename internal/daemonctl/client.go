package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shokofin/internal/config"
	"shokofin/internal/daemon"
	"shokofin/internal/filestore"
	"shokofin/internal/season"
	"shokofin/internal/services"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

const defaultTimeout = 5 * time.Second

// Client issues requests against the daemon HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the API bound at cfg.Paths.APIBind. Wildcard
// listen addresses are dialed on loopback.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemonctl", "new client", "config required", nil)
	}
	base, err := baseURLForBind(cfg.Paths.APIBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    base,
		token:      strings.TrimSpace(cfg.Paths.APIToken),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	var status daemon.Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ResolveSeason asks the daemon to resolve a season request.
func (c *Client) ResolveSeason(ctx context.Context, req season.Request) (*season.Result, error) {
	var result season.Result
	if err := c.do(ctx, http.MethodPost, "/api/seasons/resolve", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Files lists tracked files, restricted to one Shoko episode when episodeID
// is positive.
func (c *Client) Files(ctx context.Context, episodeID int) ([]filestore.File, error) {
	path := "/api/files"
	if episodeID > 0 {
		path += "?episode=" + strconv.Itoa(episodeID)
	}
	var resp daemon.FileListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isUnavailable(err) {
			return ErrDaemonNotRunning
		}
		return services.Wrap(services.ErrTransient, "daemonctl", method+" "+path, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(method+" "+path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(op string, status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}
	marker := services.ErrExternal
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		marker = services.ErrConfiguration
		message = "unauthorized (check paths.api_token)"
	case http.StatusNotFound:
		marker = services.ErrNotFound
	case http.StatusBadRequest:
		marker = services.ErrValidation
	}
	return services.Wrap(marker, "daemonctl", op, fmt.Sprintf("status %d: %s", status, message), nil)
}

func isUnavailable(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func baseURLForBind(bind string) (string, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return "", services.Wrap(services.ErrConfiguration, "daemonctl", "resolve api address", "paths.api_bind is empty", nil)
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "daemonctl", "resolve api address", fmt.Sprintf("invalid paths.api_bind %q", bind), err)
	}
	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}
