package signalr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"shokofin/internal/config"
	"shokofin/internal/fileevents"
	"shokofin/internal/logging"
	"shokofin/internal/services"
)

const (
	hubPath          = "/signalr/aggregate"
	hubFeeds         = "shoko"
	handshakeWait    = 10 * time.Second
	defaultKeepAlive = 15 * time.Second
)

// Handler receives decoded file notifications.
type Handler interface {
	HandleFileEvent(ctx context.Context, env *fileevents.Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env *fileevents.Envelope) error

// HandleFileEvent implements Handler.
func (f HandlerFunc) HandleFileEvent(ctx context.Context, env *fileevents.Envelope) error {
	return f(ctx, env)
}

// Client maintains the hub connection.
type Client struct {
	url          string
	apiKey       string
	handler      Handler
	logger       *slog.Logger
	dialer       *websocket.Dialer
	reconnect    time.Duration
	maxReconnect time.Duration
	keepAlive    time.Duration

	connected atomic.Bool
	received  atomic.Int64
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer overrides the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithBackoff overrides the reconnect delays.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.reconnect = initial
		}
		if max >= c.reconnect {
			c.maxReconnect = max
		}
	}
}

// WithKeepAlive sets the interval between client pings.
func WithKeepAlive(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.keepAlive = interval
		}
	}
}

// New constructs a feed client for the configured Shoko server.
func New(cfg *config.Config, handler Handler, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "signalr", "new", "config required", nil)
	}
	if handler == nil {
		return nil, services.Wrap(services.ErrValidation, "signalr", "new", "handler required", nil)
	}
	feedURL, err := FeedURL(cfg.Shoko.URL)
	if err != nil {
		return nil, err
	}
	client := &Client{
		url:          feedURL,
		apiKey:       cfg.Shoko.APIKey,
		handler:      handler,
		logger:       logging.NewComponentLogger(logger, "signalr"),
		dialer:       websocket.DefaultDialer,
		reconnect:    time.Duration(cfg.Events.ReconnectSeconds) * time.Second,
		maxReconnect: time.Duration(cfg.Events.MaxReconnectSeconds) * time.Second,
		keepAlive:    defaultKeepAlive,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.reconnect <= 0 {
		client.reconnect = time.Second
	}
	if client.maxReconnect < client.reconnect {
		client.maxReconnect = client.reconnect
	}
	return client, nil
}

// FeedURL converts a Shoko base URL into the websocket hub address.
func FeedURL(base string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil || parsed.Host == "" {
		return "", services.Wrap(services.ErrConfiguration, "signalr", "feed url", fmt.Sprintf("invalid shoko url %q", base), err)
	}
	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return "", services.Wrap(services.ErrConfiguration, "signalr", "feed url", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + hubPath
	parsed.RawQuery = url.Values{"feeds": []string{hubFeeds}}.Encode()
	return parsed.String(), nil
}

// URL returns the hub address.
func (c *Client) URL() string { return c.url }

// Connected reports whether the hub handshake has completed on a live connection.
func (c *Client) Connected() bool { return c.connected.Load() }

// Received returns the number of file notifications dispatched so far.
func (c *Client) Received() int64 { return c.received.Load() }

// Run connects and reconnects until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	delay := c.reconnect
	for {
		established, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			delay = c.reconnect
		}
		if err != nil {
			c.logger.Warn("shoko feed disconnected",
				logging.String(logging.FieldEventType, "feed_disconnected"),
				logging.String(logging.FieldErrorHint, "verify Shoko Server is running and the api key is valid"),
				logging.String(logging.FieldImpact, "file notifications are delayed until the feed reconnects"),
				logging.Duration("retry_in", delay),
				logging.Error(err),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if next := delay * 2; next <= c.maxReconnect {
			delay = next
		} else {
			delay = c.maxReconnect
		}
	}
}

func (c *Client) runOnce(ctx context.Context) (bool, error) {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("apikey", c.apiKey)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return false, services.Wrap(services.ErrConfiguration, "signalr", "dial", fmt.Sprintf("rejected api key (status %d)", resp.StatusCode), err)
		}
		return false, services.Wrap(services.ErrTransient, "signalr", "dial", c.url, err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(v any) error {
		record, err := encodeRecord(v)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, record)
	}

	pending, err := c.handshake(conn, write)
	if err != nil {
		return false, err
	}
	c.connected.Store(true)
	defer c.connected.Store(false)
	c.logger.Info("shoko feed connected", logging.String("url", c.url))
	if closed, err := c.dispatchAll(ctx, pending); err != nil || closed {
		return true, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	go func() {
		ticker := time.NewTicker(c.keepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := write(message{Type: messagePing}); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, services.Wrap(services.ErrTransient, "signalr", "read", "connection lost", err)
		}
		if closed, err := c.dispatchAll(ctx, splitRecords(frame)); err != nil || closed {
			return true, err
		}
	}
}

// handshake negotiates the protocol and returns any hub messages the server
// sent in the same frame as its response.
func (c *Client) handshake(conn *websocket.Conn, write func(any) error) ([][]byte, error) {
	if err := write(handshakeRequest{Protocol: "json", Version: 1}); err != nil {
		return nil, services.Wrap(services.ErrTransient, "signalr", "handshake", "send", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "signalr", "handshake", "receive", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	records := splitRecords(frame)
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrExternal, "signalr", "handshake", "empty response", nil)
	}
	var resp handshakeResponse
	if err := json.Unmarshal(records[0], &resp); err != nil {
		return nil, services.Wrap(services.ErrExternal, "signalr", "handshake", "decode response", err)
	}
	if resp.Error != "" {
		return nil, services.Wrap(services.ErrExternal, "signalr", "handshake", resp.Error, nil)
	}
	return records[1:], nil
}

func (c *Client) dispatchAll(ctx context.Context, records [][]byte) (bool, error) {
	for _, record := range records {
		closed, err := c.dispatch(ctx, record)
		if err != nil || closed {
			return true, err
		}
	}
	return false, nil
}

// dispatch handles one hub message and reports whether the server closed the
// connection.
func (c *Client) dispatch(ctx context.Context, record []byte) (bool, error) {
	msg, err := parseMessage(record)
	if err != nil {
		c.logger.Debug("ignoring malformed hub message", logging.Error(err))
		return false, nil
	}
	switch msg.Type {
	case messagePing:
		return false, nil
	case messageClose:
		if msg.Error != "" {
			return true, services.Wrap(services.ErrExternal, "signalr", "close", msg.Error, nil)
		}
		return true, nil
	case messageInvocation:
	default:
		return false, nil
	}

	kind, ok := KindForTarget(msg.Target)
	if !ok {
		c.logger.Debug("ignoring hub target", logging.String("target", msg.Target))
		return false, nil
	}
	if len(msg.Arguments) == 0 {
		logging.WarnWithContext(c.logger, "file notification without payload", "feed_payload_missing",
			logging.String("target", msg.Target),
			logging.String(logging.FieldImpact, "notification skipped"),
		)
		return false, nil
	}
	env, err := fileevents.Decode(kind, msg.Arguments[0])
	if err != nil {
		logging.WarnWithContext(c.logger, "file notification could not be decoded", "feed_payload_invalid",
			logging.String("target", msg.Target),
			logging.Error(err),
			logging.String(logging.FieldImpact, "notification skipped"),
		)
		return false, nil
	}
	c.received.Add(1)
	if err := c.handler.HandleFileEvent(ctx, env); err != nil {
		if services.IsCancellation(err) && ctx.Err() != nil {
			return true, nil
		}
		logging.WarnWithContext(c.logger, "file notification handler failed", "feed_handler_failed",
			logging.String("target", msg.Target),
			logging.FileID(env.File.FileID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "tracked file state may be stale until the next notification"),
		)
	}
	return false, nil
}
