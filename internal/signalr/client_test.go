package signalr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"shokofin/internal/fileevents"
	"shokofin/internal/services"
	"shokofin/internal/testsupport"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// hubServer accepts hub connections and hands each one to serve after the
// handshake has been acknowledged.
func hubServer(t *testing.T, serve func(conn *websocket.Conn, attempt int)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	return hubServerWithAck(t, "{}\x1e", serve)
}

// hubServerWithAck is hubServer with a custom handshake response frame.
func hubServerWithAck(t *testing.T, ack string, serve func(conn *websocket.Conn, attempt int)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != hubPath || r.URL.Query().Get("feeds") != hubFeeds {
			t.Errorf("unexpected hub request: %s", r.URL.String())
		}
		if key := r.Header.Get("apikey"); key != "test" {
			t.Errorf("unexpected api key %q", key)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		attempt := int(attempts.Add(1))

		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !strings.Contains(string(frame), `"protocol":"json"`) || frame[len(frame)-1] != recordSeparator {
			t.Errorf("unexpected handshake %q", frame)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(ack)); err != nil {
			return
		}
		serve(conn, attempt)
	}))
	t.Cleanup(server.Close)
	return server, &attempts
}

func waitForClose(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestClientDispatchesFileNotifications(t *testing.T) {
	server, _ := hubServer(t, func(conn *websocket.Conn, _ int) {
		frame := `{"type":6}` + "\x1e" +
			`{"type":1,"target":"ShokoEvent:FileHashed","arguments":[{}]}` + "\x1e" +
			`{"type":1,"target":"ShokoEvent:FileMatched","arguments":[{"FileID":12,"ImportFolderID":1,"RelativePath":"Show/ep.mkv","CrossReferences":[{"EpisodeID":1,"AnimeID":2}]}]}` + "\x1e"
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		waitForClose(conn)
	})

	cfg := testsupport.NewConfig(t, testsupport.WithShokoURL(server.URL))
	events := make(chan *fileevents.Envelope, 4)
	client, err := New(cfg, HandlerFunc(func(_ context.Context, env *fileevents.Envelope) error {
		events <- env
		return nil
	}), nil, WithBackoff(10*time.Millisecond, 20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	select {
	case env := <-events:
		if env.Kind != fileevents.KindMatched || env.File.FileID != 12 {
			t.Fatalf("unexpected envelope: %#v", env)
		}
		if env.File.ReferenceSource() != fileevents.ReferencesCurrent || len(env.File.CrossReferences) != 1 {
			t.Fatalf("unexpected references: %#v", env.File.CrossReferences)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	if got := client.Received(); got != 1 {
		t.Fatalf("Received = %d, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if client.Connected() {
		t.Fatal("expected client to report disconnected after Run returns")
	}
}

func TestClientDispatchesMessagesSharingHandshakeFrame(t *testing.T) {
	ack := "{}\x1e" +
		`{"type":1,"target":"ShokoEvent:FileDeleted","arguments":[{"FileID":31,"ImportFolderID":1,"RelativePath":"Show/old.mkv"}]}` + "\x1e"
	server, _ := hubServerWithAck(t, ack, func(conn *websocket.Conn, _ int) {
		waitForClose(conn)
	})

	cfg := testsupport.NewConfig(t, testsupport.WithShokoURL(server.URL))
	events := make(chan *fileevents.Envelope, 1)
	client, err := New(cfg, HandlerFunc(func(_ context.Context, env *fileevents.Envelope) error {
		events <- env
		return nil
	}), nil, WithBackoff(10*time.Millisecond, 20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	select {
	case env := <-events:
		if env.Kind != fileevents.KindDeleted || env.File.FileID != 31 {
			t.Fatalf("unexpected envelope: %#v", env)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification sent with the handshake response")
	}
}

func TestClientReconnectsAfterServerClose(t *testing.T) {
	server, attempts := hubServer(t, func(conn *websocket.Conn, attempt int) {
		if attempt == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":7}`+"\x1e"))
			return
		}
		payload := `{"type":1,"target":"ShokoEvent:FileRenamed","arguments":[{"FileID":3,"ImportFolderID":1,"RelativePath":"Show/new.mkv","PreviousFileName":"old.mkv"}]}` + "\x1e"
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			return
		}
		waitForClose(conn)
	})

	cfg := testsupport.NewConfig(t, testsupport.WithShokoURL(server.URL))
	events := make(chan *fileevents.Envelope, 1)
	client, err := New(cfg, HandlerFunc(func(_ context.Context, env *fileevents.Envelope) error {
		events <- env
		return nil
	}), nil, WithBackoff(10*time.Millisecond, 20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	select {
	case env := <-events:
		if env.Kind != fileevents.KindRenamed || env.Moved == nil {
			t.Fatalf("unexpected envelope: %#v", env)
		}
		if env.Moved.PreviousInternalPath != "Show/old.mkv" {
			t.Fatalf("PreviousInternalPath = %q", env.Moved.PreviousInternalPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification after reconnect")
	}
	if got := attempts.Load(); got < 2 {
		t.Fatalf("expected a reconnect, got %d attempts", got)
	}
}

func TestHandshakeErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unsupported protocol"}`+"\x1e"))
		waitForClose(conn)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithShokoURL(server.URL))
	client, err := New(cfg, HandlerFunc(func(context.Context, *fileevents.Envelope) error { return nil }), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	established, err := client.runOnce(context.Background())
	if established {
		t.Fatal("expected handshake failure to report no connection")
	}
	if !errors.Is(err, services.ErrExternal) || !strings.Contains(err.Error(), "unsupported protocol") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFeedURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://127.0.0.1:8111", "ws://127.0.0.1:8111/signalr/aggregate?feeds=shoko"},
		{"https://shoko.example/", "wss://shoko.example/signalr/aggregate?feeds=shoko"},
		{"http://host/shoko/", "ws://host/shoko/signalr/aggregate?feeds=shoko"},
	}
	for _, tc := range cases {
		got, err := FeedURL(tc.base)
		if err != nil {
			t.Fatalf("FeedURL(%q): %v", tc.base, err)
		}
		if got != tc.want {
			t.Fatalf("FeedURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
	if _, err := FeedURL("ftp://host"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for ftp scheme, got %v", err)
	}
}

func TestSplitRecordsAndTargets(t *testing.T) {
	records := splitRecords([]byte("{\"type\":6}\x1e\x1e{\"type\":7}\x1e"))
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, target := range []string{TargetFileMatched, TargetFileDeleted, TargetFileMoved, TargetFileRenamed} {
		if _, ok := KindForTarget(target); !ok {
			t.Fatalf("expected %s to map to a kind", target)
		}
	}
	if _, ok := KindForTarget("ShokoEvent:FileHashed"); ok {
		t.Fatal("unexpected kind for unrelated target")
	}
}
