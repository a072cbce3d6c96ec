package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"shokofin/internal/config"
	"shokofin/internal/fileevents"
	"shokofin/internal/services"
)

func TestHTTPNotifierPostsMediaUpdates(t *testing.T) {
	var received struct {
		Updates []MediaUpdate `json:"Updates"`
	}
	called := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Library/Media/Updated" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if token := r.Header.Get("X-Emby-Token"); token != "token-123" {
			t.Errorf("unexpected token: %q", token)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Jellyfin.Enabled = true
	cfg.Jellyfin.URL = server.URL + "/"
	cfg.Jellyfin.APIKey = "token-123"

	notifier := NewConfiguredNotifier(&cfg)
	if _, ok := notifier.(*httpNotifier); !ok {
		t.Fatalf("expected httpNotifier, got %T", notifier)
	}

	updates := []MediaUpdate{{Path: "/mnt/anime/Show/ep.mkv", UpdateType: UpdateCreated}}
	if err := notifier.MediaUpdated(context.Background(), updates); err != nil {
		t.Fatalf("MediaUpdated returned error: %v", err)
	}
	if !called {
		t.Fatal("expected media update endpoint to be called")
	}
	if len(received.Updates) != 1 || received.Updates[0] != updates[0] {
		t.Fatalf("unexpected payload: %#v", received.Updates)
	}
}

func TestHTTPNotifierMapsStatusCodes(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL, "key", server.Client())
	updates := []MediaUpdate{{Path: "/x", UpdateType: UpdateDeleted}}

	if err := notifier.MediaUpdated(context.Background(), updates); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	status.Store(http.StatusInternalServerError)
	if err := notifier.MediaUpdated(context.Background(), updates); !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}
}

func TestDisabledNotifierIsNoop(t *testing.T) {
	cfg := config.Default()
	notifier := NewConfiguredNotifier(&cfg)
	if _, ok := notifier.(NopNotifier); !ok {
		t.Fatalf("expected NopNotifier, got %T", notifier)
	}
	if err := notifier.MediaUpdated(context.Background(), []MediaUpdate{{Path: "/x"}}); err != nil {
		t.Fatalf("noop returned error: %v", err)
	}

	cfg.Jellyfin.Enabled = true
	if _, ok := NewConfiguredNotifier(&cfg).(NopNotifier); !ok {
		t.Fatal("expected NopNotifier without credentials")
	}
}

func TestPathMapperUpdatesFor(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.ImportFolders = []config.ImportFolder{
		{ID: 1, Path: filepath.Join(root, "one")},
		{ID: 2, Path: filepath.Join(root, "two")},
	}
	mapper := NewPathMapper(&cfg)

	decode := func(kind fileevents.Kind, payload string) *fileevents.Envelope {
		t.Helper()
		env, err := fileevents.Decode(kind, []byte(payload))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		return env
	}

	matched := mapper.UpdatesFor(decode(fileevents.KindMatched, `{"FileID": 1, "ImportFolderID": 1, "RelativePath": "Show\\ep.mkv"}`))
	want := filepath.Join(root, "one", "Show", "ep.mkv")
	if len(matched) != 1 || matched[0].Path != want || matched[0].UpdateType != UpdateModified {
		t.Fatalf("unexpected matched updates: %#v", matched)
	}

	moved := mapper.UpdatesFor(decode(fileevents.KindMoved, `{"FileID": 1, "ImportFolderID": 2, "RelativePath": "Show/ep.mkv", "PreviousImportFolderID": 1, "PreviousRelativePath": "Show/ep.mkv"}`))
	if len(moved) != 2 {
		t.Fatalf("expected 2 moved updates, got %#v", moved)
	}
	if moved[0].UpdateType != UpdateDeleted || moved[0].Path != want {
		t.Fatalf("unexpected previous-path update: %#v", moved[0])
	}
	if moved[1].UpdateType != UpdateCreated || moved[1].Path != filepath.Join(root, "two", "Show", "ep.mkv") {
		t.Fatalf("unexpected new-path update: %#v", moved[1])
	}

	unmapped := mapper.UpdatesFor(decode(fileevents.KindDeleted, `{"FileID": 1, "ImportFolderID": 9, "RelativePath": "x.mkv"}`))
	if len(unmapped) != 0 {
		t.Fatalf("expected unmapped folder to be skipped, got %#v", unmapped)
	}
}
