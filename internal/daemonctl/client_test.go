package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"shokofin/internal/daemon"
	"shokofin/internal/filestore"
	"shokofin/internal/services"
	"shokofin/internal/testsupport"
)

func TestBaseURLForBind(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:7487": "http://127.0.0.1:7487",
		"0.0.0.0:7487":   "http://127.0.0.1:7487",
		":7487":          "http://127.0.0.1:7487",
		"[::]:7487":      "http://[::1]:7487",
	}
	for bind, want := range cases {
		got, err := baseURLForBind(bind)
		if err != nil {
			t.Fatalf("baseURLForBind(%q): %v", bind, err)
		}
		if got != want {
			t.Fatalf("baseURLForBind(%q) = %q, want %q", bind, got, want)
		}
	}
	if _, err := baseURLForBind("not-an-address"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientStatusAndFiles(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(daemon.Status{Running: true, FeedEnabled: true, TrackedFiles: 3})
		case "/api/files":
			if r.URL.Query().Get("episode") != "42" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid episode id"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(daemon.FileListResponse{Files: []filestore.File{{FileID: 7, RelativePath: "/Show/ep1.mkv"}}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = strings.TrimPrefix(server.URL, "http://")
	cfg.Paths.APIToken = "secret"

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.TrackedFiles != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
	if authHeader != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", authHeader)
	}

	files, err := client.Files(context.Background(), 42)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0].FileID != 7 {
		t.Fatalf("unexpected files %+v", files)
	}

	if _, err := client.Files(context.Background(), 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientReportsDaemonNotRunning(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = addr
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Status(context.Background()); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestReadPIDAndStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	pid, err := ReadPID(cfg)
	if err != nil || pid != 0 {
		t.Fatalf("expected no pid, got %d (%v)", pid, err)
	}
	if _, err := Stop(cfg, time.Second); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}

	if err := os.WriteFile(cfg.PIDPath(), []byte("garbage\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := ReadPID(cfg); err == nil {
		t.Fatal("expected error for invalid pid file")
	}

	if err := os.WriteFile(cfg.PIDPath(), []byte("12345\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err = ReadPID(cfg)
	if err != nil || pid != 12345 {
		t.Fatalf("expected pid 12345, got %d (%v)", pid, err)
	}
}

func TestProcessAlive(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Fatal("expected current process to be alive")
	}
	if ProcessAlive(0) {
		t.Fatal("pid 0 should not be reported alive")
	}
}
