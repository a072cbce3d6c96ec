package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Shoko", statusOK, "Reachable (v5.0.0)", false)
	if line != "  Shoko:             [OK] Reachable (v5.0.0)" {
		t.Fatalf("unexpected line %q", line)
	}
	if got := renderStatusLine("Daemon", statusInfo, "", false); !strings.HasSuffix(got, "[INFO]") {
		t.Fatalf("expected bare status, got %q", got)
	}
	colored := renderStatusLine("Jellyfin", statusError, "Unauthorized", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red coloring, got %q", colored)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Daemon ", false)
	if len(lines) != 2 || lines[0] != "== Daemon ==" || lines[1] != strings.Repeat("-", len("== Daemon ==")) {
		t.Fatalf("unexpected header %#v", lines)
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never colorized")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"File", "Path"}, [][]string{{"42"}}, []columnAlignment{alignRight})
	for _, want := range []string{"File", "Path", "42"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table %q", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
