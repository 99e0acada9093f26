// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", `
backend:
  socket_path: /run/custom/agent.sock
poll:
  text_interval: 500ms
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v, want nil", err)
	}

	if got, want := cfg.Backend.SocketPath, "/run/custom/agent.sock"; got != want {
		t.Errorf("SocketPath = %q, want %q", got, want)
	}
	if got, want := cfg.Poll.TextInterval, 500*time.Millisecond; got != want {
		t.Errorf("TextInterval = %v, want %v", got, want)
	}
	// Unset fields keep their defaults.
	if got, want := cfg.Poll.ImageInterval, 3*time.Second; got != want {
		t.Errorf("ImageInterval = %v, want default %v", got, want)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "empty socket path",
			content: `
backend:
  socket_path: ""
`,
		},
		{
			name: "non-positive interval",
			content: `
poll:
  text_interval: 0s
`,
		},
		{
			name:    "malformed yaml",
			content: "backend: [not a mapping",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "config.yaml", test.content)
			if _, err := LoadFile(path); err == nil {
				t.Error("LoadFile() error = nil, want error")
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile() error = nil for missing file, want error")
	}
}

func TestLoadSessionsJSONC(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sessions.jsonc", `
// Operator-maintained pane list.
[
  {"id": "dev:0.0", "title": "builder"},
  {"id": "dev:0.1"}, // title defaults to the id
]
`)
	panes, err := LoadSessions(path)
	if err != nil {
		t.Fatalf("LoadSessions() error = %v, want nil", err)
	}
	if len(panes) != 2 {
		t.Fatalf("len(panes) = %d, want 2", len(panes))
	}
	if panes[0].ID != "dev:0.0" || panes[0].Title != "builder" {
		t.Errorf("panes[0] = %+v, want dev:0.0/builder", panes[0])
	}
	if panes[1].Title != "dev:0.1" {
		t.Errorf("panes[1].Title = %q, want defaulted id", panes[1].Title)
	}
}

func TestLoadSessionsRejectsMissingID(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sessions.jsonc", `[{"title": "nameless"}]`)
	if _, err := LoadSessions(path); err == nil {
		t.Error("LoadSessions() error = nil for pane without id, want error")
	}
}
