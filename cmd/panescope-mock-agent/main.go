// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// panescope-mock-agent is a development stand-in for a real snapshot
// agent. It serves the snapshot protocol on a Unix socket and evolves a
// synthetic screen on a timer: one appended line per tick, with top
// eviction once the scrollback cap is reached, so every reconciliation
// path in the dashboard (deltas, top-eviction anchoring, cursor expiry,
// full fallback) is exercisable without a live session.
//
//	panescope-mock-agent --socket /tmp/panescope/agent.sock
//	panescope --pane mock --socket /tmp/panescope/agent.sock
package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/panescope/panescope/lib/codec"
	"github.com/panescope/panescope/lib/version"
	"github.com/panescope/panescope/screensync"
)

// historyDepth is how many past revisions stay addressable by cursor.
// A dashboard polling every second keeps up easily; anything that falls
// further behind gets a full snapshot with a fallback reason.
const historyDepth = 16

// compressThreshold switches full snapshots to the zstd form. Small
// screens are cheaper uncompressed.
const compressThreshold = 4096

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var socketPath string
	var tick time.Duration
	var maxLines int

	flagSet := pflag.NewFlagSet("panescope-mock-agent", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", "", "unix socket to listen on (default: $XDG_RUNTIME_DIR/panescope/agent.sock)")
	flagSet.DurationVar(&tick, "tick", 700*time.Millisecond, "interval between synthetic screen updates")
	flagSet.IntVar(&maxLines, "max-lines", 500, "scrollback cap before top eviction starts")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("panescope-mock-agent")
		return nil
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if socketPath == "" {
		runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
		if runtimeDir == "" {
			runtimeDir = os.TempDir()
		}
		socketPath = filepath.Join(runtimeDir, "panescope", "agent.sock")
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	// A previous run's socket file blocks the listen.
	os.Remove(socketPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	pane := newMockPane(maxLines)
	stopTicker := make(chan struct{})
	go pane.runTicker(tick, stopTicker)
	defer close(stopTicker)

	logger.Info("mock agent listening", "socket", socketPath, "tick", tick)

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		<-signals
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Listener closed on shutdown.
			return nil
		}
		go serveConnection(conn, pane, logger)
	}
}

// serveConnection handles one request/response exchange. The protocol
// is one request per connection.
func serveConnection(conn net.Conn, pane *mockPane, logger *slog.Logger) {
	defer conn.Close()

	var request screensync.SnapshotRequest
	if err := codec.NewDecoder(conn).Decode(&request); err != nil {
		logger.Warn("bad request", "error", err)
		return
	}

	response := pane.snapshot(request)
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		logger.Warn("writing response", "error", err)
	}
}

// mockPane is the synthetic screen: an append-only log with top
// eviction, plus enough revision history to answer delta requests.
type mockPane struct {
	mu       sync.Mutex
	lines    []string
	revision uint64
	history  map[uint64][]string
	maxLines int
	started  time.Time
}

func newMockPane(maxLines int) *mockPane {
	pane := &mockPane{
		lines:    []string{"$ panescope-mock-agent session start"},
		history:  make(map[uint64][]string),
		maxLines: maxLines,
		started:  time.Now(),
	}
	pane.history[pane.revision] = pane.lines
	return pane
}

// runTicker appends one synthetic line per tick until stop closes.
func (pane *mockPane) runTicker(tick time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			pane.advance(now)
		}
	}
}

func (pane *mockPane) advance(now time.Time) {
	pane.mu.Lock()
	defer pane.mu.Unlock()

	pane.revision++
	line := fmt.Sprintf("[%s] tick %d: uptime %s",
		now.Format(time.TimeOnly), pane.revision, now.Sub(pane.started).Round(time.Second))

	next := make([]string, 0, len(pane.lines)+1)
	next = append(next, pane.lines...)
	next = append(next, line)
	if len(next) > pane.maxLines {
		next = next[len(next)-pane.maxLines:]
	}
	pane.lines = next

	pane.history[pane.revision] = next
	delete(pane.history, pane.revision-historyDepth)
}

// snapshot answers one request under the pane lock.
func (pane *mockPane) snapshot(request screensync.SnapshotRequest) *screensync.SnapshotResponse {
	pane.mu.Lock()
	defer pane.mu.Unlock()

	if request.PaneID == "" {
		return &screensync.SnapshotResponse{OK: false, Error: "missing pane id"}
	}

	response := &screensync.SnapshotResponse{
		OK:         true,
		Mode:       request.Mode,
		CapturedAt: time.Now().UnixMilli(),
		Cursor:     strconv.FormatUint(pane.revision, 10),
	}

	if request.Mode == screensync.ModeImage {
		// There is no real framebuffer; a tagged byte payload lets the
		// dashboard's image path round-trip something non-trivial.
		response.Image = []byte(fmt.Sprintf("mock-frame:revision=%d", pane.revision))
		response.Cursor = ""
		return response
	}

	if request.Cursor != "" {
		if old, ok := pane.historyFor(request.Cursor); ok {
			deltas := computeDeltas(old, pane.lines)
			response.Deltas = &deltas
			return response
		}
		response.FallbackReason = "cursor expired"
	}

	screen := strings.Join(pane.lines, "\n")
	if len(screen) > compressThreshold {
		response.ScreenZstd = screensync.CompressScreen(screen)
	} else {
		response.Screen = &screen
	}
	response.Full = true
	return response
}

func (pane *mockPane) historyFor(cursor string) ([]string, bool) {
	revision, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return nil, false
	}
	lines, ok := pane.history[revision]
	return lines, ok
}

// computeDeltas produces a single-splice patch batch turning old into
// current: the longest common prefix and suffix are kept, the middle is
// replaced. For an append-only screen with top eviction this is close
// to minimal.
func computeDeltas(old, current []string) []screensync.DeltaPatch {
	prefix := 0
	for prefix < len(old) && prefix < len(current) && old[prefix] == current[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(old)-prefix && suffix < len(current)-prefix &&
		old[len(old)-1-suffix] == current[len(current)-1-suffix] {
		suffix++
	}

	deleteCount := len(old) - prefix - suffix
	insert := current[prefix : len(current)-suffix]
	if deleteCount == 0 && len(insert) == 0 {
		return []screensync.DeltaPatch{}
	}

	patch := screensync.DeltaPatch{Start: prefix, DeleteCount: deleteCount}
	if len(insert) > 0 {
		patch.InsertLines = append([]string{}, insert...)
	}
	return []screensync.DeltaPatch{patch}
}
