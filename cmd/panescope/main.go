// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

// panescope is the terminal dashboard for watching live session panes.
// It connects to a snapshot agent over a Unix socket, keeps the pane
// content synchronized through delta polling, and renders it in a
// scrollable TUI that stays visually stable while content streams in.
//
// Panes come either from a JSONC sessions file (switchable with Tab)
// or from a single --pane flag. Configuration is a YAML file; flags
// override it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/panescope/panescope/lib/config"
	"github.com/panescope/panescope/lib/screenui"
	"github.com/panescope/panescope/lib/version"
	"github.com/panescope/panescope/screensync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var socketPath string
	var paneID string
	var logOutput string

	flagSet := pflag.NewFlagSet("panescope", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file")
	flagSet.StringVar(&socketPath, "socket", "", "snapshot agent socket (overrides config)")
	flagSet.StringVar(&paneID, "pane", "", "watch a single pane id (overrides the sessions file)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to TUI display)")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("panescope")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if socketPath != "" {
		cfg.Backend.SocketPath = socketPath
	}
	if logOutput != "" {
		cfg.Log.Output = logOutput
	}

	panes, err := resolvePanes(cfg, paneID)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal; panescope is an interactive dashboard")
	}

	return runDashboard(cfg, panes)
}

// resolvePanes determines the watchable pane list: the --pane flag wins,
// then the sessions file from the config.
func resolvePanes(cfg *config.Config, paneID string) ([]config.Pane, error) {
	if paneID != "" {
		return []config.Pane{{ID: paneID, Title: paneID}}, nil
	}
	if cfg.Backend.SessionsFile == "" {
		return nil, fmt.Errorf("no pane to watch: pass --pane or set backend.sessions_file in the config")
	}
	panes, err := config.LoadSessions(cfg.Backend.SessionsFile)
	if err != nil {
		return nil, err
	}
	if len(panes) == 0 {
		return nil, fmt.Errorf("sessions file %s lists no panes", cfg.Backend.SessionsFile)
	}
	return panes, nil
}

// runDashboard wires the engine to the TUI and runs it. Background
// logging goes through a TUILogHandler so warnings show in the status
// bar instead of corrupting the alt-screen; --log-output additionally
// captures everything to a JSON file for post-mortem debugging.
func runDashboard(cfg *config.Config, panes []config.Pane) error {
	tuiHandler := screenui.NewTUILogHandler(slog.LevelWarn)

	var logger *slog.Logger
	if cfg.Log.Output != "" {
		fileHandler, closeFile, err := openFileLogHandler(cfg.Log.Output)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", cfg.Log.Output, err)
		}
		defer closeFile()
		logger = slog.New(fanoutHandler{tuiHandler, fileHandler})
	} else {
		logger = slog.New(tuiHandler)
	}

	client := screensync.NewClient(cfg.Backend.SocketPath)
	engine := screensync.NewEngine(client, panes[0].ID,
		screensync.WithEngineLogger(logger),
		screensync.WithPollIntervals(cfg.Poll.TextInterval, cfg.Poll.ImageInterval),
	)
	defer engine.Close()

	// The agent socket is local: report connected and let fetch errors
	// surface in the status bar if the agent is actually down.
	engine.SetConnected(true)

	model := screenui.NewModel(engine, panes)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	tuiHandler.SetProgram(program)

	_, err := program.Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Panescope — live terminal dashboard for session panes.

Connects to a snapshot agent over a Unix socket and mirrors pane
content with delta polling. Scrolling up anchors the view: content
keeps synchronizing underneath without yanking the viewport. Press G
to jump back to the tail and resume following.

Usage:
  panescope [flags]

Examples:
  # Watch a single pane via the default socket
  panescope --pane dev:0.0

  # Use a config file with a sessions list
  panescope --config ~/.config/panescope/config.yaml

  # Point at a non-default agent socket
  panescope --pane dev:0.0 --socket /tmp/panescope/agent.sock

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// openFileLogHandler creates a JSON slog handler writing to path. The
// file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every underlying handler. A record
// is enabled if any sub-handler wants it.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
