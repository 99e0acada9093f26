// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screenui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/panescope/panescope/lib/config"
	"github.com/panescope/panescope/screensync"
)

// Engine is the synchronization surface the dashboard consumes. The
// production implementation is *screensync.Engine; tests script a fake.
type Engine interface {
	Updates() <-chan struct{}
	Lines() []string
	Image() ([]byte, int64)
	Err() string
	Loading() bool
	FallbackReason() string
	PauseReason() screensync.PauseReason
	ActiveMode() screensync.Mode

	RefreshNow()
	ChangeMode(mode screensync.Mode)
	SetPane(paneID string)
	ScrollToBottom() screensync.Adjustment
	ContentChanged(lines []string) screensync.Adjustment
	ReportUserScroll(topVisibleIndex int, offsetFromViewportTop, lineHeight float64)
	ReportAtBottom(atBottom bool)
	SetVisible(visible bool)
	FocusGained()
}

// engineUpdateMsg signals that the engine has new state to render.
type engineUpdateMsg struct{}

// chromeHeight is the header plus the status bar.
const chromeHeight = 2

// Model is the dashboard's bubbletea model.
type Model struct {
	engine Engine
	panes  []config.Pane
	keys   KeyMap
	theme  Theme

	paneIndex int
	viewport  viewport.Model
	width     int
	height    int
	ready     bool

	notice      string
	noticeLevel slog.Level
}

// NewModel creates the dashboard model over an engine and the pane
// list. The engine is expected to already observe panes[0].
func NewModel(engine Engine, panes []config.Pane) Model {
	return Model{
		engine: engine,
		panes:  panes,
		keys:   DefaultKeyMap,
		theme:  DefaultTheme(),
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(model.waitForUpdate(), tea.EnableReportFocus)
}

// waitForUpdate blocks on the engine's coalescing update channel and
// re-enters the message loop when state changes.
func (model Model) waitForUpdate() tea.Cmd {
	updates := model.engine.Updates()
	return func() tea.Msg {
		<-updates
		return engineUpdateMsg{}
	}
}

// Update implements tea.Model.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		if !model.ready {
			model.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			model.ready = true
		} else {
			model.viewport.Width = msg.Width
			model.viewport.Height = msg.Height - chromeHeight
		}
		model.syncContent()
		return model, nil

	case engineUpdateMsg:
		model.syncContent()
		return model, model.waitForUpdate()

	case tea.FocusMsg:
		model.engine.FocusGained()
		model.engine.SetVisible(true)
		return model, nil

	case tea.BlurMsg:
		// Focus loss alone does not pause polling; only real
		// suspension (ctrl+z) counts as hidden.
		return model, nil

	case tea.SuspendMsg:
		model.engine.SetVisible(false)
		return model, nil

	case tea.ResumeMsg:
		model.engine.SetVisible(true)
		return model, nil

	case logRecordMsg:
		model.notice = msg.summary
		model.noticeLevel = msg.level
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{}
		})

	case logRecordFadeMsg:
		model.notice = ""
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(msg)

	case tea.MouseMsg:
		return model.handleMouse(msg)
	}

	return model, nil
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(msg, model.keys.Up):
		model.scrollBy(-1)
	case key.Matches(msg, model.keys.Down):
		model.scrollBy(1)
	case key.Matches(msg, model.keys.PageUp):
		model.scrollBy(-model.viewport.Height / 2)
	case key.Matches(msg, model.keys.PageDown):
		model.scrollBy(model.viewport.Height / 2)
	case key.Matches(msg, model.keys.Top):
		model.viewport.GotoTop()
		model.reportScrollPosition()

	case key.Matches(msg, model.keys.Bottom):
		adjustment := model.engine.ScrollToBottom()
		model.applyAdjustment(adjustment)

	case key.Matches(msg, model.keys.NextPane):
		model.switchPane(1)
	case key.Matches(msg, model.keys.PrevPane):
		model.switchPane(-1)

	case key.Matches(msg, model.keys.ModeToggle):
		if model.engine.ActiveMode() == screensync.ModeText {
			model.engine.ChangeMode(screensync.ModeImage)
		} else {
			model.engine.ChangeMode(screensync.ModeText)
		}

	case key.Matches(msg, model.keys.Refresh):
		model.engine.RefreshNow()
	}

	return model, nil
}

func (model Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		model.scrollBy(-3)
	case tea.MouseButtonWheelDown:
		model.scrollBy(3)
	}
	return model, nil
}

// scrollBy moves the viewport and reports the movement as
// user-initiated so the engine anchors and suppresses renders.
func (model *Model) scrollBy(lines int) {
	model.viewport.SetYOffset(model.viewport.YOffset + lines)
	model.reportScrollPosition()
}

func (model *Model) reportScrollPosition() {
	if model.viewport.AtBottom() {
		model.engine.ReportAtBottom(true)
		return
	}
	model.engine.ReportUserScroll(model.viewport.YOffset, 0, 1)
	model.engine.ReportAtBottom(false)
}

func (model *Model) switchPane(step int) {
	if len(model.panes) < 2 {
		return
	}
	model.paneIndex = (model.paneIndex + step + len(model.panes)) % len(model.panes)
	model.engine.SetPane(model.panes[model.paneIndex].ID)
}

// syncContent pulls the engine's visible buffer into the viewport and
// applies the stability correction it computes.
func (model *Model) syncContent() {
	if !model.ready {
		return
	}
	lines := model.engine.Lines()
	adjustment := model.engine.ContentChanged(lines)
	model.viewport.SetContent(model.renderScreen(lines))
	model.applyAdjustment(adjustment)
}

// applyAdjustment executes a viewport correction. The delta is applied
// directly, with no animation, so anchored content stays visually
// still.
func (model *Model) applyAdjustment(adjustment screensync.Adjustment) {
	if adjustment.SnapToBottom {
		model.viewport.GotoBottom()
		model.engine.ReportAtBottom(true)
		return
	}
	if adjustment.ScrollDelta != 0 {
		model.viewport.SetYOffset(model.viewport.YOffset + int(adjustment.ScrollDelta))
	}
}

// renderScreen formats the engine buffer for the viewport. Image mode
// has no in-terminal rendering; it shows a capture summary instead.
func (model *Model) renderScreen(lines []string) string {
	if model.engine.ActiveMode() == screensync.ModeImage {
		image, capturedAt := model.engine.Image()
		if len(image) == 0 {
			return "no image captured yet"
		}
		captured := time.UnixMilli(capturedAt).Format(time.TimeOnly)
		return fmt.Sprintf("image snapshot: %d bytes, captured %s", len(image), captured)
	}

	truncated := make([]string, len(lines))
	for index, line := range lines {
		truncated[index] = ansi.Truncate(line, model.width, "…")
	}
	return model.theme.Screen.Render(strings.Join(truncated, "\n"))
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "starting…"
	}
	return model.headerView() + "\n" + model.viewport.View() + "\n" + model.statusView()
}

func (model Model) headerView() string {
	title := "(no pane)"
	if len(model.panes) > 0 {
		pane := model.panes[model.paneIndex]
		title = pane.Title
		if len(model.panes) > 1 {
			title = fmt.Sprintf("%s [%d/%d]", pane.Title, model.paneIndex+1, len(model.panes))
		}
	}

	mode := string(model.engine.ActiveMode())
	header := fmt.Sprintf(" %s · %s ", title, mode)

	if reason := model.engine.PauseReason(); reason != screensync.PauseNone {
		paused := model.theme.HeaderPaused.Render(fmt.Sprintf("⏸ %s", reason))
		return model.theme.Header.Width(model.width).Render(header + paused)
	}
	return model.theme.Header.Width(model.width).Render(header)
}

func (model Model) statusView() string {
	if err := model.engine.Err(); err != "" {
		return model.theme.StatusError.Width(model.width).Render(" " + err)
	}
	if model.notice != "" {
		style := model.theme.StatusWarn
		if model.noticeLevel >= slog.LevelError {
			style = model.theme.StatusError
		}
		return style.Width(model.width).Render(" " + model.notice)
	}
	if model.engine.Loading() {
		return model.theme.StatusLoading.Width(model.width).Render(" loading…")
	}

	var parts []string
	if reason := model.engine.FallbackReason(); reason != "" {
		parts = append(parts, model.theme.StatusWarn.Render("full resync: "+reason))
	}
	parts = append(parts, helpLine(model.keys))
	return model.theme.StatusBar.Width(model.width).Render(" " + strings.Join(parts, "  "))
}

// helpLine renders the abbreviated key help for the status bar.
func helpLine(keys KeyMap) string {
	entries := []key.Binding{keys.Up, keys.Down, keys.Bottom, keys.NextPane, keys.ModeToggle, keys.Refresh, keys.Quit}
	parts := make([]string, 0, len(entries))
	for _, binding := range entries {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " · ")
}
