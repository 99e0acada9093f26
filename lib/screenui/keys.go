// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screenui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the pane dashboard.
type KeyMap struct {
	// Viewport scrolling. Every one of these counts as user-initiated
	// movement and anchors the view.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding

	// Bottom is the explicit scroll-to-bottom jump; it re-engages
	// following rather than anchoring.
	Bottom key.Binding

	// Pane switching.
	NextPane key.Binding
	PrevPane key.Binding

	// ModeToggle flips between text and image representation.
	ModeToggle key.Binding

	// Refresh fetches immediately, outside the poll interval.
	Refresh key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set. Vim-style navigation
// alongside arrows and page keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "scroll down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	NextPane: key.NewBinding(
		key.WithKeys("tab", "n"),
		key.WithHelp("Tab", "next pane"),
	),
	PrevPane: key.NewBinding(
		key.WithKeys("shift+tab", "p"),
		key.WithHelp("S-Tab", "previous pane"),
	),
	ModeToggle: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "toggle image"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
