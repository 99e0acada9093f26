// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package screenui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the dashboard's color palette and frame styles.
type Theme struct {
	// Header is the top bar with the pane title and mode.
	Header lipgloss.Style

	// HeaderPaused renders the pause reason inside the header.
	HeaderPaused lipgloss.Style

	// StatusBar is the bottom line with help text and notices.
	StatusBar lipgloss.Style

	// StatusError renders surfaced engine errors.
	StatusError lipgloss.Style

	// StatusWarn renders warnings and fallback notices.
	StatusWarn lipgloss.Style

	// StatusLoading renders the loading indicator.
	StatusLoading lipgloss.Style

	// Screen is the pane content area.
	Screen lipgloss.Style
}

// DefaultTheme is the built-in dark-terminal palette. Terminals without
// color support degrade through termenv's profile detection: the styles
// collapse to plain text rather than emitting unsupported sequences.
func DefaultTheme() Theme {
	base := lipgloss.NewStyle()
	if termenv.EnvColorProfile() == termenv.Ascii {
		return Theme{
			Header:        base.Bold(true),
			HeaderPaused:  base,
			StatusBar:     base,
			StatusError:   base.Bold(true),
			StatusWarn:    base,
			StatusLoading: base,
			Screen:        base,
		}
	}
	return Theme{
		Header: base.
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("24")).
			Bold(true),
		HeaderPaused: base.
			Foreground(lipgloss.Color("214")).
			Background(lipgloss.Color("24")),
		StatusBar: base.
			Foreground(lipgloss.Color("246")),
		StatusError: base.
			Foreground(lipgloss.Color("196")).
			Bold(true),
		StatusWarn: base.
			Foreground(lipgloss.Color("214")),
		StatusLoading: base.
			Foreground(lipgloss.Color("39")),
		Screen: base,
	}
}
