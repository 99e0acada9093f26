// Copyright 2026 The Panescope Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Pane describes one watchable session pane in the sessions file.
type Pane struct {
	// ID is the backend pane identifier sent in snapshot requests.
	ID string `json:"id"`

	// Title is the display name in the dashboard's pane switcher.
	// Defaults to ID when empty.
	Title string `json:"title,omitempty"`
}

// LoadSessions reads the pane list from a JSONC file. Comments and
// trailing commas are allowed — the file is hand-edited by operators.
func LoadSessions(path string) ([]Pane, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sessions file %s: %w", path, err)
	}

	var panes []Pane
	if err := json.Unmarshal(jsonc.ToJSON(data), &panes); err != nil {
		return nil, fmt.Errorf("parsing sessions file %s: %w", path, err)
	}

	for index := range panes {
		if panes[index].ID == "" {
			return nil, fmt.Errorf("sessions file %s: pane %d has no id", path, index)
		}
		if panes[index].Title == "" {
			panes[index].Title = panes[index].ID
		}
	}
	return panes, nil
}
