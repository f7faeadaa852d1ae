// Package plugin runs external executables in response to translator
// events, such as speaking each settled sign aloud.
package plugin

import (
	"encoding/json"
	"slices"
	"time"
)

// Events a plugin can subscribe to.
const (
	EventSettled = "settled"
	EventStarted = "started"
	EventStopped = "stopped"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Subscribes reports whether the plugin handles event. A manifest without
// events only receives settled recognitions.
func (m Manifest) Subscribes(event string) bool {
	if len(m.Events) == 0 {
		return event == EventSettled
	}
	return slices.Contains(m.Events, event)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Event      string          `json:"event"`
	Sign       string          `json:"sign,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
