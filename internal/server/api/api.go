// Package api provides HTTP API handlers for the signlens translator.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ayusman/signlens/internal/app"
)

// Translator is the part of the app the API controls.
type Translator interface {
	EnableCamera(ctx context.Context) error
	DisableCamera() error
	Start() error
	Stop()
	SetVisible(visible bool)
	Status() app.Status
	ClearHistory() error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
