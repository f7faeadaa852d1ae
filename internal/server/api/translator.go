package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/capture"
)

// TranslatorHandler controls the translator and the camera.
//
// Routes:
//
//	POST /api/translator/start
//	POST /api/translator/stop
//	POST /api/translator/visibility  {"visible": bool}
//	GET  /api/translator/status
//	POST /api/camera/enable
//	POST /api/camera/disable
type TranslatorHandler struct {
	translator Translator
}

// NewTranslatorHandler creates a TranslatorHandler.
func NewTranslatorHandler(t Translator) *TranslatorHandler {
	return &TranslatorHandler{translator: t}
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

type cameraErrorResponse struct {
	Error   string `json:"error"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ServeHTTP implements the http.Handler interface.
func (h *TranslatorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")

	if path == "translator/status" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.translator.Status())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "translator/start":
		h.start(w, r)
	case "translator/stop":
		h.translator.Stop()
		writeJSON(w, http.StatusOK, h.translator.Status())
	case "translator/visibility":
		h.visibility(w, r)
	case "camera/enable":
		h.enableCamera(w, r)
	case "camera/disable":
		if err := h.translator.DisableCamera(); err != nil {
			log.Warn().Err(err).Msg("camera release failed")
		}
		writeJSON(w, http.StatusOK, h.translator.Status())
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *TranslatorHandler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.translator.Start(); err != nil {
		if errors.Is(err, app.ErrCameraNotReady) {
			writeError(w, http.StatusConflict, "Camera is not ready")
			return
		}
		log.Error().Err(err).Msg("failed to start translator")
		writeError(w, http.StatusInternalServerError, "Failed to start translator")
		return
	}
	writeJSON(w, http.StatusOK, h.translator.Status())
}

func (h *TranslatorHandler) visibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, "visible is required")
		return
	}

	h.translator.SetVisible(*req.Visible)
	writeJSON(w, http.StatusOK, h.translator.Status())
}

func (h *TranslatorHandler) enableCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.translator.EnableCamera(r.Context()); err != nil {
		title, msg := capture.Remediation(err)
		writeJSON(w, http.StatusServiceUnavailable, cameraErrorResponse{
			Error:   err.Error(),
			Title:   title,
			Message: msg,
		})
		return
	}
	writeJSON(w, http.StatusOK, h.translator.Status())
}
