package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/signlens/internal/store"
)

// DefaultHistoryLimit is used when the request has no limit.
const DefaultHistoryLimit = 20

// maxHistoryLimit caps a single page.
const maxHistoryLimit = 500

// HistoryHandler serves the persisted recognition history.
type HistoryHandler struct {
	store      *store.Store
	translator Translator
}

// NewHistoryHandler creates a HistoryHandler. translator may be nil, in which
// case DELETE only clears the store.
func NewHistoryHandler(s *store.Store, translator Translator) *HistoryHandler {
	return &HistoryHandler{store: s, translator: translator}
}

type historyResponse struct {
	Recognitions []*store.Recognition `json:"recognitions"`
	Total        int                  `json:"total"`
}

// ServeHTTP implements the http.Handler interface.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/history?limit=N.
func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := h.store.Recognitions().ListRecent(limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list history")
		writeError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}
	total, err := h.store.Recognitions().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count history")
		return
	}

	if recs == nil {
		recs = []*store.Recognition{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Recognitions: recs, Total: total})
}

// clear handles DELETE /api/history.
func (h *HistoryHandler) clear(w http.ResponseWriter, r *http.Request) {
	var err error
	if h.translator != nil {
		err = h.translator.ClearHistory()
	} else {
		_, err = h.store.Recognitions().Clear()
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to clear history")
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
