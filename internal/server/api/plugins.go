package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/signlens/internal/plugin"
	"github.com/ayusman/signlens/internal/store"
)

// maxConfigSize bounds a stored plugin config.
const maxConfigSize = 64 << 10

// PluginHandler lists the discovered recognition hooks and stores their
// configuration.
//
//	GET /api/plugins
//	GET /api/plugins/{name}/config
//	PUT /api/plugins/{name}/config
type PluginHandler struct {
	manager *plugin.Manager
	store   *store.Store
}

// NewPluginHandler creates a PluginHandler. Without a store the config
// routes are unavailable.
func NewPluginHandler(m *plugin.Manager, s *store.Store) *PluginHandler {
	return &PluginHandler{manager: m, store: s}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Events      []string `json:"events"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

// ServeHTTP implements the http.Handler interface.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/plugins")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	name, rest, _ := strings.Cut(path, "/")
	if rest != "config" || h.store == nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if _, err := h.manager.Get(name); err != nil {
		writeError(w, http.StatusNotFound, "Plugin not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getConfig(w, name)
	case http.MethodPut:
		h.putConfig(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PluginHandler) list(w http.ResponseWriter, r *http.Request) {
	plugins := h.manager.List()
	resp := listPluginsResponse{Plugins: make([]pluginResponse, 0, len(plugins))}
	for _, p := range plugins {
		events := p.Manifest.Events
		if len(events) == 0 {
			events = []string{plugin.EventSettled}
		}
		resp.Plugins = append(resp.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Events:      events,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *PluginHandler) getConfig(w http.ResponseWriter, name string) {
	v, err := h.store.Settings().Get(store.PluginConfigKey(name))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, json.RawMessage(`{}`))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load config")
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(v))
}

func (h *PluginHandler) putConfig(w http.ResponseWriter, r *http.Request, name string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigSize+1))
	if err != nil || len(body) > maxConfigSize {
		writeError(w, http.StatusBadRequest, "Config too large")
		return
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		writeError(w, http.StatusBadRequest, "Config must be a JSON object")
		return
	}

	if err := h.store.Settings().Set(store.PluginConfigKey(name), string(body)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save config")
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}
