package plugin

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hooks fans an event out to every subscribed plugin. Runs are
// asynchronous so a slow plugin never holds up the frame loop.
type Hooks struct {
	mgr    *Manager
	exec   *Executor
	config func(name string) json.RawMessage
	wg     sync.WaitGroup
}

// NewHooks creates Hooks over the discovered plugins of mgr.
func NewHooks(mgr *Manager, exec *Executor) *Hooks {
	return &Hooks{mgr: mgr, exec: exec}
}

// SetConfigSource sets the lookup for per-plugin configuration, which is
// passed to each run as Request.Config. Call before the first Fire.
func (h *Hooks) SetConfigSource(fn func(name string) json.RawMessage) {
	h.config = fn
}

// Fire starts one run per subscribed plugin and returns how many were started.
func (h *Hooks) Fire(ctx context.Context, req Request) int {
	plugins := h.mgr.Subscribers(req.Event)
	for _, p := range plugins {
		h.wg.Add(1)
		r := req
		if h.config != nil {
			r.Config = h.config(p.Manifest.Name)
		}
		go func(p *Plugin, req Request) {
			defer h.wg.Done()
			resp, err := h.exec.Execute(ctx, p, &req)
			switch {
			case err != nil:
				log.Warn().Err(err).Str("plugin", p.Manifest.Name).Str("event", req.Event).Msg("plugin failed")
			case !resp.Success:
				log.Warn().Str("plugin", p.Manifest.Name).Str("error", resp.Error).Msg("plugin reported failure")
			default:
				log.Debug().Str("plugin", p.Manifest.Name).Str("event", req.Event).Msg("plugin ran")
			}
		}(p, r)
	}
	return len(plugins)
}

// Wait blocks until every started run has finished.
func (h *Hooks) Wait() {
	h.wg.Wait()
}
