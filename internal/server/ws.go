package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/signlens/internal/app"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventSource is what the events endpoint streams from.
type EventSource interface {
	Subscribe() (<-chan app.Event, func())
	Status() app.Status
}

// EventsHandler pushes translator events to WebSocket clients as JSON. Each
// connection gets its own subscription; a client that falls behind loses
// events rather than slowing the translator.
type EventsHandler struct {
	source EventSource
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(source EventSource) *EventsHandler {
	return &EventsHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// Reads only serve to notice the client going away and to handle pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	st := h.source.Status()
	if err := h.write(conn, app.Event{Type: app.EventStatus, Time: time.Now(), Status: &st}); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, ev app.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
