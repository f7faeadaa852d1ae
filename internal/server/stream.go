package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/signlens/internal/hand"
)

// streamInterval paces the preview at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// FrameSource provides preview frames and the landmarks to draw on them.
type FrameSource interface {
	Preview() (gocv.Mat, bool)
	Overlay() *hand.Overlay
}

// StreamHandler serves MJPEG frames with the hand skeleton drawn on top.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler with the given frame source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source, interval: streamInterval}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if err := h.writeFrame(w); err != nil {
			log.Debug().Err(err).Msg("stream client gone")
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// writeFrame writes one multipart JPEG part. No frame available is not an
// error; the client keeps the previous image.
func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, ok := h.source.Preview()
	if !ok {
		return nil
	}
	defer frame.Close()

	h.source.Overlay().Draw(&frame)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
