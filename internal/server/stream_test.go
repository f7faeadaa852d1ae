package server

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signlens/internal/hand"
)

type fakeFrameSource struct {
	frame   gocv.Mat
	overlay *hand.Overlay
	calls   atomic.Int32
	empty   bool
}

func (f *fakeFrameSource) Preview() (gocv.Mat, bool) {
	f.calls.Add(1)
	if f.empty {
		return gocv.Mat{}, false
	}
	return f.frame.Clone(), true
}

func (f *fakeFrameSource) Overlay() *hand.Overlay { return f.overlay }

func newFakeFrameSource(t *testing.T) *fakeFrameSource {
	t.Helper()
	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	overlay := hand.NewOverlay()
	overlay.Set([]hand.Point{{X: 0.5, Y: 0.8}, {X: 0.4, Y: 0.6}})
	return &fakeFrameSource{frame: frame, overlay: overlay}
}

func TestStreamHandler_ServesJPEGParts(t *testing.T) {
	source := newFakeFrameSource(t)
	ts := httptest.NewServer(NewStreamHandler(source))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET stream error = %v", err)
	}
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] != "frame" {
		t.Fatalf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}

	mr := multipart.NewReader(resp.Body, "frame")
	for i := 0; i < 2; i++ {
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("part %d: %v", i, err)
		}
		if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part %d Content-Type = %q", i, ct)
		}
		data, err := io.ReadAll(part)
		if err != nil {
			t.Fatalf("part %d read: %v", i, err)
		}
		if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
			t.Errorf("part %d is not a JPEG", i)
		}
	}
}

func TestStreamHandler_WaitsForFrames(t *testing.T) {
	source := newFakeFrameSource(t)
	source.empty = true

	handler := NewStreamHandler(source)
	handler.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rec, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for source.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("handler did not poll for frames")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after the client left")
	}
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStreamHandler(newFakeFrameSource(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
