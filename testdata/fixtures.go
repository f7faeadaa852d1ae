// Package testdata provides synthetic camera frames and a scripted
// prediction service for tests that exercise the whole translator.
package testdata

import (
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/signlens/internal/hand"
	"github.com/ayusman/signlens/internal/predict"
)

// NewFrame draws a synthetic BGR frame: a gradient background with a
// skin-toned blob where a hand would be. Shift moves the blob so
// consecutive frames differ.
func NewFrame(width, height, shift int) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)

	for y := 0; y < height; y += 8 {
		shade := uint8(40 + 120*y/height)
		gocv.Rectangle(&mat, image.Rect(0, y, width, y+8), color.RGBA{R: shade / 2, G: shade / 2, B: shade, A: 255}, -1)
	}

	center := image.Pt(width/2+shift%(width/4), height*2/3)
	gocv.Circle(&mat, center, height/6, color.RGBA{R: 224, G: 172, B: 105, A: 255}, -1)

	return &mat
}

// NewFrames returns n frames of the given size. Close them with CloseAll.
func NewFrames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = NewFrame(width, height, i*4)
	}
	return frames
}

// CloseAll releases frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// OpenPalm returns a plausible 21-point hand in normalized coordinates.
func OpenPalm() []hand.Point {
	points := make([]hand.Point, hand.NumLandmarks)
	points[hand.Wrist] = hand.Point{X: 0.5, Y: 0.85}
	for i := 1; i < hand.NumLandmarks; i++ {
		finger := float64(hand.FingerOf(i))
		joint := float64((i - 1) % 4)
		points[i] = hand.Point{X: 0.3 + finger*0.07, Y: 0.7 - joint*0.1}
	}
	return points
}

// Answer is one scripted reply of the prediction service. An empty Label
// means no hand is in view.
type Answer struct {
	Label      string
	Confidence float64
	Status     int // non-zero forces an HTTP error
}

// Sign is a confident answer with a visible hand.
func Sign(label string, confidence float64) Answer {
	return Answer{Label: label, Confidence: confidence}
}

// PredictionService is an httptest server speaking the prediction JSON
// contract. It replies from its script in order, repeating the last answer.
type PredictionService struct {
	*httptest.Server

	mu       sync.Mutex
	script   []Answer
	frameIDs []uint64
	badImage int
}

// NewPredictionService starts a scripted service closed at test cleanup.
func NewPredictionService(t testing.TB, script ...Answer) *PredictionService {
	t.Helper()
	if len(script) == 0 {
		t.Fatal("prediction service needs at least one answer")
	}

	p := &PredictionService{script: script}
	p.Server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.Close)
	return p
}

func (p *PredictionService) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image   string `json:"image"`
		FrameID uint64 `json:"frame_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	if data, err := predict.DecodeDataURI(req.Image); err != nil || len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		p.badImage++
	}
	i := len(p.frameIDs)
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	answer := p.script[i]
	p.frameIDs = append(p.frameIDs, req.FrameID)
	p.mu.Unlock()

	if answer.Status != 0 {
		http.Error(w, http.StatusText(answer.Status), answer.Status)
		return
	}

	resp := map[string]any{"success": true}
	if answer.Label == "" {
		resp["prediction"] = predict.NoHandLabel
		resp["landmarks_detected"] = false
		resp["hand_count"] = 0
	} else {
		resp["prediction"] = answer.Label
		resp["confidence"] = answer.Confidence
		resp["landmarks_detected"] = true
		resp["landmarks"] = OpenPalm()
		resp["hand_count"] = 1
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// FrameIDs returns the frame ids received so far, in arrival order.
func (p *PredictionService) FrameIDs() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.frameIDs...)
}

// BadImages counts requests whose image was not a JPEG data URI.
func (p *PredictionService) BadImages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.badImage
}

// FrameLabel is the label scripted for the i-th request, counting from 0.
func (p *PredictionService) FrameLabel(i int) string {
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	if p.script[i].Label == "" {
		return predict.NoHandLabel
	}
	return p.script[i].Label
}
