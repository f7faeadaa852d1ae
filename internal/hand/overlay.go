package hand

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Overlay holds the landmarks currently drawn over the preview.
// It is written by the translator loop and read by the preview stream.
type Overlay struct {
	mu     sync.RWMutex
	points []Point
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Set replaces the drawn landmarks. An empty slice clears the overlay.
func (o *Overlay) Set(points []Point) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(points) == 0 {
		o.points = nil
		return
	}
	o.points = append(o.points[:0:0], points...)
}

// Clear removes all drawn landmarks.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.points = nil
}

// Points returns a copy of the drawn landmarks.
func (o *Overlay) Points() []Point {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.points) == 0 {
		return nil
	}
	return append([]Point(nil), o.points...)
}

// Empty reports whether nothing is drawn.
func (o *Overlay) Empty() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.points) == 0
}

// Draw renders the skeleton onto frame in place.
func (o *Overlay) Draw(frame *gocv.Mat) {
	points := o.Points()
	if frame == nil || frame.Empty() || len(points) == 0 {
		return
	}

	width, height := frame.Cols(), frame.Rows()
	toPixel := func(p Point) image.Point {
		return image.Point{X: int(p.X * float64(width)), Y: int(p.Y * float64(height))}
	}

	for _, c := range Connections {
		if c[0] >= len(points) || c[1] >= len(points) {
			continue
		}
		gocv.Line(frame, toPixel(points[c[0]]), toPixel(points[c[1]]), BoneColor, 2)
	}

	for i, p := range points {
		gocv.Circle(frame, toPixel(p), 3, ColorOf(i), -1)
	}
}
