// Package capture owns the webcam: opening the device with preferred or
// fallback constraints, verifying it delivers frames, and detecting when it
// goes away mid-session.
package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480

	// FacingUser selects the camera pointing at the operator.
	FacingUser = "user"
)

// Device is a video source the session can open with constraints.
type Device interface {
	Open(c Constraints) error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewCamera creates a Device backed by the OpenCV capture device deviceID.
func NewCamera(deviceID int) Device {
	return &cameraImpl{deviceID: deviceID}
}

// Open opens the device and negotiates the requested mode. A device whose
// negotiated resolution exceeds the upper bounds is closed again and
// ErrConstraintsUnsatisfied returned. FacingMode has no meaning for an
// indexed desktop device and is ignored.
func (c *cameraImpl) Open(cons Constraints) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	if err := probeDevice(c.deviceID); err != nil {
		return err
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return openFailure(c.deviceID, err)
	}

	if cons.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cons.Width))
	}
	if cons.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cons.Height))
	}
	if cons.FrameRate > 0 {
		capture.Set(gocv.VideoCaptureFPS, cons.FrameRate)
	}

	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	if !cons.Satisfied(width, height) {
		capture.Close()
		return fmt.Errorf("%w: negotiated %dx%d", ErrConstraintsUnsatisfied, width, height)
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("read frame from device %d failed", c.deviceID)
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	return &mat, nil
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
