package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back pre-recorded frames for testing. Open and read
// failures can be scripted.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	mu      sync.Mutex
	running bool

	openErrs    []error
	opened      []Constraints
	readErr     error
	emptyFrames bool
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

// FailOpens makes the next len(errs) calls to Open return errs in order.
// A nil entry lets that call succeed.
func (c *MockCamera) FailOpens(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErrs = append(c.openErrs, errs...)
}

// FailReads makes every ReadFrame return err until it is called with nil.
func (c *MockCamera) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// ProduceEmpty makes ReadFrame return ErrEmptyFrame, like a stream that
// attached but has no pixels yet.
func (c *MockCamera) ProduceEmpty(empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emptyFrames = empty
}

func (c *MockCamera) Open(cons Constraints) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opened = append(c.opened, cons)
	if len(c.openErrs) > 0 {
		err := c.openErrs[0]
		c.openErrs = c.openErrs[1:]
		if err != nil {
			return err
		}
	}

	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.readErr != nil {
		return nil, c.readErr
	}
	if c.emptyFrames {
		return nil, ErrEmptyFrame
	}

	if len(c.frames) == 0 {
		return nil, fmt.Errorf("no frames available")
	}

	if c.index >= len(c.frames) {
		if c.loop {
			c.index = 0
		} else {
			return nil, fmt.Errorf("no more frames")
		}
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// OpenCalls returns the constraints passed to every Open call so far.
func (c *MockCamera) OpenCalls() []Constraints {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Constraints(nil), c.opened...)
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
