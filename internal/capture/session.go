package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// State is the acquisition state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateAcquiring
	StateLive
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAcquiring:
		return "acquiring"
	case StateLive:
		return "live"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText lets State appear by name in JSON and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateUninitialized; st <= StateError; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown camera state %q", text)
}

// Session defaults
const (
	DefaultMaxRetries      = 3
	DefaultFrameTimeout    = 8 * time.Second
	DefaultMaxReadFailures = 10
	DefaultPollInterval    = 50 * time.Millisecond
)

// SessionConfig tunes a Session. Zero fields take the defaults.
type SessionConfig struct {
	MaxRetries      int
	FrameTimeout    time.Duration
	MaxReadFailures int
	PollInterval    time.Duration
	Constraints     Constraints
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.FrameTimeout <= 0 {
		c.FrameTimeout = DefaultFrameTimeout
	}
	if c.MaxReadFailures <= 0 {
		c.MaxReadFailures = DefaultMaxReadFailures
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Constraints == (Constraints{}) {
		c.Constraints = DefaultConstraints()
	}
	return c
}

// Session owns a Device exclusively and tracks its acquisition state.
// At most one stream is live at a time: Acquire tears down the previous one.
type Session struct {
	dev Device
	cfg SessionConfig

	// op serializes device access: Acquire, Release and ReadFrame.
	op sync.Mutex

	mu           sync.Mutex
	state        State
	retries      int
	readFailures int
	width        int
	height       int
	disconnected chan struct{}
}

// NewSession creates a Session for dev.
func NewSession(dev Device, cfg SessionConfig) *Session {
	return &Session{
		dev:          dev,
		cfg:          cfg.withDefaults(),
		disconnected: make(chan struct{}),
	}
}

// Acquire opens the device and waits for it to produce a frame. The retry
// counter is checked first: once MaxRetries consecutive acquisitions have
// failed, Acquire returns ErrRetryLimitExceeded without touching the device.
func (s *Session) Acquire(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	if s.retries >= s.cfg.MaxRetries {
		s.state = StateError
		s.mu.Unlock()
		return fmt.Errorf("%w: %d failed attempts", ErrRetryLimitExceeded, s.cfg.MaxRetries)
	}
	s.mu.Unlock()

	s.releaseDevice()
	s.setState(StateAcquiring)

	width, height, err := s.acquire(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil && ctx.Err() != nil {
		// Abandoned by the caller; the device never got a fair attempt.
		s.state = StateUninitialized
		log.Debug().Err(err).Msg("camera acquisition canceled")
		return err
	}
	if err != nil {
		s.retries++
		s.state = StateError
		log.Warn().Err(err).Int("attempt", s.retries).Int("max", s.cfg.MaxRetries).Msg("camera acquisition failed")
		return err
	}

	s.retries = 0
	s.readFailures = 0
	s.width, s.height = width, height
	s.state = StateLive
	s.disconnected = make(chan struct{})
	log.Info().Int("width", width).Int("height", height).Msg("camera live")

	return nil
}

func (s *Session) acquire(ctx context.Context) (int, int, error) {
	if err := s.dev.Open(s.cfg.Constraints); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return 0, 0, err
		}
		log.Warn().Err(err).Msg("preferred camera constraints failed, trying fallback")
		if err := s.dev.Open(FallbackConstraints()); err != nil {
			return 0, 0, err
		}
	}

	width, height, err := s.waitFirstFrame(ctx)
	if err != nil {
		s.dev.Close()
		return 0, 0, err
	}
	return width, height, nil
}

// waitFirstFrame polls the device until a frame with non-zero dimensions
// arrives. A device that only yields empty frames is ErrNotProducingFrames;
// one that yields nothing at all is ErrTimeout.
func (s *Session) waitFirstFrame(ctx context.Context) (int, int, error) {
	deadline := time.NewTimer(s.cfg.FrameTimeout)
	defer deadline.Stop()

	sawEmpty := false
	for {
		frame, err := s.dev.ReadFrame()
		if err == nil {
			width, height := frame.Cols(), frame.Rows()
			frame.Close()
			if width > 0 && height > 0 {
				return width, height, nil
			}
			sawEmpty = true
		} else if errors.Is(err, ErrEmptyFrame) {
			sawEmpty = true
		}

		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-deadline.C:
			if sawEmpty {
				return 0, 0, ErrNotProducingFrames
			}
			return 0, 0, fmt.Errorf("%w after %s", ErrTimeout, s.cfg.FrameTimeout)
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// Release closes the device. It is safe to call at any time.
func (s *Session) Release() error {
	s.op.Lock()
	defer s.op.Unlock()

	err := s.releaseDevice()

	s.mu.Lock()
	if s.state != StateError {
		s.state = StateUninitialized
	}
	s.mu.Unlock()

	return err
}

func (s *Session) releaseDevice() error {
	if !s.dev.IsOpen() {
		return nil
	}
	return s.dev.Close()
}

// ReadFrame reads one frame from the live device. The caller owns the
// returned Mat. After MaxReadFailures consecutive failures, or when the
// device itself reports ErrDeviceDisconnected, the session releases the
// device, moves to StateDisconnected, closes the Disconnected channel and
// returns ErrDeviceDisconnected.
func (s *Session) ReadFrame() (*gocv.Mat, error) {
	s.op.Lock()
	defer s.op.Unlock()

	if s.State() != StateLive {
		return nil, ErrNotLive
	}

	frame, err := s.dev.ReadFrame()
	if err == nil && (frame.Cols() == 0 || frame.Rows() == 0) {
		frame.Close()
		err = ErrEmptyFrame
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		s.readFailures = 0
		return frame, nil
	}

	s.readFailures++
	if !errors.Is(err, ErrDeviceDisconnected) && s.readFailures < s.cfg.MaxReadFailures {
		return nil, err
	}

	log.Error().Err(err).Int("failures", s.readFailures).Msg("camera disconnected")
	s.dev.Close()
	s.state = StateDisconnected
	close(s.disconnected)

	return nil, fmt.Errorf("%w: %v", ErrDeviceDisconnected, err)
}

// Disconnected returns a channel closed when the current live stream ends
// unexpectedly. Each successful Acquire installs a new channel.
func (s *Session) Disconnected() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// State returns the acquisition state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Retries returns the number of consecutive failed acquisitions.
func (s *Session) Retries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retries
}

// Resolution returns the dimensions of the first verified frame.
func (s *Session) Resolution() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
