// Package scheduler paces capture-and-predict cycles. A single loop
// goroutine consumes display ticks, throttles them to a target rate and
// dispatches at most one FrameRequest at a time. Results are applied on the
// loop goroutine, and only while their request is still current.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTargetFPS is the capture rate when Config.TargetFPS is unset.
const DefaultTargetFPS = 30

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("scheduler already running")

// FrameRequest is one in-flight capture-and-predict cycle.
type FrameRequest struct {
	ID     uint64
	Issued time.Time

	cancel context.CancelFunc
}

// Cancel aborts the request's context.
func (r *FrameRequest) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Work performs one cycle off the loop goroutine. The returned function, if
// any, runs on the loop goroutine when the request is still current.
type Work func(ctx context.Context, req FrameRequest) (apply func())

// Config configures a Scheduler.
type Config struct {
	TargetFPS int
	// NewTicker is called on every Start. Defaults to a 60 Hz display ticker.
	NewTicker func() Ticker
	// Ready gates dispatch; ticks are dropped while it returns false.
	Ready func() bool
	// OnStop runs on the loop goroutine after the last request is cancelled.
	OnStop func()
	Now    func() time.Time
}

// Stats counts what the loop did with the ticks it received.
type Stats struct {
	Accepted   uint64  `json:"accepted"`
	Throttled  uint64  `json:"throttled"`
	Dropped    uint64  `json:"dropped"`
	Dispatched uint64  `json:"dispatched"`
	Completed  uint64  `json:"completed"`
	Canceled   uint64  `json:"canceled"`
	Discarded  uint64  `json:"discarded"`
	FPS        float64 `json:"fps"`
}

type result struct {
	id    uint64
	apply func()
}

// Scheduler runs the frame loop.
type Scheduler struct {
	cfg      Config
	work     Work
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
	cmds chan bool

	visible atomic.Bool
	nextID  atomic.Uint64

	accepted   atomic.Uint64
	throttled  atomic.Uint64
	dropped    atomic.Uint64
	dispatched atomic.Uint64
	completed  atomic.Uint64
	canceled   atomic.Uint64
	discarded  atomic.Uint64
	fps        atomic.Uint64 // math.Float64bits
}

// New creates a stopped Scheduler that runs work for each accepted tick.
func New(cfg Config, work Work) *Scheduler {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = DefaultTargetFPS
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = func() Ticker { return NewDisplayTicker(DefaultDisplayHz) }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Scheduler{
		cfg:      cfg,
		work:     work,
		interval: time.Second / time.Duration(cfg.TargetFPS),
	}
	s.visible.Store(true)
	return s
}

// Interval is the minimum spacing between accepted ticks.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start launches the loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return ErrRunning
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.cmds = make(chan bool)
	s.fps.Store(0)

	go s.run(s.cfg.NewTicker(), s.stop, s.done, s.cmds)

	log.Debug().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop cancels the in-flight request, ends the loop and runs OnStop. It
// returns after the loop has exited and is safe to call repeatedly or
// concurrently.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// SetVisible pauses (false) or resumes (true) dispatching. Hiding cancels
// the in-flight request so its result is never applied.
func (s *Scheduler) SetVisible(visible bool) {
	s.visible.Store(visible)

	s.mu.Lock()
	running := s.stop != nil
	cmds, done := s.cmds, s.done
	s.mu.Unlock()

	if !running {
		return
	}
	select {
	case cmds <- visible:
	case <-done:
	}
}

// Visible reports the last visibility set.
func (s *Scheduler) Visible() bool { return s.visible.Load() }

// Stats returns a snapshot of the loop counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Accepted:   s.accepted.Load(),
		Throttled:  s.throttled.Load(),
		Dropped:    s.dropped.Load(),
		Dispatched: s.dispatched.Load(),
		Completed:  s.completed.Load(),
		Canceled:   s.canceled.Load(),
		Discarded:  s.discarded.Load(),
		FPS:        float64FromBits(s.fps.Load()),
	}
}

func (s *Scheduler) run(ticker Ticker, stop, done chan struct{}, cmds chan bool) {
	var (
		last     time.Time
		inflight *FrameRequest
		visible  = s.visible.Load()
		results  = make(chan result)
		meter    = fpsMeter{}
	)

	defer func() {
		ticker.Stop()
		if inflight != nil {
			inflight.Cancel()
			s.canceled.Add(1)
		}
		if s.cfg.OnStop != nil {
			s.cfg.OnStop()
		}
		close(done)
		log.Debug().Msg("scheduler stopped")
	}()

	for {
		select {
		case <-stop:
			return

		case v := <-cmds:
			if v == visible {
				continue
			}
			visible = v
			if !visible {
				if inflight != nil {
					inflight.Cancel()
					inflight = nil
					s.canceled.Add(1)
				}
				log.Debug().Msg("scheduler paused")
				continue
			}
			last = time.Time{}
			meter.reset()
			log.Debug().Msg("scheduler resumed")

		case now := <-ticker.C():
			if !visible {
				continue
			}
			if !last.IsZero() {
				elapsed := now.Sub(last)
				if elapsed <= s.interval {
					s.throttled.Add(1)
					continue
				}
				last = now.Add(-(elapsed % s.interval))
			} else {
				last = now
			}
			s.accepted.Add(1)

			if inflight != nil || (s.cfg.Ready != nil && !s.cfg.Ready()) {
				s.dropped.Add(1)
				continue
			}
			inflight = s.dispatch(now, results, done)

		case r := <-results:
			if inflight == nil || r.id != inflight.ID {
				s.discarded.Add(1)
				continue
			}
			inflight.Cancel()
			inflight = nil
			if r.apply != nil {
				r.apply()
			}
			s.completed.Add(1)
			if fps, ok := meter.observe(s.cfg.Now()); ok {
				s.fps.Store(float64Bits(fps))
			}
		}
	}
}

func (s *Scheduler) dispatch(now time.Time, results chan<- result, done <-chan struct{}) *FrameRequest {
	ctx, cancel := context.WithCancel(context.Background())
	req := &FrameRequest{
		ID:     s.nextID.Add(1),
		Issued: now,
		cancel: cancel,
	}
	s.dispatched.Add(1)

	go func(req FrameRequest) {
		apply := s.work(ctx, req)
		select {
		case results <- result{id: req.ID, apply: apply}:
		case <-done:
		}
	}(*req)

	return req
}
