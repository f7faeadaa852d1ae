package scheduler

import (
	"sync"
	"time"
)

// DefaultDisplayHz is the refresh rate the display ticker models.
const DefaultDisplayHz = 60

// Ticker delivers display ticks. The scheduler decides which ticks to act on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type displayTicker struct {
	t *time.Ticker
}

// NewDisplayTicker returns a Ticker firing hz times a second.
func NewDisplayTicker(hz int) Ticker {
	if hz <= 0 {
		hz = DefaultDisplayHz
	}
	return &displayTicker{t: time.NewTicker(time.Second / time.Duration(hz))}
}

func (d *displayTicker) C() <-chan time.Time { return d.t.C }
func (d *displayTicker) Stop()               { d.t.Stop() }

// ManualTicker is a Ticker driven by explicit Tick calls.
type ManualTicker struct {
	c    chan time.Time
	once sync.Once
	done chan struct{}
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		c:    make(chan time.Time),
		done: make(chan struct{}),
	}
}

func (m *ManualTicker) C() <-chan time.Time { return m.c }

func (m *ManualTicker) Stop() {
	m.once.Do(func() { close(m.done) })
}

// Tick hands at to the consumer. It returns false once the ticker is stopped.
func (m *ManualTicker) Tick(at time.Time) bool {
	select {
	case m.c <- at:
		return true
	case <-m.done:
		return false
	}
}
