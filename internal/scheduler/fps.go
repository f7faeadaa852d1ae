package scheduler

import (
	"math"
	"time"
)

// fpsMeter reports completions per second once per elapsed second.
type fpsMeter struct {
	start time.Time
	count int
}

func (m *fpsMeter) observe(now time.Time) (float64, bool) {
	if m.start.IsZero() {
		m.start = now
	}
	m.count++

	elapsed := now.Sub(m.start)
	if elapsed < time.Second {
		return 0, false
	}
	fps := float64(m.count) / elapsed.Seconds()
	m.start = now
	m.count = 0
	return fps, true
}

func (m *fpsMeter) reset() {
	m.start = time.Time{}
	m.count = 0
}

func float64Bits(f float64) uint64     { return math.Float64bits(f) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
