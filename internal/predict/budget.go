package predict

import "time"

// DefaultMaxFailures is the number of consecutive failures that triggers a warning.
const DefaultMaxFailures = 5

// Budget counts consecutive prediction failures so a warning is raised once
// per run of failures instead of once per frame. Not safe for concurrent use;
// it lives on the translator loop.
type Budget struct {
	max   int
	count int
}

// NewBudget creates a Budget that trips after max consecutive failures.
func NewBudget(max int) *Budget {
	if max <= 0 {
		max = DefaultMaxFailures
	}
	return &Budget{max: max}
}

// Fail records a failure. It returns true when the threshold is reached,
// in which case the counter starts over.
func (b *Budget) Fail() bool {
	b.count++
	if b.count >= b.max {
		b.count = 0
		return true
	}
	return false
}

// Succeed clears the failure run.
func (b *Budget) Succeed() {
	b.count = 0
}

// Count returns the current number of consecutive failures.
func (b *Budget) Count() int {
	return b.count
}

// latencySamples is how many round trips Latency averages over.
const latencySamples = 10

// Latency keeps a rolling average of recent processing times.
type Latency struct {
	samples []time.Duration
}

// Observe records one round trip.
func (l *Latency) Observe(d time.Duration) {
	if len(l.samples) >= latencySamples {
		copy(l.samples, l.samples[1:])
		l.samples = l.samples[:latencySamples-1]
	}
	l.samples = append(l.samples, d)
}

// Average returns the mean of the recorded round trips, or 0.
func (l *Latency) Average() time.Duration {
	if len(l.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range l.samples {
		total += d
	}
	return total / time.Duration(len(l.samples))
}

// Reset forgets all samples.
func (l *Latency) Reset() {
	l.samples = l.samples[:0]
}
