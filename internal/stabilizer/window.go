package stabilizer

import "github.com/ayusman/signlens/internal/predict"

// MinVoteSamples is the fewest samples the window needs before it votes.
const MinVoteSamples = 2

// Vote is the majority outcome of a window.
type Vote struct {
	Label      string
	Confidence float64 // mean confidence of the agreeing samples
	Count      int
}

// Window is a FIFO of the most recent valid samples.
type Window struct {
	capacity int
	samples  []predict.Sample
}

// NewWindow creates a window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		samples:  make([]predict.Sample, 0, capacity),
	}
}

// Push appends a sample, evicting the oldest one when full.
func (w *Window) Push(s predict.Sample) {
	if len(w.samples) >= w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.capacity-1]
	}
	w.samples = append(w.samples, s)
}

// Len returns the number of buffered samples.
func (w *Window) Len() int {
	return len(w.samples)
}

// Labels returns the buffered labels, oldest first.
func (w *Window) Labels() []string {
	labels := make([]string, len(w.samples))
	for i, s := range w.samples {
		labels[i] = s.Label
	}
	return labels
}

// Clear empties the window.
func (w *Window) Clear() {
	w.samples = w.samples[:0]
}

// Vote returns the majority label of the window.
//
// The label with the highest count wins; equal counts go to the label seen
// first (oldest). The winner is accepted only if its count is at least
// floor(len/2).
func (w *Window) Vote() (Vote, bool) {
	n := len(w.samples)
	if n < MinVoteSamples {
		return Vote{}, false
	}

	counts := make(map[string]int, n)
	sums := make(map[string]float64, n)
	order := make([]string, 0, n)

	for _, s := range w.samples {
		if _, seen := counts[s.Label]; !seen {
			order = append(order, s.Label)
		}
		counts[s.Label]++
		sums[s.Label] += s.Confidence
	}

	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}

	if counts[best] < n/2 {
		return Vote{}, false
	}

	return Vote{
		Label:      best,
		Confidence: sums[best] / float64(counts[best]),
		Count:      counts[best],
	}, true
}
