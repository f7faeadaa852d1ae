// Package stabilizer turns noisy per-frame predictions into settled recognitions
// using a sliding majority vote and a stability counter.
package stabilizer

import (
	"github.com/ayusman/signlens/internal/predict"
)

// Config holds the stabilizer thresholds.
type Config struct {
	// Threshold is the minimum confidence for a sample to enter the window.
	Threshold float64
	// WindowSize is the smoothing window capacity.
	WindowSize int
	// MinStability is the number of consecutive agreeing votes needed to settle.
	MinStability int
	// HistorySize bounds the recognition history.
	HistorySize int
}

// DefaultConfig returns the thresholds used by the translator.
func DefaultConfig() Config {
	return Config{
		Threshold:    0.75,
		WindowSize:   4,
		MinStability: 2,
		HistorySize:  10,
	}
}

// Result describes what one sample did to the stabilizer.
type Result struct {
	Valid     bool // sample entered the window
	Voted     bool // window produced a majority vote
	Vote      Vote
	Stability int
	// Settled is true only on the cycle a new recognition is emitted.
	Settled     bool
	Recognition Recognition
	// ClearOverlay asks the presentation layer to drop drawn landmarks.
	ClearOverlay bool
}

// Stabilizer is not safe for concurrent use; it belongs to the translator loop.
type Stabilizer struct {
	cfg       Config
	window    *Window
	history   *History
	stability int
	lastVote  string
	hasVote   bool
	current   *Recognition
}

// New creates a Stabilizer. Zero fields in cfg take the defaults.
func New(cfg Config) *Stabilizer {
	def := DefaultConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MinStability <= 0 {
		cfg.MinStability = def.MinStability
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}

	return &Stabilizer{
		cfg:     cfg,
		window:  NewWindow(cfg.WindowSize),
		history: NewHistory(cfg.HistorySize),
	}
}

// Valid reports whether a sample is a candidate for the window.
func (s *Stabilizer) Valid(sample predict.Sample) bool {
	return sample.Success &&
		!predict.IsNoSign(sample.Label) &&
		sample.Confidence >= s.cfg.Threshold
}

// Observe feeds one sample and returns its effect.
//
// A recognition is emitted once, on the cycle the stability counter reaches
// MinStability, and only if it differs from the recognition still being shown.
// Every invalid sample resets the counter and clears the overlay. A
// low-confidence sample with a visible hand keeps the shown recognition, so
// the same sign settling again right after it is not repeated; a sample
// without a hand clears it, which is how a doubled letter is entered.
func (s *Stabilizer) Observe(sample predict.Sample) Result {
	if !s.Valid(sample) {
		s.stability = 0
		s.hasVote = false
		if !sample.HandDetected {
			s.current = nil
		}
		return Result{ClearOverlay: true}
	}

	s.window.Push(sample)
	res := Result{Valid: true}

	vote, ok := s.window.Vote()
	if !ok {
		s.stability = 0
		s.hasVote = false
		return res
	}

	if s.hasVote && vote.Label == s.lastVote {
		s.stability++
	} else {
		s.stability = 1
	}
	s.lastVote = vote.Label
	s.hasVote = true

	res.Voted = true
	res.Vote = vote
	res.Stability = s.stability

	if s.stability == s.cfg.MinStability {
		if s.current == nil || s.current.Label != vote.Label {
			rec := Recognition{
				Label:      vote.Label,
				Confidence: vote.Confidence,
				At:         sample.Timestamp,
			}
			s.current = &rec
			s.history.Add(rec)
			res.Settled = true
			res.Recognition = rec
		}
	}

	return res
}

// Skip records a cycle that produced no usable prediction, such as a failed
// request. The counter restarts but the shown recognition is kept.
func (s *Stabilizer) Skip() {
	s.stability = 0
	s.hasVote = false
}

// Current returns the recognition currently shown, if any.
func (s *Stabilizer) Current() (Recognition, bool) {
	if s.current == nil {
		return Recognition{}, false
	}
	return *s.current, true
}

// Stability returns the current stability counter.
func (s *Stabilizer) Stability() int {
	return s.stability
}

// Window exposes the smoothing window for inspection.
func (s *Stabilizer) Window() *Window {
	return s.window
}

// History returns the recognition history, newest first.
func (s *Stabilizer) History() []Recognition {
	return s.history.Items()
}

// ClearHistory drops all recorded recognitions.
func (s *Stabilizer) ClearHistory() {
	s.history.Clear()
}

// Reset clears the window, counter and shown recognition. History is kept.
func (s *Stabilizer) Reset() {
	s.window.Clear()
	s.stability = 0
	s.hasVote = false
	s.lastVote = ""
	s.current = nil
}
