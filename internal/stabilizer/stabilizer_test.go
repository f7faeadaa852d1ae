package stabilizer

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/signlens/internal/hand"
	"github.com/ayusman/signlens/internal/predict"
)

const epsilon = 1e-9

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func sign(label string, confidence float64) predict.Sample {
	return predict.Sample{
		Success:      true,
		Label:        label,
		Confidence:   confidence,
		HandDetected: true,
		HandCount:    1,
		Landmarks:    []hand.Point{{X: 0.5, Y: 0.5}},
	}
}

func noHand() predict.Sample {
	return predict.Sample{Success: true, Label: predict.NoHandLabel}
}

func windowOf(labels ...string) *Window {
	w := NewWindow(len(labels))
	for _, l := range labels {
		w.Push(sign(l, 0.9))
	}
	return w
}

func TestWindow_Vote(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		wantLabel string
		wantCount int
		wantOK    bool
	}{
		{name: "clear majority", labels: []string{"A", "A", "B", "A"}, wantLabel: "A", wantCount: 3, wantOK: true},
		{name: "tie goes to first seen A", labels: []string{"A", "A", "B", "B"}, wantLabel: "A", wantCount: 2, wantOK: true},
		{name: "tie goes to first seen B", labels: []string{"B", "B", "A", "A"}, wantLabel: "B", wantCount: 2, wantOK: true},
		{name: "interleaved tie", labels: []string{"B", "A", "B", "A"}, wantLabel: "B", wantCount: 2, wantOK: true},
		{name: "single sample does not vote", labels: []string{"A"}, wantOK: false},
		{name: "two different labels", labels: []string{"A", "B"}, wantLabel: "A", wantCount: 1, wantOK: true},
		{name: "no label reaches half", labels: []string{"A", "B", "C", "D"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, ok := windowOf(tt.labels...).Vote()
			if ok != tt.wantOK {
				t.Fatalf("Vote() ok = %v, want %v (vote %+v)", ok, tt.wantOK, vote)
			}
			if !ok {
				return
			}
			if vote.Label != tt.wantLabel || vote.Count != tt.wantCount {
				t.Errorf("Vote() = %s x%d, want %s x%d", vote.Label, vote.Count, tt.wantLabel, tt.wantCount)
			}
		})
	}
}

func TestWindow_VoteConfidenceUsesAgreeingSamples(t *testing.T) {
	w := NewWindow(4)
	w.Push(sign("A", 0.8))
	w.Push(sign("B", 0.99))
	w.Push(sign("A", 0.9))
	w.Push(sign("A", 1.0))

	vote, ok := w.Vote()
	if !ok {
		t.Fatal("expected a vote")
	}
	if math.Abs(vote.Confidence-0.9) > epsilon {
		t.Errorf("Confidence = %f, want 0.9", vote.Confidence)
	}
}

func TestWindow_EvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for _, l := range []string{"A", "B", "C", "D"} {
		w.Push(sign(l, 0.9))
	}

	if w.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", w.Len())
	}
	got := w.Labels()
	want := []string{"B", "C", "D"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels() = %v, want %v", got, want)
			break
		}
	}
}

func TestStabilizer_Valid(t *testing.T) {
	s := New(DefaultConfig())

	tests := []struct {
		name   string
		sample predict.Sample
		want   bool
	}{
		{"confident sign", sign("A", 0.8), true},
		{"exactly at threshold", sign("A", 0.75), true},
		{"low confidence", sign("A", 0.74), false},
		{"no hand sentinel", noHand(), false},
		{"none sentinel", sign("none", 0.99), false},
		{"unsuccessful", predict.Sample{Label: "A", Confidence: 0.99}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Valid(tt.sample); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStabilizer_SettlesOnceOnCrossing(t *testing.T) {
	s := New(DefaultConfig())

	settled := 0
	for i := 0; i < 8; i++ {
		res := s.Observe(sign("A", 0.9))
		if res.Settled {
			settled++
			if i != 2 {
				t.Errorf("settled on cycle %d, want cycle 2", i)
			}
		}
	}

	if settled != 1 {
		t.Errorf("settled %d times, want exactly 1", settled)
	}
	if s.Stability() != 7 {
		t.Errorf("Stability() = %d, want 7", s.Stability())
	}
	if cur, ok := s.Current(); !ok || cur.Label != "A" {
		t.Errorf("Current() = %+v, %v, want A", cur, ok)
	}
}

func TestStabilizer_InvalidSampleResetsCounter(t *testing.T) {
	s := New(DefaultConfig())
	s.Observe(sign("A", 0.9))
	s.Observe(sign("A", 0.9))
	if s.Stability() != 1 {
		t.Fatalf("Stability() = %d, want 1", s.Stability())
	}

	res := s.Observe(sign("A", 0.2))
	if res.Valid {
		t.Error("low confidence sample should be invalid")
	}
	if s.Stability() != 0 {
		t.Errorf("Stability() = %d after invalid sample, want 0", s.Stability())
	}
	if s.Window().Len() != 2 {
		t.Errorf("invalid sample entered the window, Len() = %d", s.Window().Len())
	}
	if !res.ClearOverlay {
		t.Error("low confidence sample should clear the overlay")
	}
}

func TestStabilizer_LowConfidenceGapDoesNotRepeat(t *testing.T) {
	s := New(DefaultConfig())
	for i := 0; i < 3; i++ {
		s.Observe(sign("A", 0.9))
	}

	if res := s.Observe(sign("A", 0.3)); res.Settled || !res.ClearOverlay {
		t.Fatalf("low confidence sample = %+v", res)
	}
	if cur, ok := s.Current(); !ok || cur.Label != "A" {
		t.Errorf("Current() = %+v, %v, want A kept with the hand in view", cur, ok)
	}

	s.Observe(sign("A", 0.9))
	res := s.Observe(sign("A", 0.9))
	if res.Stability != 2 {
		t.Errorf("Stability = %d, want 2", res.Stability)
	}
	if res.Settled {
		t.Error("A settled again while still shown")
	}
	if got := len(s.History()); got != 1 {
		t.Errorf("len(History()) = %d, want 1", got)
	}
}

func TestStabilizer_NoHandClearsOverlayAndCurrent(t *testing.T) {
	s := New(DefaultConfig())
	for i := 0; i < 3; i++ {
		s.Observe(sign("A", 0.9))
	}
	if _, ok := s.Current(); !ok {
		t.Fatal("expected A to be settled")
	}

	res := s.Observe(noHand())
	if !res.ClearOverlay {
		t.Error("no-hand sample should clear the overlay")
	}
	if res.Settled {
		t.Error("no-hand sample must not settle")
	}
	if _, ok := s.Current(); ok {
		t.Error("no-hand sample should clear the shown recognition")
	}

	// The same sign shown again is a new recognition.
	s.Observe(sign("A", 0.9))
	res = s.Observe(sign("A", 0.9))
	if !res.Settled || res.Recognition.Label != "A" {
		t.Errorf("expected A to settle again, got %+v", res)
	}
	if got := len(s.History()); got != 2 {
		t.Errorf("len(History()) = %d, want 2", got)
	}
}

func TestStabilizer_VoteChangeRestartsCounter(t *testing.T) {
	s := New(Config{Threshold: 0.5, WindowSize: 2, MinStability: 2, HistorySize: 10})

	s.Observe(sign("A", 0.9))
	s.Observe(sign("A", 0.9)) // vote A, 1
	s.Observe(sign("A", 0.9)) // vote A, 2 -> settled
	res := s.Observe(sign("B", 0.9))
	// window [A,B] ties to A
	if res.Vote.Label != "A" || res.Stability != 3 {
		t.Fatalf("after first B: vote %s stability %d, want A 3", res.Vote.Label, res.Stability)
	}
	res = s.Observe(sign("B", 0.9)) // window [B,B]
	if res.Vote.Label != "B" || res.Stability != 1 {
		t.Fatalf("after second B: vote %s stability %d, want B 1", res.Vote.Label, res.Stability)
	}
	res = s.Observe(sign("B", 0.9))
	if !res.Settled || res.Recognition.Label != "B" {
		t.Fatalf("expected B to settle, got %+v", res)
	}

	hist := s.History()
	if len(hist) != 2 || hist[0].Label != "B" || hist[1].Label != "A" {
		t.Errorf("History() = %+v, want [B A]", hist)
	}
}

func TestStabilizer_EndToEndSequence(t *testing.T) {
	s := New(Config{Threshold: 0.75, WindowSize: 4, MinStability: 2, HistorySize: 10})

	lowB := sign("B", 0.5)
	frames := []predict.Sample{
		sign("A", 0.9),
		sign("A", 0.8),
		sign("A", 0.95),
		sign("B", 0.9),
		sign("A", 0.85),
		lowB,
		sign("A", 0.9),
		sign("A", 0.88),
		sign("A", 0.92),
		sign("A", 0.87),
	}

	firstSettled := -1
	settledCount := 0
	for i, f := range frames {
		f.Timestamp = base.Add(time.Duration(i) * 33 * time.Millisecond)
		res := s.Observe(f)

		if res.Settled {
			settledCount++
			if res.Recognition.Label != "A" {
				t.Errorf("cycle %d settled %q, want A", i+1, res.Recognition.Label)
			}
			if firstSettled < 0 {
				firstSettled = i + 1
				if math.Abs(res.Recognition.Confidence-(0.9+0.8+0.95)/3) > epsilon {
					t.Errorf("settled confidence = %f", res.Recognition.Confidence)
				}
			}
		}

		if res.Voted && res.Vote.Label != "A" {
			t.Errorf("cycle %d voted %q, want A", i+1, res.Vote.Label)
		}
		if cur, ok := s.Current(); ok && cur.Label != "A" {
			t.Errorf("cycle %d shows %q, want A", i+1, cur.Label)
		}
	}

	if firstSettled != 3 {
		t.Errorf("first settled on cycle %d, want 3", firstSettled)
	}
	if settledCount != 1 {
		t.Errorf("settled %d times, want 1", settledCount)
	}
}

func TestStabilizer_HistoryBounded(t *testing.T) {
	s := New(Config{Threshold: 0.5, WindowSize: 2, MinStability: 2, HistorySize: 10})

	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, l := range labels {
		s.Observe(sign(l, 0.9))
		s.Observe(sign(l, 0.9))
		s.Observe(sign(l, 0.9))
		s.Observe(noHand())
	}

	hist := s.History()
	if len(hist) != 10 {
		t.Fatalf("len(History()) = %d, want 10", len(hist))
	}
	if hist[0].Label != "l" || hist[9].Label != "c" {
		t.Errorf("History() newest=%s oldest=%s, want l and c", hist[0].Label, hist[9].Label)
	}

	s.ClearHistory()
	if len(s.History()) != 0 {
		t.Error("ClearHistory() should empty the history")
	}
}

func TestStabilizer_Reset(t *testing.T) {
	s := New(DefaultConfig())
	for i := 0; i < 3; i++ {
		s.Observe(sign("A", 0.9))
	}

	s.Reset()

	if s.Window().Len() != 0 || s.Stability() != 0 {
		t.Errorf("Reset() left window %d stability %d", s.Window().Len(), s.Stability())
	}
	if _, ok := s.Current(); ok {
		t.Error("Reset() should clear the shown recognition")
	}
	if len(s.History()) != 1 {
		t.Error("Reset() should keep history")
	}
}

func TestStabilizer_SkipKeepsCurrent(t *testing.T) {
	s := New(DefaultConfig())
	for i := 0; i < 3; i++ {
		s.Observe(sign("A", 0.9))
	}

	s.Skip()

	if s.Stability() != 0 {
		t.Errorf("Stability() = %d after Skip, want 0", s.Stability())
	}
	if cur, ok := s.Current(); !ok || cur.Label != "A" {
		t.Errorf("Skip() dropped the shown recognition: %+v %v", cur, ok)
	}
	// Counter restarts at 1, so the next vote reaches 2 without re-emitting A.
	s.Observe(sign("A", 0.9))
	if res := s.Observe(sign("A", 0.9)); res.Settled {
		t.Error("A re-emitted after Skip")
	}
}
