package stabilizer

import "time"

// Recognition is a settled sign.
type Recognition struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// History keeps the most recent recognitions, newest first.
type History struct {
	max   int
	items []Recognition
}

// NewHistory creates a history bounded to max entries.
func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{max: max}
}

// Add records r as the newest entry, evicting the oldest beyond the bound.
func (h *History) Add(r Recognition) {
	h.items = append([]Recognition{r}, h.items...)
	if len(h.items) > h.max {
		h.items = h.items[:h.max]
	}
}

// Items returns a copy of the entries, newest first.
func (h *History) Items() []Recognition {
	return append([]Recognition(nil), h.items...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.items)
}

// Clear removes every entry.
func (h *History) Clear() {
	h.items = nil
}
