package app

import (
	"sync"
	"time"

	"github.com/ayusman/signlens/internal/hand"
	"github.com/ayusman/signlens/internal/stabilizer"
)

// EventType names what an Event carries.
type EventType string

const (
	EventPrediction EventType = "prediction"
	EventSettled    EventType = "settled"
	EventNotice     EventType = "notice"
	EventStatus     EventType = "status"
)

// Notice levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is a user-facing message.
type Notice struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Prediction summarizes one applied frame.
type Prediction struct {
	FrameID      uint64       `json:"frame_id"`
	Label        string       `json:"label"`
	Confidence   float64      `json:"confidence"`
	HandDetected bool         `json:"hand_detected"`
	Landmarks    []hand.Point `json:"landmarks,omitempty"`
	Vote         string       `json:"vote,omitempty"`
	Stability    int          `json:"stability"`
}

// Event is pushed to subscribers. Exactly one payload field is set.
type Event struct {
	Type        EventType               `json:"type"`
	Time        time.Time               `json:"time"`
	Prediction  *Prediction             `json:"prediction,omitempty"`
	Recognition *stabilizer.Recognition `json:"recognition,omitempty"`
	Notice      *Notice                 `json:"notice,omitempty"`
	Status      *Status                 `json:"status,omitempty"`
}

// subscriberBuffer is how many events a slow subscriber may lag behind
// before events are dropped for it.
const subscriberBuffer = 64

type broker struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[chan Event]struct{})}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
