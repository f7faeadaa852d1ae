// Package predict implements the client side of the remote sign prediction endpoint.
package predict

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/ayusman/signlens/internal/hand"
)

// NoHandLabel is the label the endpoint uses when no hand is visible.
const NoHandLabel = "No hand detected"

// Request is the JSON body posted for every frame.
type Request struct {
	Image               string  `json:"image"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	SmoothingFrames     int     `json:"smoothing_frames"`
	EnableLandmarks     bool    `json:"enable_landmarks"`
	RequestTimestamp    int64   `json:"request_timestamp"`
	FrameID             uint64  `json:"frame_id"`
}

// Response is the decoded endpoint answer. Fields the endpoint omitted or
// sent with the wrong type hold their zero value.
type Response struct {
	Success           bool         `json:"success"`
	Prediction        string       `json:"prediction"`
	Confidence        float64      `json:"confidence"`
	LandmarksDetected bool         `json:"landmarks_detected"`
	Landmarks         []hand.Point `json:"landmarks,omitempty"`
	HandCount         int          `json:"hand_count"`
}

// Sample is one parsed per-frame prediction handed to the stabilizer.
type Sample struct {
	Success      bool
	Label        string
	Confidence   float64
	HandDetected bool
	HandCount    int
	Landmarks    []hand.Point
	Timestamp    time.Time
}

// Sample converts the response into a stabilizer sample stamped with at.
func (r Response) Sample(at time.Time) Sample {
	return Sample{
		Success:      r.Success,
		Label:        strings.TrimSpace(r.Prediction),
		Confidence:   r.Confidence,
		HandDetected: r.LandmarksDetected && len(r.Landmarks) > 0,
		HandCount:    r.HandCount,
		Landmarks:    r.Landmarks,
		Timestamp:    at,
	}
}

// IsNoSign reports whether label is one of the sentinel "nothing recognized" values.
func IsNoSign(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "none", "no hand", strings.ToLower(NoHandLabel):
		return true
	}
	return false
}

// DecodeResponse parses an endpoint body. Only a body that is not a JSON
// object is an error; individual fields degrade to safe defaults.
func DecodeResponse(body []byte) (Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Response{}, ErrMalformedResponse
	}

	var r Response
	decodeField(fields, "success", &r.Success)
	decodeField(fields, "prediction", &r.Prediction)
	decodeField(fields, "landmarks_detected", &r.LandmarksDetected)

	var confidence float64
	if decodeField(fields, "confidence", &confidence) {
		r.Confidence = clampUnit(confidence)
	}

	var handCount float64
	if decodeField(fields, "hand_count", &handCount) && handCount > 0 {
		r.HandCount = int(handCount)
	}

	var landmarks []hand.Point
	if decodeField(fields, "landmarks", &landmarks) {
		r.Landmarks = landmarks
	}

	return r, nil
}

// decodeField unmarshals fields[key] into dst, leaving dst untouched on any error.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
