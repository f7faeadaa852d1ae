// Package hand models the 21-point hand skeleton returned with predictions
// and the landmark overlay drawn over the camera preview.
package hand

import "image/color"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point is a landmark in normalized image coordinates (0..1 on both axes).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finger identifies which part of the hand a landmark belongs to.
type Finger int

const (
	FingerWrist Finger = iota
	FingerThumb
	FingerIndex
	FingerMiddle
	FingerRing
	FingerPinky
)

// Connections lists the landmark pairs that make up the drawn skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{Wrist, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{Wrist, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, RingMCP}, {RingMCP, PinkyMCP},
}

// FingerOf returns the finger a landmark index belongs to.
// Indices outside the skeleton map to FingerWrist.
func FingerOf(index int) Finger {
	if index <= Wrist || index >= NumLandmarks {
		return FingerWrist
	}
	return Finger((index-1)/4 + 1)
}

var fingerColors = map[Finger]color.RGBA{
	FingerWrist:  {R: 255, A: 255},
	FingerThumb:  {R: 255, G: 255, A: 255},
	FingerIndex:  {G: 255, B: 255, A: 255},
	FingerMiddle: {R: 255, B: 255, A: 255},
	FingerRing:   {R: 255, G: 255, B: 255, A: 255},
	FingerPinky:  {R: 255, G: 165, A: 255},
}

// BoneColor is used for the skeleton connections.
var BoneColor = color.RGBA{G: 255, A: 255}

// ColorOf returns the marker color for a landmark index.
func ColorOf(index int) color.RGBA {
	if index < 0 || index >= NumLandmarks {
		return BoneColor
	}
	return fingerColors[FingerOf(index)]
}

// Valid reports whether every point lies within the normalized frame.
func Valid(points []Point) bool {
	if len(points) == 0 {
		return false
	}
	for _, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return false
		}
	}
	return true
}
