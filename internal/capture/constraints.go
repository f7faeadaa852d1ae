package capture

// Constraints describes the capture mode requested from a device. Zero
// fields are left to the device.
type Constraints struct {
	Width        int
	MaxWidth     int
	Height       int
	MaxHeight    int
	FacingMode   string
	FrameRate    float64
	MaxFrameRate float64
	AspectRatio  float64
}

// DefaultConstraints is the preferred capture mode: 640x480 ideal, at most
// 1280x720, 30 fps, front-facing.
func DefaultConstraints() Constraints {
	return Constraints{
		Width:        DefaultWidth,
		MaxWidth:     1280,
		Height:       DefaultHeight,
		MaxHeight:    720,
		FacingMode:   FacingUser,
		FrameRate:    DefaultFPS,
		MaxFrameRate: DefaultFPS,
		AspectRatio:  16.0 / 9.0,
	}
}

// FallbackConstraints only asks for a front-facing device.
func FallbackConstraints() Constraints {
	return Constraints{FacingMode: FacingUser}
}

// Satisfied reports whether a negotiated resolution is within the upper
// bounds. Unknown (zero) dimensions are accepted.
func (c Constraints) Satisfied(width, height int) bool {
	if c.MaxWidth > 0 && width > c.MaxWidth {
		return false
	}
	if c.MaxHeight > 0 && height > c.MaxHeight {
		return false
	}
	return true
}
