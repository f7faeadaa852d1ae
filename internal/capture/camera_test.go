package capture

import (
	"errors"
	"testing"
)

func TestNewCamera(t *testing.T) {
	for _, id := range []int{0, 1, 2} {
		cam := NewCamera(id)
		if cam == nil {
			t.Fatal("NewCamera returned nil")
		}
		// Camera should not be running initially
		if cam.IsOpen() {
			t.Errorf("camera %d should not be running initially", id)
		}
	}
}

func TestConstraints(t *testing.T) {
	def := DefaultConstraints()
	if def.Width != 640 || def.MaxWidth != 1280 || def.Height != 480 || def.MaxHeight != 720 {
		t.Errorf("DefaultConstraints() resolution = %+v", def)
	}
	if def.FrameRate != 30 || def.MaxFrameRate != 30 || def.FacingMode != FacingUser {
		t.Errorf("DefaultConstraints() = %+v", def)
	}

	fb := FallbackConstraints()
	if fb != (Constraints{FacingMode: FacingUser}) {
		t.Errorf("FallbackConstraints() = %+v, want facing mode only", fb)
	}

	tests := []struct {
		name          string
		width, height int
		want          bool
	}{
		{"ideal", 640, 480, true},
		{"at max", 1280, 720, true},
		{"too wide", 1920, 720, false},
		{"too tall", 1280, 1080, false},
		{"unknown", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := def.Satisfied(tt.width, tt.height); got != tt.want {
				t.Errorf("Satisfied(%d, %d) = %v, want %v", tt.width, tt.height, got, tt.want)
			}
		})
	}

	if !fb.Satisfied(4096, 2160) {
		t.Error("fallback constraints should accept any resolution")
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)

	err := cam.Open(DefaultConstraints())
	if err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		} else if mat.Cols() > 1280 || mat.Rows() > 720 {
			t.Errorf("frame %dx%d exceeds the constraint bounds", mat.Cols(), mat.Rows())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(0)

	// Close on not opened camera should not panic and return nil
	err := cam.Close()
	if err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}
