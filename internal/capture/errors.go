package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned by a device that is attached but delivered no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
	// ErrConstraintsUnsatisfied is returned when a device cannot honour the requested mode.
	ErrConstraintsUnsatisfied = errors.New("camera constraints cannot be satisfied")

	ErrPermissionDenied   = errors.New("camera permission denied")
	ErrDeviceNotFound     = errors.New("camera device not found")
	ErrDeviceBusy         = errors.New("camera device busy")
	ErrTimeout            = errors.New("camera produced no frame in time")
	ErrNotProducingFrames = errors.New("camera attached but not producing frames")
	ErrDeviceDisconnected = errors.New("camera disconnected")
	ErrRetryLimitExceeded = errors.New("camera retry limit exceeded")

	// ErrNotLive is returned by Session.ReadFrame outside the live state.
	ErrNotLive = errors.New("camera session is not live")
)

// Remediation returns the title and message shown to the user for a
// camera failure.
func Remediation(err error) (title, message string) {
	switch {
	case errors.Is(err, ErrRetryLimitExceeded):
		return "Camera Error", "Maximum retry attempts reached. Please restart signlens."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission Required", "Please allow camera access for signlens in your system settings, then enable the camera again."
	case errors.Is(err, ErrDeviceNotFound):
		return "Camera Not Found", "No suitable camera detected. Please check your device has a working camera."
	case errors.Is(err, ErrDeviceBusy):
		return "Camera Busy", "Camera is already in use by another application. Please close other camera apps and try again."
	case errors.Is(err, ErrTimeout):
		return "Camera Timeout", "The camera did not deliver a frame within 8 seconds. Please reconnect it and try again."
	case errors.Is(err, ErrNotProducingFrames):
		return "Camera Not Working", "Camera initialized but is not providing video frames. Please try another camera."
	case errors.Is(err, ErrDeviceDisconnected):
		return "Camera Disconnected", "Camera disconnected. Please check your camera connection."
	case err == nil:
		return "", ""
	}
	return "Camera Error", fmt.Sprintf("Unable to access camera. %v", err)
}
