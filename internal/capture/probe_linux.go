//go:build linux

package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// probeDevice opens the V4L2 node directly so that missing devices and
// permission problems are reported precisely before OpenCV gets involved.
func probeDevice(deviceID int) error {
	path := fmt.Sprintf("/dev/video%d", deviceID)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return classifyProbeError(path, err)
	}
	return f.Close()
}

func classifyProbeError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case errors.Is(err, syscall.EBUSY):
		return fmt.Errorf("%w: %s", ErrDeviceBusy, path)
	}
	return fmt.Errorf("probe %s: %w", path, err)
}

// openFailure classifies an OpenCV open failure on a node that passed
// probeDevice. V4L2 only refuses streaming buffers to a second reader, so
// the device is held by someone else.
func openFailure(deviceID int, err error) error {
	return fmt.Errorf("%w: device %d: %v", ErrDeviceBusy, deviceID, err)
}
