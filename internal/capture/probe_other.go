//go:build !linux

package capture

import (
	"fmt"
	"strings"
)

func probeDevice(int) error { return nil }

func openFailure(deviceID int, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not authorized"), strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: device %d: %v", ErrPermissionDenied, deviceID, err)
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		return fmt.Errorf("%w: device %d: %v", ErrDeviceBusy, deviceID, err)
	}
	return fmt.Errorf("%w: device %d: %v", ErrDeviceNotFound, deviceID, err)
}
