package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// DefaultGPUDevices are the device nodes checked when none are configured:
// NVIDIA, DRM render node (Mesa/Intel/AMD) and AMD KFD.
var DefaultGPUDevices = []string{"/dev/nvidia0", "/dev/dri/renderD128", "/dev/kfd"}

// accessFunc checks that path is readable and writable.
type accessFunc func(path string) error

// DeviceDetector implements session.CapabilityDetector by checking accelerator
// device nodes. Disable forces "unavailable" without probing.
type DeviceDetector struct {
	Devices []string
	Disable bool

	access accessFunc
}

// NewDeviceDetector returns a detector over devices, or DefaultGPUDevices when empty.
func NewDeviceDetector(devices []string, disable bool) *DeviceDetector {
	if len(devices) == 0 {
		devices = DefaultGPUDevices
	}
	return &DeviceDetector{Devices: devices, Disable: disable, access: deviceAccess}
}

// GPUAvailable returns true when any device node is accessible. Missing nodes
// and permission denials mean "unavailable"; any other access failure is a
// query error.
func (p *DeviceDetector) GPUAvailable(ctx context.Context) (bool, error) {
	if p.Disable {
		return false, nil
	}
	access := p.access
	if access == nil {
		access = deviceAccess
	}
	var errs []error
	for _, dev := range p.Devices {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		err := access(dev)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", dev, err))
	}
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return false, nil
}
