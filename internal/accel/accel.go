// Package accel checks that the hardware backend inference is pinned to is present.
package accel

import (
	"fmt"
	"strings"
)

// Device names the compute backend inference runs on.
type Device string

const (
	// CUDA is the accelerator the runner expects by default.
	CUDA Device = "cuda"
	// CPU is always available.
	CPU Device = "cpu"
)

// ParseDevice maps a configured device name to a Device.
func ParseDevice(name string) (Device, error) {
	switch Device(strings.ToLower(strings.TrimSpace(name))) {
	case CUDA:
		return CUDA, nil
	case CPU:
		return CPU, nil
	default:
		return "", fmt.Errorf("unknown device %q (want cuda or cpu)", name)
	}
}

// Probe reports whether a device can be used on this machine.
type Probe interface {
	Available(device Device) bool
}

// SystemProbe queries the OpenCV build for usable devices.
type SystemProbe struct{}

// Available reports whether device is usable. CUDA needs at least one CUDA enabled device.
func (SystemProbe) Available(device Device) bool {
	switch device {
	case CPU:
		return true
	case CUDA:
		return cudaDeviceCount() > 0
	default:
		return false
	}
}
