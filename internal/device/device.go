// Package device resolves where compute nominally runs. Placement is a
// tag on this backend: no observable training behavior differs by device.
package device

import (
	"errors"
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"void-forge/internal/model"
)

// Device tags where tensors and parameters reside.
type Device string

const (
	CPU   Device = "cpu"
	Accel Device = "accel"
)

// ErrUnknownDevice indicates an unrecognized device preference.
var ErrUnknownDevice = errors.New("device: unknown preference")

// Select resolves a preference ("cpu", "accel", "auto" or empty).
// Auto picks Accel when the host advertises AVX2.
func Select(pref string) (Device, error) {
	switch pref {
	case "", "auto":
		if hasAccel() {
			return Accel, nil
		}
		return CPU, nil
	case "cpu":
		return CPU, nil
	case "accel":
		return Accel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDevice, pref)
	}
}

// Place moves a batch onto the device. The batch is returned unchanged.
func (d Device) Place(b model.Batch) model.Batch {
	return b
}

func hasAccel() bool {
	return cpuid.CPU.Supports(cpuid.AVX2)
}
