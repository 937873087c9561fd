//go:build !linux

package i2c

import (
	"errors"
	"time"
)

// The i2c-dev transport exists only on Linux. The stubs keep the package
// buildable elsewhere so the taxonomy-facing API can still be exercised.

const enosys = 38 // ENOSYS

var errUnsupported = errors.New("i2c-dev transport requires linux")

func openDev(device string, timeout time.Duration) (int, error) {
	return -1, errUnsupported
}

func transferDev(fd int, addr uint16, tenBit bool, w, r []byte) int {
	return -enosys
}

func closeDev(fd int) error { return nil }
