//go:build linux

package i2c

import (
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl requests and message flags from <linux/i2c-dev.h> and <linux/i2c.h>.
const (
	ioctlTimeout = 0x0702 // I2C_TIMEOUT, units of 10 ms
	ioctlTenBit  = 0x0704 // I2C_TENBIT
	ioctlRdwr    = 0x0707 // I2C_RDWR

	flagRead   = 0x0001 // I2C_M_RD
	flagTenBit = 0x0010 // I2C_M_TEN
)

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_      uint16
	buf    unsafe.Pointer
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrData struct {
	msgs  unsafe.Pointer
	nmsgs uint32
}

// openDev opens the device node and programs the kernel-side transfer
// timeout. A negative fd with nil error means the node was reachable but
// unusable.
func openDev(device string, timeout time.Duration) (int, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return -1, err
	}
	ticks := int(timeout / (10 * time.Millisecond))
	if ticks < 1 {
		ticks = 1
	}
	if err := unix.IoctlSetInt(fd, ioctlTimeout, ticks); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// transferDev performs one combined write/read transaction via I2C_RDWR.
// Both halves run in a single ioctl, so the read follows the write with a
// repeated start and the bus is never released in between. Returns 0 on
// success or the negated errno on failure.
func transferDev(fd int, addr uint16, tenBit bool, w, r []byte) int {
	var flags uint16
	if tenBit {
		flags |= flagTenBit
	}

	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: flags, length: uint16(len(w)), buf: unsafe.Pointer(&w[0])}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: addr, flags: flags | flagRead, length: uint16(len(r)), buf: unsafe.Pointer(&r[0])}
		n++
	}
	if n == 0 {
		return 0
	}

	data := i2cRdwrData{msgs: unsafe.Pointer(&msgs[0]), nmsgs: uint32(n)}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), ioctlRdwr, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if errno != 0 {
		return -int(errno)
	}
	return 0
}

func closeDev(fd int) error { return unix.Close(fd) }
