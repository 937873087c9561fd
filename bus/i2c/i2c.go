// Package i2c provides transaction-level access to peripherals on a Linux
// I2C bus (/dev/i2c-N character devices).
//
// Dev is a handle to one addressed peripheral. The device node is opened
// lazily on the first transfer, can be released after any transfer with the
// closeAfter flag, and is reopened on the next use. Bus adapts a whole
// device node to the drivers.I2C contract so register-level drivers can
// share it across peripheral addresses.
package i2c

import (
	"sync"
	"time"

	"periphcode-go/errcode"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 100 * time.Millisecond

// Iface is the transaction surface of a single addressed peripheral.
type Iface interface {
	// Transfer performs one write-then-read exchange. tx may be empty for a
	// pure read; rxLen may be zero for a pure write. When closeAfter is
	// true the connection is released after the exchange, whatever its
	// outcome, and reopened on the next Transfer.
	Transfer(tx []byte, rxLen int, closeAfter bool) ([]byte, error)

	// Close releases the connection if open. Safe to call repeatedly.
	Close() error
}

// Config fixes the identity of the peripheral a Dev talks to. All fields
// are immutable for the lifetime of the handle.
type Config struct {
	Device  string        // device node, e.g. "/dev/i2c-1"
	Addr    uint16        // peripheral address
	TenBit  bool          // extended (10-bit) addressing
	Timeout time.Duration // bus-level transfer timeout; DefaultTimeout if zero
}

// Dev is a lazily connected handle to one addressed peripheral.
//
// A Dev is not safe for concurrent use: two goroutines sharing one handle
// must serialize their transfers externally (services/periph keeps a mutex
// per handle). The underlying file descriptor is owned exclusively by the
// handle and is never shared.
type Dev struct {
	cfg Config
	fd  int // -1 while closed

	// Exchange primitives, swappable in tests.
	openFn  func(device string, timeout time.Duration) (int, error)
	txFn    func(fd int, addr uint16, tenBit bool, w, r []byte) int
	closeFn func(fd int) error
}

var _ Iface = (*Dev)(nil)

// New returns a closed handle; no resource is opened until the first
// Transfer (or the handle is never opened at all if Transfer is never
// called).
func New(cfg Config) *Dev {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Dev{
		cfg:     cfg,
		fd:      -1,
		openFn:  openDev,
		txFn:    transferDev,
		closeFn: closeDev,
	}
}

// Opened reports whether the handle currently holds the device node.
func (d *Dev) Opened() bool { return d.fd >= 0 }

// Transfer implements Iface. Failures of the underlying exchange surface as
// a hardware-transaction error carrying the OS status; failures to open the
// node surface as a Runtime-kind error and leave the handle closed.
func (d *Dev) Transfer(tx []byte, rxLen int, closeAfter bool) ([]byte, error) {
	if d.fd < 0 {
		if err := d.open(); err != nil {
			return nil, err
		}
	}

	var rx []byte
	if rxLen > 0 {
		rx = make([]byte, rxLen)
	}
	status := d.txFn(d.fd, d.cfg.Addr, d.cfg.TenBit, tx, rx)

	// Release first: the close-after contract holds even when the exchange
	// failed, so a failed transaction never leaks the descriptor.
	if closeAfter {
		d.release()
	}

	if status != 0 {
		return nil, errcode.USB(status, "i2c transaction failed on "+d.cfg.Device)
	}
	return rx, nil
}

// Close implements Iface. The descriptor is released exactly once; closing
// an already-closed handle is a no-op.
func (d *Dev) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := d.closeFn(d.fd)
	d.fd = -1
	if err != nil {
		return errcode.OS("closing " + d.cfg.Device + ": " + err.Error())
	}
	return nil
}

func (d *Dev) open() error {
	fd, err := d.openFn(d.cfg.Device, d.cfg.Timeout)
	if err != nil {
		return errcode.Runtime("could not initialize i2c device " + d.cfg.Device + ": " + err.Error())
	}
	if fd < 0 {
		return errcode.Runtime("could not open i2c device " + d.cfg.Device)
	}
	d.fd = fd
	return nil
}

func (d *Dev) release() {
	if d.fd < 0 {
		return
	}
	_ = d.closeFn(d.fd)
	d.fd = -1
}

// Bus adapts one device node to the drivers.I2C contract, with the target
// address supplied per call. Unlike Dev, a Bus serializes transactions with
// an internal mutex so drivers on different addresses can share it.
type Bus struct {
	mu      sync.Mutex
	device  string
	timeout time.Duration
	tenBit  bool
	fd      int

	openFn  func(device string, timeout time.Duration) (int, error)
	txFn    func(fd int, addr uint16, tenBit bool, w, r []byte) int
	closeFn func(fd int) error
}

// NewBus returns a closed adapter for the given device node. The node is
// opened on first use.
func NewBus(device string, timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bus{
		device:  device,
		timeout: timeout,
		fd:      -1,
		openFn:  openDev,
		txFn:    transferDev,
		closeFn: closeDev,
	}
}

// Tx performs a write followed by a repeated-start read against addr,
// satisfying the drivers.I2C contract.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fd < 0 {
		fd, err := b.openFn(b.device, b.timeout)
		if err != nil {
			return errcode.Runtime("could not initialize i2c device " + b.device + ": " + err.Error())
		}
		if fd < 0 {
			return errcode.Runtime("could not open i2c device " + b.device)
		}
		b.fd = fd
	}

	if status := b.txFn(b.fd, addr, b.tenBit, w, r); status != 0 {
		return errcode.USB(status, "i2c transaction failed on "+b.device)
	}
	return nil
}

// Close releases the device node if open.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := b.closeFn(b.fd)
	b.fd = -1
	if err != nil {
		return errcode.OS("closing " + b.device + ": " + err.Error())
	}
	return nil
}
