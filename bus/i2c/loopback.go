package i2c

import (
	"sync"

	"tinygo.org/x/drivers"

	"periphcode-go/errcode"
)

// Compile-time checks: both the node adapter and the loopback satisfy the
// drivers.I2C contract.
var (
	_ drivers.I2C = (*Bus)(nil)
	_ drivers.I2C = (*Loopback)(nil)
)

// Loopback is an in-memory bus for tests and dry runs. Each attached
// address behaves like a memory-style peripheral with a 16-bit write
// pointer: a write sets the pointer from its first two bytes and stores any
// remaining bytes there; a read returns bytes from the current pointer and
// advances it. That is the access pattern of AT24-style EEPROMs, which is
// what the in-tree drivers speak.
type Loopback struct {
	mu    sync.Mutex
	cells map[uint16]*loopCell
}

type loopCell struct {
	mem    []byte
	cursor int
}

// NewLoopback returns an empty loopback bus.
func NewLoopback() *Loopback {
	return &Loopback{cells: make(map[uint16]*loopCell)}
}

// Attach places a peripheral with the given backing memory at addr.
// Existing contents at that address are replaced.
func (l *Loopback) Attach(addr uint16, mem []byte) {
	l.mu.Lock()
	l.cells[addr] = &loopCell{mem: mem}
	l.mu.Unlock()
}

// Mem returns the backing memory at addr, or nil if nothing is attached.
func (l *Loopback) Mem(addr uint16) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.cells[addr]; ok {
		return c.mem
	}
	return nil
}

// Tx implements drivers.I2C against the attached peripherals. Addressing a
// vacant address reports a transaction failure the way a real bus reports a
// missing ack.
func (l *Loopback) Tx(addr uint16, w, r []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.cells[addr]
	if !ok {
		return errcode.USB(-enxio, "loopback: no peripheral at address")
	}

	if len(w) >= 2 {
		c.cursor = int(w[0])<<8 | int(w[1])
		for _, b := range w[2:] {
			if c.cursor >= len(c.mem) {
				return errcode.USB(-enxio, "loopback: write past end of memory")
			}
			c.mem[c.cursor] = b
			c.cursor++
		}
	}

	for i := range r {
		if c.cursor >= len(c.mem) {
			return errcode.USB(-enxio, "loopback: read past end of memory")
		}
		r[i] = c.mem[c.cursor]
		c.cursor++
	}
	return nil
}

const enxio = 6 // ENXIO: no such device or address
