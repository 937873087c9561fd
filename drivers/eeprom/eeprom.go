// Package eeprom provides a driver for AT24-style I2C ID EEPROMs with
// 16-bit offset addressing, plus a parser for the board-identification
// header stored at offset zero (magic, layout version, product ID,
// revision, serial).
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package eeprom

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"tinygo.org/x/drivers"

	"periphcode-go/errcode"
)

// Default I2C address of the ID EEPROM.
const Address = 0x50

// Board-identification header layout (big-endian, offset 0).
const (
	headerMagic = 0xF008AD10
	headerLen   = 28 // magic(4) version(4) pid(2) rev(2) serial(16)
	serialLen   = 16
)

// Config controls geometry and write behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x50 if zero.
	Address uint16
	// Size is the capacity in bytes. Default 8192 (64 Kbit part).
	Size int
	// PageSize bounds a single write burst. Default 32.
	PageSize int
	// WriteTimeout bounds ack-polling after a page write. Default 25 ms.
	WriteTimeout time.Duration
	// PollInterval is the ack-polling period. Default 1 ms.
	PollInterval time.Duration
}

// Device wraps an I2C connection to the EEPROM.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	w   [2]byte // offset scratch
}

// New creates a new EEPROM connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not
// touch the part.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config; it may be called with no cfg.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.Size <= 0 {
		c.Size = 8192
	}
	if c.PageSize <= 0 {
		c.PageSize = 32
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 25 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Millisecond
	}
	d.cfg = c
}

func (d *Device) configured() {
	if d.cfg.PageSize == 0 {
		d.Configure()
	}
}

// ReadAt fills buf from the given byte offset in one transaction (offset
// write, repeated-start read).
func (d *Device) ReadAt(offset int, buf []byte) error {
	d.configured()
	if offset < 0 || offset+len(buf) > d.cfg.Size {
		return errcode.Index("eeprom: read [" + strconv.Itoa(offset) + ", " +
			strconv.Itoa(offset+len(buf)) + ") outside part of size " + strconv.Itoa(d.cfg.Size))
	}
	if len(buf) == 0 {
		return nil
	}
	d.w[0] = byte(offset >> 8)
	d.w[1] = byte(offset)
	return d.bus.Tx(d.Address, d.w[:2], buf)
}

// WriteAt stores data at the given byte offset, splitting across page
// boundaries and ack-polling until each write cycle completes.
func (d *Device) WriteAt(offset int, data []byte) error {
	d.configured()
	if offset < 0 || offset+len(data) > d.cfg.Size {
		return errcode.Index("eeprom: write [" + strconv.Itoa(offset) + ", " +
			strconv.Itoa(offset+len(data)) + ") outside part of size " + strconv.Itoa(d.cfg.Size))
	}

	buf := make([]byte, 0, 2+d.cfg.PageSize)
	for len(data) > 0 {
		// Never cross a page boundary within one burst.
		n := d.cfg.PageSize - offset%d.cfg.PageSize
		if n > len(data) {
			n = len(data)
		}
		buf = append(buf[:0], byte(offset>>8), byte(offset))
		buf = append(buf, data[:n]...)
		if err := d.bus.Tx(d.Address, buf, nil); err != nil {
			return err
		}
		if err := d.waitWriteCycle(); err != nil {
			return err
		}
		offset += n
		data = data[n:]
	}
	return nil
}

// waitWriteCycle ack-polls the part until it answers again or the write
// timeout elapses. Parts nack every access while the internal write cycle
// is in progress.
func (d *Device) waitWriteCycle() error {
	deadline := time.Now().Add(d.cfg.WriteTimeout)
	for {
		d.w[0], d.w[1] = 0, 0
		if err := d.bus.Tx(d.Address, d.w[:2], nil); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errcode.IO("eeprom: write cycle did not complete within " +
				d.cfg.WriteTimeout.String())
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// Header is the parsed board-identification block.
type Header struct {
	Version uint32
	PID     uint16
	Rev     uint16
	Serial  string
}

// ReadHeader reads and validates the identification header at offset 0.
func (d *Device) ReadHeader() (Header, error) {
	var raw [headerLen]byte
	if err := d.ReadAt(0, raw[:]); err != nil {
		return Header{}, err
	}
	if magic := binary.BigEndian.Uint32(raw[0:4]); magic != headerMagic {
		return Header{}, errcode.Value("eeprom: bad header magic " +
			"0x" + strconv.FormatUint(uint64(magic), 16))
	}
	h := Header{
		Version: binary.BigEndian.Uint32(raw[4:8]),
		PID:     binary.BigEndian.Uint16(raw[8:10]),
		Rev:     binary.BigEndian.Uint16(raw[10:12]),
		Serial:  strings.TrimRight(string(raw[12:12+serialLen]), "\x00"),
	}
	return h, nil
}

// WriteHeader serializes and stores the identification header at offset 0.
func (d *Device) WriteHeader(h Header) error {
	if len(h.Serial) > serialLen {
		return errcode.Narrowing("eeprom: serial \"" + h.Serial + "\" longer than " +
			strconv.Itoa(serialLen) + " bytes")
	}
	var raw [headerLen]byte
	binary.BigEndian.PutUint32(raw[0:4], headerMagic)
	binary.BigEndian.PutUint32(raw[4:8], h.Version)
	binary.BigEndian.PutUint16(raw[8:10], h.PID)
	binary.BigEndian.PutUint16(raw[10:12], h.Rev)
	copy(raw[12:], h.Serial)
	return d.WriteAt(0, raw[:])
}
