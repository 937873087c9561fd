package types

import "time"

// ------------------------
// Peripheral configuration
// ------------------------

// PeriphConfig names one addressed peripheral on an I2C bus. All fields are
// fixed for the lifetime of the handle built from them.
type PeriphConfig struct {
	Name    string        `json:"name"`    // registry key, e.g. "db0_eeprom"
	Device  string        `json:"device"`  // device node, e.g. "/dev/i2c-1"
	Addr    uint16        `json:"addr"`    // peripheral address
	TenBit  bool          `json:"ten_bit"` // extended addressing
	Timeout time.Duration `json:"timeout"` // bus-level transfer timeout
}

// ------------------------
// Peripheral status (retained)
// ------------------------

// Link is the health reported for a peripheral.
type Link string

const (
	LinkUp   Link = "up"
	LinkDown Link = "down"
)

// PeriphStatus is published (retained) after every transaction.
type PeriphStatus struct {
	Link  Link   `json:"link"`
	Code  uint32 `json:"code,omitempty"`  // taxonomy code of the last error
	Error string `json:"error,omitempty"` // message of the last error
	TS    int64  `json:"ts_ns"`           // publish Unix ns
}
