// Package config loads peripheral definitions from JSON and feeds them to a
// registry.
package config

import (
	"encoding/json"
	"os"

	"periphcode-go/errcode"
	"periphcode-go/services/periph"
	"periphcode-go/types"
)

// File is the on-disk shape:
//
//	{"peripherals": [{"name": "db0_eeprom", "device": "/dev/i2c-2",
//	                  "addr": 80, "timeout": 100000000}, ...]}
type File struct {
	Peripherals []types.PeriphConfig `json:"peripherals"`
}

// Load reads and parses a config file.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, errcode.IO("reading config " + path + ": " + err.Error())
	}
	return Parse(raw)
}

// Parse decodes raw JSON config bytes.
func Parse(raw []byte) (File, error) {
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, errcode.Syntax("parsing peripheral config: " + err.Error())
	}
	return f, nil
}

// Apply registers every peripheral into r, stopping at the first failure.
// Validation is the registry's job; this layer only moves the data.
func Apply(f File, r *periph.Registry) error {
	for _, cfg := range f.Peripherals {
		if err := r.Add(cfg); err != nil {
			return err
		}
	}
	return nil
}
