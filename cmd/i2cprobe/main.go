// Command i2cprobe issues a single transaction against an addressed
// peripheral from the shell.
//
//	i2cprobe -dev /dev/i2c-1 -addr 0x50 -tx 0000 -rx 16
//
// The response is printed as hex; failures exit nonzero with the taxonomy
// message and code.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"periphcode-go/bus/i2c"
	"periphcode-go/errcode"
)

var (
	devNode    = flag.String("dev", "/dev/i2c-1", "bus device node")
	addr       = flag.Uint("addr", 0x50, "peripheral address")
	tenBit     = flag.Bool("ten", false, "use 10-bit (extended) addressing")
	timeout    = flag.Duration("timeout", 100*time.Millisecond, "bus transfer timeout")
	txHex      = flag.String("tx", "", "request bytes as hex")
	rxLen      = flag.Int("rx", 0, "expected response length")
	closeAfter = flag.Bool("close", true, "release the device node after the transaction")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	tx, err := hex.DecodeString(*txHex)
	if err != nil {
		glog.Exitf("bad -tx %q: %v", *txHex, err)
	}
	// Empty transactions are rejected here, not in the transport.
	if len(tx) == 0 && *rxLen == 0 {
		glog.Exit("refusing to issue an empty transaction; set -tx and/or -rx")
	}

	dev := i2c.New(i2c.Config{
		Device:  *devNode,
		Addr:    uint16(*addr),
		TenBit:  *tenBit,
		Timeout: *timeout,
	})
	defer dev.Close()

	rx, err := dev.Transfer(tx, *rxLen, *closeAfter)
	if err != nil {
		if te, ok := err.(*errcode.Error); ok {
			fmt.Fprintf(os.Stderr, "%s (code %d)\n", te.Error(), te.Code())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
	if len(rx) > 0 {
		fmt.Printf("% x\n", rx)
	}
}
