// ubxchk computes the UBX checksum of a message given as hex bytes on the
// command line. The bytes should cover class, id, length, and payload,
// without the sync characters.
//
//	ubxchk 06 08 06 00 FA 00 02 00 00 00
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <hex values of UBX message>\n", os.Args[0])
		os.Exit(1)
	}

	msg := make([]byte, 0, len(os.Args)-1)
	for _, arg := range os.Args[1:] {
		v, err := strconv.ParseUint(arg, 16, 8)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad hex byte %q: %v\n", arg, err)
			os.Exit(1)
		}
		msg = append(msg, byte(v))
	}

	ckA, ckB := ubx.Checksum(msg)
	fmt.Printf("Checksum: CK_A = 0x%02X, CK_B = 0x%02X\n", ckA, ckB)
}
