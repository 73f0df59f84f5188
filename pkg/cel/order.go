package cel

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// byteOrder is resolved once per top-level decode and handed to every
// primitive read. swap is relative to the host: it selects the byte order
// opposite to the host's.
type byteOrder struct {
	swap  bool
	order binary.ByteOrder
}

func newByteOrder(swap bool) byteOrder {
	hostBig := cpu.IsBigEndian
	if swap {
		hostBig = !hostBig
	}
	if hostBig {
		return byteOrder{swap: swap, order: binary.BigEndian}
	}
	return byteOrder{swap: swap, order: binary.LittleEndian}
}

// The two binary formats derive their swap flag from opposite host checks.
// Binary files end up little-endian and Calvin files big-endian on every host.
func binaryOrder() byteOrder { return newByteOrder(cpu.IsBigEndian) }

func calvinOrder() byteOrder { return newByteOrder(!cpu.IsBigEndian) }
