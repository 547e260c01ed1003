// Package ubx implements the u-blox UBX binary protocol as spoken by the
// M8Q receiver: frame synchronization over a raw byte stream, checksum
// verification, command encoding, payload decoding, and the startup
// configuration handshake.
package ubx

// UBX sync bytes and the (class, id) pairs this package understands.
const (
	Sync1 = 0xB5
	Sync2 = 0x62

	ClassNAV = 0x01
	ClassACK = 0x05
	ClassCFG = 0x06

	IDNavPVT  = 0x07 // NAV-PVT position/velocity/time solution
	IDCfgPrt  = 0x00 // CFG-PRT port protocol configuration
	IDCfgMsg  = 0x01 // CFG-MSG per-message output rates
	IDCfgRate = 0x08 // CFG-RATE measurement/solution rate
	IDAck     = 0x01 // ACK-ACK
	IDNack    = 0x00 // ACK-NAK
)

// Frame is one complete UBX message as captured off the wire: envelope,
// payload, and the two trailing checksum bytes. The payload length field is
// implied by len(Payload).
type Frame struct {
	Class   byte
	ID      byte
	Payload []byte
	CkA     byte
	CkB     byte
}

// EncodeFrame assembles a complete wire frame: sync bytes, class, id,
// little-endian length, payload, and checksum.
func EncodeFrame(class, id byte, payload []byte) []byte {
	length := uint16(len(payload))
	buf := make([]byte, 0, 8+len(payload))
	buf = append(buf, Sync1, Sync2, class, id, byte(length), byte(length>>8))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// Fixed configuration and poll commands. The checksum bytes are baked in,
// same as the command tables the M8Q setup sequence has always used; the
// codec tests recompute them through Checksum as a self-check.
var (
	// CFG-PRT: restrict the receiver's port to UBX protocol in and out.
	cmdSetProtocolUBX = []byte{
		0xB5, 0x62, 0x06, 0x00, 0x14, 0x00, 0x04, 0x00, 0x00, 0x00,
		0x00, 0x32, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x52, 0x94,
	}

	// CFG-MSG: enable periodic NAV-PVT output on the receiver's SPI port.
	cmdEnableNavPVT = []byte{
		0xB5, 0x62, 0x06, 0x01, 0x08, 0x00, 0x01, 0x07, 0x00, 0x00,
		0x00, 0x00, 0x01, 0x00, 0x18, 0xDE,
	}

	// CFG-RATE: 250 ms measurements, one solution every 2 cycles (2 Hz), UTC.
	cmdSetRate4x2 = []byte{
		0xB5, 0x62, 0x06, 0x08, 0x06, 0x00, 0xFA, 0x00, 0x02, 0x00,
		0x00, 0x00, 0x10, 0x98,
	}

	// CFG-RATE: 500 ms measurements, one solution every 2 cycles (1 Hz), UTC.
	cmdSetRate2x1 = []byte{
		0xB5, 0x62, 0x06, 0x08, 0x06, 0x00, 0xF4, 0x01, 0x02, 0x00,
		0x00, 0x00, 0x0B, 0x79,
	}

	// CFG-RATE poll (empty payload).
	cmdPollRate = []byte{0xB5, 0x62, 0x06, 0x08, 0x00, 0x00, 0x0E, 0x30}

	// CFG-MSG poll for NAV-PVT enablement.
	cmdPollNavPVT = []byte{
		0xB5, 0x62, 0x06, 0x01, 0x02, 0x00, 0x01, 0x07, 0x11, 0x3A,
	}
)

func cloned(cmd []byte) []byte {
	out := make([]byte, len(cmd))
	copy(out, cmd)
	return out
}

// SetProtocolUBX returns the CFG-PRT command restricting the interface to
// UBX-only traffic.
func SetProtocolUBX() []byte { return cloned(cmdSetProtocolUBX) }

// EnableNavPVT returns the CFG-MSG command enabling periodic NAV-PVT output.
func EnableNavPVT() []byte { return cloned(cmdEnableNavPVT) }

// SetRate4x2 returns the CFG-RATE command for 4 measurements and 2 solutions
// per second.
func SetRate4x2() []byte { return cloned(cmdSetRate4x2) }

// SetRate2x1 returns the CFG-RATE command for 2 measurements and 1 solution
// per second.
func SetRate2x1() []byte { return cloned(cmdSetRate2x1) }

// PollRate returns the CFG-RATE poll command.
func PollRate() []byte { return cloned(cmdPollRate) }

// PollNavPVT returns the CFG-MSG poll command for NAV-PVT enablement.
func PollNavPVT() []byte { return cloned(cmdPollNavPVT) }
