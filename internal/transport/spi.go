package transport

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// spiFill is clocked out whenever we only want to read. The receiver
// returns 0xFF for "nothing to send", which the frame reader scans past as
// inter-frame noise; its scan budget is what gives SPI reads timeout
// semantics, since the bus itself never blocks.
const spiFill = 0xFF

// SPI is a byte transport over the receiver's SPI interface, matching the
// original M8Q wiring on the Pi (mode 0, chip select 0).
type SPI struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenSPI opens the SPI device (e.g. "/dev/spidev0.0" or "" for the first
// registered bus) at the given clock frequency.
func OpenSPI(device string, freq physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("spi open %q: %w", device, err)
	}

	conn, err := port.Connect(freq, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spi connect: %w", err)
	}

	return &SPI{port: port, conn: conn}, nil
}

func (s *SPI) ReadByte() (byte, error) {
	var rx [1]byte
	if err := s.conn.Tx([]byte{spiFill}, rx[:]); err != nil {
		return 0, fmt.Errorf("spi read: %w", err)
	}
	return rx[0], nil
}

func (s *SPI) ReadFull(p []byte) error {
	tx := make([]byte, len(p))
	for i := range tx {
		tx[i] = spiFill
	}
	if err := s.conn.Tx(tx, p); err != nil {
		return fmt.Errorf("spi read: %w", err)
	}
	return nil
}

func (s *SPI) Write(p []byte) error {
	if err := s.conn.Tx(p, nil); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	return s.port.Close()
}
