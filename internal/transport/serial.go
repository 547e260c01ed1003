package transport

import (
	"fmt"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// Serial is a byte transport over a serial device, the usual wiring when
// the receiver hangs off the Pi's UART (/dev/serial0, /dev/ttyAMA0, ...).
type Serial struct {
	port io.ReadWriteCloser
}

// OpenSerial opens device at baud, 8N1. readTimeout bounds how long a read
// waits for data; a silent receiver then surfaces as ubx.ErrTimeout
// instead of blocking forever.
func OpenSerial(device string, baud int, readTimeout time.Duration) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:   device,
		BaudRate:   uint(baud),
		DataBits:   8,
		StopBits:   1,
		ParityMode: serial.PARITY_NONE,
		// MinimumReadSize 0 with a timeout makes Read return empty when
		// the line goes quiet, which we map to ubx.ErrTimeout below.
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(readTimeout / time.Millisecond),
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return &Serial{port: port}, nil
}

func (s *Serial) ReadByte() (byte, error) {
	var b [1]byte
	n, err := s.port.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	if err == nil || err == io.EOF {
		return 0, ubx.ErrTimeout
	}
	return 0, fmt.Errorf("serial read: %w", err)
}

func (s *Serial) ReadFull(p []byte) error {
	for filled := 0; filled < len(p); {
		n, err := s.port.Read(p[filled:])
		if n > 0 {
			filled += n
			continue
		}
		if err == nil || err == io.EOF {
			return ubx.ErrTimeout
		}
		return fmt.Errorf("serial read: %w", err)
	}
	return nil
}

func (s *Serial) Write(p []byte) error {
	for written := 0; written < len(p); {
		n, err := s.port.Write(p[written:])
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		written += n
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
