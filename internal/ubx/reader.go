package ubx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTimeout is returned (possibly wrapped) when a transport produces no
// data within its configured read timeout, or when the frame reader burns
// through its scan budget without seeing a sync pattern. A silent device
// surfaces as this error instead of an indefinite stall.
var ErrTimeout = errors.New("ubx: read timed out")

// Transport is the minimal duplex byte interface the protocol engine needs.
// Implementations live in internal/transport (serial, SPI); tests use
// in-memory fakes.
type Transport interface {
	// ReadByte returns the next byte from the receiver, blocking up to the
	// transport's read timeout.
	ReadByte() (byte, error)
	// ReadFull fills p completely or returns an error.
	ReadFull(p []byte) error
	// Write sends a complete command frame to the receiver.
	Write(p []byte) error
}

const (
	// maxPayloadLen rejects lengths that cannot be real M8Q traffic. A
	// corrupted length field would otherwise swallow kilobytes of stream
	// before the next resync.
	maxPayloadLen = 2048

	// defaultScanLimit bounds how many bytes a single Next call will scan
	// for a sync pattern. On SPI the bus idles at 0xFF, so a dead receiver
	// looks like endless noise rather than a blocked read.
	defaultScanLimit = 64 * 1024
)

// FrameReader delimits UBX frames inside an untrusted byte stream. It scans
// byte-by-byte for the sync pattern, captures envelope, payload, and
// checksum, and only hands out frames whose checksum verifies. A mismatch
// discards the frame and resumes the byte-by-byte scan; it never assumes
// the stream is still aligned.
type FrameReader struct {
	tr        Transport
	scanLimit int
	badFrames int
}

// NewFrameReader returns a FrameReader over tr with the default scan budget.
func NewFrameReader(tr Transport) *FrameReader {
	return &FrameReader{tr: tr, scanLimit: defaultScanLimit}
}

// BadFrames reports how many frames were discarded for checksum mismatches
// since the reader was created.
func (r *FrameReader) BadFrames() int { return r.badFrames }

// Next blocks until a complete, checksum-valid frame is read and returns
// it. Frames with corrupt checksums or implausible lengths are discarded
// silently. Transport errors abort the in-progress frame and surface to
// the caller; ErrTimeout means the stream went quiet.
func (r *FrameReader) Next() (*Frame, error) {
	for {
		if err := r.seekSync(); err != nil {
			return nil, err
		}

		var env [4]byte // class, id, length (LE)
		if err := r.tr.ReadFull(env[:]); err != nil {
			return nil, fmt.Errorf("ubx: reading envelope: %w", err)
		}
		length := binary.LittleEndian.Uint16(env[2:4])
		if length > maxPayloadLen {
			// Bogus length; the stream is garbage here. Rescan.
			continue
		}

		payload := make([]byte, length)
		if err := r.tr.ReadFull(payload); err != nil {
			return nil, fmt.Errorf("ubx: reading payload: %w", err)
		}

		var ck [2]byte
		if err := r.tr.ReadFull(ck[:]); err != nil {
			return nil, fmt.Errorf("ubx: reading checksum: %w", err)
		}

		f := &Frame{Class: env[0], ID: env[1], Payload: payload, CkA: ck[0], CkB: ck[1]}
		if !f.Valid() {
			r.badFrames++
			continue
		}
		return f, nil
	}
}

// seekSync consumes the stream through a rolling two-byte window until it
// matches the sync pattern.
func (r *FrameReader) seekSync() error {
	window := uint16(0xFFFF)
	for scanned := 0; scanned < r.scanLimit; scanned++ {
		b, err := r.tr.ReadByte()
		if err != nil {
			return err
		}
		window = window<<8 | uint16(b)
		if window == uint16(Sync1)<<8|uint16(Sync2) {
			return nil
		}
	}
	return fmt.Errorf("ubx: no sync pattern in %d bytes: %w", r.scanLimit, ErrTimeout)
}
