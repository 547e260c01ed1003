package ubx

import (
	"bytes"
	"errors"
	"testing"
)

// byteTransport replays a fixed byte stream and reports ErrTimeout once it
// runs dry, like a receiver that has gone quiet.
type byteTransport struct {
	data   []byte
	pos    int
	writes [][]byte
}

func (t *byteTransport) ReadByte() (byte, error) {
	if t.pos >= len(t.data) {
		return 0, ErrTimeout
	}
	b := t.data[t.pos]
	t.pos++
	return b, nil
}

func (t *byteTransport) ReadFull(p []byte) error {
	if t.pos+len(p) > len(t.data) {
		t.pos = len(t.data)
		return ErrTimeout
	}
	copy(p, t.data[t.pos:t.pos+len(p)])
	t.pos += len(p)
	return nil
}

func (t *byteTransport) Write(p []byte) error {
	t.writes = append(t.writes, append([]byte(nil), p...))
	return nil
}

func TestReaderResyncsThroughLeadingNoise(t *testing.T) {
	payload := navPVTPayload(52000000, 13000000)
	frame := EncodeFrame(ClassNAV, IDNavPVT, payload)

	// Noise with a lone 0xB5 false start in the middle.
	noise := []byte{0x00, 0xFF, 0xB5, 0x13, 0x62, 0xAA, 0x55, 0xFF}
	tr := &byteTransport{data: append(append([]byte(nil), noise...), frame...)}
	r := NewFrameReader(tr)

	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Class != ClassNAV || f.ID != IDNavPVT {
		t.Errorf("frame = 0x%02X/0x%02X, want 0x01/0x07", f.Class, f.ID)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Error("payload mismatch after resync")
	}

	// Stream is exhausted: the reader is back to seeking and times out.
	if _, err := r.Next(); !errors.Is(err, ErrTimeout) {
		t.Errorf("Next() after stream end = %v, want ErrTimeout", err)
	}
}

func TestReaderDiscardsCorruptFrameAndRecovers(t *testing.T) {
	first := EncodeFrame(ClassNAV, IDNavPVT, navPVTPayload(1, 1))
	second := EncodeFrame(ClassNAV, IDNavPVT, navPVTPayload(2, 2))
	second[len(second)-1] ^= 0xFF // flip a checksum byte
	third := EncodeFrame(ClassNAV, IDNavPVT, navPVTPayload(3, 3))

	var stream []byte
	stream = append(stream, first...)
	stream = append(stream, second...)
	stream = append(stream, third...)

	r := NewFrameReader(&byteTransport{data: stream})

	var got []int32
	for {
		f, err := r.Next()
		if err != nil {
			if !errors.Is(err, ErrTimeout) {
				t.Fatalf("Next() error = %v", err)
			}
			break
		}
		pvt, err := ParseNavPVT(f.Payload)
		if err != nil {
			t.Fatalf("ParseNavPVT: %v", err)
		}
		got = append(got, pvt.Lat)
	}

	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("recovered frames = %v, want [1 3]", got)
	}
	if r.BadFrames() != 1 {
		t.Errorf("BadFrames() = %d, want 1", r.BadFrames())
	}
}

func TestReaderRejectsImplausibleLength(t *testing.T) {
	// Sync plus an envelope claiming a 0xFFFF-byte payload, then a valid
	// frame. The bogus length must not swallow the rest of the stream.
	bogus := []byte{Sync1, Sync2, ClassNAV, IDNavPVT, 0xFF, 0xFF}
	valid := EncodeFrame(ClassACK, IDAck, []byte{ClassCFG, IDCfgPrt})

	r := NewFrameReader(&byteTransport{data: append(bogus, valid...)})

	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Class != ClassACK || f.ID != IDAck {
		t.Errorf("frame = 0x%02X/0x%02X, want ack", f.Class, f.ID)
	}
}

func TestReaderScanBudget(t *testing.T) {
	// An SPI bus with a dead receiver clocks out endless 0xFF.
	idle := bytes.Repeat([]byte{0xFF}, 256)
	r := &FrameReader{tr: &byteTransport{data: idle}, scanLimit: 128}

	_, err := r.Next()
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Next() = %v, want ErrTimeout once the scan budget is spent", err)
	}
}

func TestReaderTruncatedPayloadSurfacesError(t *testing.T) {
	frame := EncodeFrame(ClassNAV, IDNavPVT, navPVTPayload(7, 7))
	r := NewFrameReader(&byteTransport{data: frame[:len(frame)-10]})

	if _, err := r.Next(); !errors.Is(err, ErrTimeout) {
		t.Errorf("Next() on truncated stream = %v, want ErrTimeout", err)
	}
}
