package gps

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// pvtFrame builds a complete NAV-PVT wire frame carrying the given
// position and a 3D fix.
func pvtFrame(lat, lon int32) []byte {
	p := make([]byte, 92)
	le := binary.LittleEndian
	le.PutUint16(p[4:6], 2025)
	p[6], p[7] = 5, 4
	p[20] = ubx.Fix3D
	p[21] = 0x01 // gnssFixOK
	p[23] = 9
	le.PutUint32(p[24:28], uint32(lon))
	le.PutUint32(p[28:32], uint32(lat))
	return ubx.EncodeFrame(ubx.ClassNAV, ubx.IDNavPVT, p)
}

// streamTransport replays a byte stream; empty means timeout, like the
// fakes in the ubx package tests.
type streamTransport struct {
	data []byte
	pos  int
}

func (t *streamTransport) ReadByte() (byte, error) {
	if t.pos >= len(t.data) {
		return 0, ubx.ErrTimeout
	}
	b := t.data[t.pos]
	t.pos++
	return b, nil
}

func (t *streamTransport) ReadFull(p []byte) error {
	if t.pos+len(p) > len(t.data) {
		t.pos = len(t.data)
		return ubx.ErrTimeout
	}
	copy(p, t.data[t.pos:t.pos+len(p)])
	t.pos += len(p)
	return nil
}

func (t *streamTransport) Write(p []byte) error { return nil }

func TestProducerPublishesAndNotifies(t *testing.T) {
	var stream []byte
	stream = append(stream, pvtFrame(100000000, 200000000)...)
	// A stray ack in the middle must be dropped without skipping fixes.
	stream = append(stream, ubx.EncodeFrame(ubx.ClassACK, ubx.IDAck, []byte{0x06, 0x01})...)
	stream = append(stream, pvtFrame(300000000, 400000000)...)

	ex := NewExchange()
	var fixes []Fix
	err := RunProducer(context.Background(), &streamTransport{data: stream}, ex, 0, func(f Fix) {
		fixes = append(fixes, f)
	})

	// The stream runs dry: a silent receiver is a reported error, not a
	// stall.
	if !errors.Is(err, ubx.ErrTimeout) {
		t.Fatalf("RunProducer() error = %v, want ErrTimeout", err)
	}

	if len(fixes) != 2 {
		t.Fatalf("got %d fixes, want 2", len(fixes))
	}
	if math.Abs(fixes[0].Latitude-10.0) > 1e-6 || math.Abs(fixes[1].Latitude-30.0) > 1e-6 {
		t.Errorf("fix latitudes = %v/%v, want 10/30", fixes[0].Latitude, fixes[1].Latitude)
	}

	rec, ok := ex.Snapshot()
	if !ok || rec.Lat != 300000000 {
		t.Errorf("final snapshot lat = %d (ok=%t), want 300000000", rec.Lat, ok)
	}
}

func TestProducerCorruptFrameSkipsPublish(t *testing.T) {
	good := pvtFrame(100000000, 200000000)
	bad := pvtFrame(999999999, 999999999)
	bad[len(bad)-2] ^= 0xFF

	ex := NewExchange()
	var count int
	err := RunProducer(context.Background(), &streamTransport{data: append(good, bad...)}, ex, 0, func(Fix) {
		count++
	})
	if !errors.Is(err, ubx.ErrTimeout) {
		t.Fatalf("RunProducer() error = %v, want ErrTimeout", err)
	}
	if count != 1 {
		t.Errorf("got %d fixes, want 1", count)
	}
	rec, _ := ex.Snapshot()
	if rec.Lat != 100000000 {
		t.Errorf("snapshot lat = %d, want the last good fix", rec.Lat)
	}
}

// loopTransport serves the same frame forever.
type loopTransport struct {
	frame []byte
	pos   int
}

func (t *loopTransport) ReadByte() (byte, error) {
	b := t.frame[t.pos%len(t.frame)]
	t.pos++
	return b, nil
}

func (t *loopTransport) ReadFull(p []byte) error {
	for i := range p {
		b, _ := t.ReadByte()
		p[i] = b
	}
	return nil
}

func (t *loopTransport) Write(p []byte) error { return nil }

func TestProducerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &loopTransport{frame: pvtFrame(1, 2)}

	var count int
	err := RunProducer(ctx, tr, NewExchange(), 0, func(Fix) {
		count++
		cancel()
	})
	if err != nil {
		t.Fatalf("RunProducer() after cancel = %v, want nil", err)
	}
	if count != 1 {
		t.Errorf("produced %d fixes after cancel, want 1", count)
	}
}

func TestProducerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunProducer(ctx, &streamTransport{}, NewExchange(), 0, nil)
	if err != nil {
		t.Errorf("RunProducer() = %v, want nil", err)
	}
}
