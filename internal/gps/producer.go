package gps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// RunProducer is the steady-state decode loop: it blocks on the transport,
// reads one checksum-valid frame per cycle, publishes decoded NAV-PVT
// records to the exchange, notifies onFix with a snapshot copy, and sleeps
// interval before the next read. Cancellation is observed once per
// iteration, so the loop exits within one cycle of ctx being cancelled and
// returns nil. Transport failures and a silent receiver terminate the loop
// with an error instead of spinning; the exchange keeps whatever was last
// published.
//
// The startup sequence (ubx.Configure) must have completed before this is
// called; RunProducer assumes it is the transport's only user.
func RunProducer(ctx context.Context, tr ubx.Transport, ex *Exchange, interval time.Duration, onFix func(Fix)) error {
	r := ubx.NewFrameReader(tr)

	for {
		if ctx.Err() != nil {
			return nil
		}

		f, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ubx.ErrTimeout) {
				return fmt.Errorf("gps: receiver went silent: %w", err)
			}
			return fmt.Errorf("gps: transport failed: %w", err)
		}

		pvt, ok := ubx.Decode(f.Class, f.ID, f.Payload).(*ubx.NavPVT)
		if !ok {
			// Late acks, poll responses, unknown traffic: drop and keep the
			// previous snapshot current.
			continue
		}

		ex.Publish(pvt)
		if onFix != nil {
			onFix(FromNavPVT(pvt))
		}

		if interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
	}
}
