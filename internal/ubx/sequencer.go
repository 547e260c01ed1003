package ubx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Step identifies one stage of the startup configuration sequence.
type Step int

const (
	StepSetProtocol Step = iota
	StepSetRate
	StepEnableNavPVT
	StepPollRate
	StepPollNavPVT
)

func (s Step) String() string {
	switch s {
	case StepSetProtocol:
		return "set-protocol-ubx"
	case StepSetRate:
		return "set-rate"
	case StepEnableNavPVT:
		return "enable-nav-pvt"
	case StepPollRate:
		return "poll-rate"
	case StepPollNavPVT:
		return "poll-nav-pvt"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ConfigError is the fatal outcome of a configuration step whose retries
// were exhausted. Startup must abort on it; the receiver's state is
// unconfirmed.
type ConfigError struct {
	Step   Step
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gps configuration failed at %s: %s", e.Step, e.Reason)
}

var errNack = errors.New("nack received")

// RatePreset selects one of the two supported CFG-RATE configurations.
type RatePreset int

const (
	// Rate4x2: 4 measurements and 2 solutions per second.
	Rate4x2 RatePreset = iota
	// Rate2x1: 2 measurements and 1 solution per second.
	Rate2x1
)

// ConfigOptions tunes the startup sequencer. Zero values select the
// defaults: Rate4x2, a 1.5 s ack wait, one retry per step, SPI as the
// active port, no verification polls.
type ConfigOptions struct {
	Rate       RatePreset
	AckTimeout time.Duration
	Retries    int // additional sends after the first; <= 0 means 1
	Verify     bool
	ActivePort int // port index checked in the CFG-MSG read-back
}

// ConfigReport carries the read-back configuration from the verification
// polls, when requested.
type ConfigReport struct {
	Rate      *RateConfig
	NavPVTCfg *MsgConfig
}

// Configure drives the startup handshake: restrict the port to UBX, set
// the solution rate, enable NAV-PVT output, each confirmed by a matching
// ACK within a bounded wait and bounded retries. With opts.Verify it then
// polls the rate and message configuration back and logs mismatches as
// warnings. It must run before steady-state streaming; it owns the
// transport while it runs.
func Configure(ctx context.Context, tr Transport, opts ConfigOptions) (*ConfigReport, error) {
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = 1500 * time.Millisecond
	}
	if opts.Retries <= 0 {
		opts.Retries = 1
	}

	rateCmd := SetRate4x2()
	wantMeas := uint16(250)
	if opts.Rate == Rate2x1 {
		rateCmd = SetRate2x1()
		wantMeas = 500
	}

	r := NewFrameReader(tr)

	steps := []struct {
		step Step
		cmd  []byte
	}{
		{StepSetProtocol, SetProtocolUBX()},
		{StepSetRate, rateCmd},
		{StepEnableNavPVT, EnableNavPVT()},
	}
	for _, s := range steps {
		if err := sendConfirmed(ctx, tr, r, s.step, s.cmd, opts); err != nil {
			return nil, err
		}
		log.Printf("gps: %s confirmed", s.step)
	}

	report := &ConfigReport{}
	if !opts.Verify {
		return report, nil
	}

	rateMsg, err := pollReply(ctx, tr, r, StepPollRate, PollRate(), ClassCFG, IDCfgRate, opts)
	if err != nil {
		return nil, err
	}
	if rate, ok := rateMsg.(*RateConfig); ok {
		report.Rate = rate
		log.Printf("gps: rate read-back: meas=%dms nav=1/%d timeref=%d", rate.MeasRate, rate.NavRate, rate.TimeRef)
		if rate.MeasRate != wantMeas || rate.NavRate != 2 || rate.TimeRef != 0 {
			log.Printf("gps: WARNING: rate read-back differs from requested (want meas=%dms nav=1/2 timeref=0)", wantMeas)
		}
	}

	msgMsg, err := pollReply(ctx, tr, r, StepPollNavPVT, PollNavPVT(), ClassCFG, IDCfgMsg, opts)
	if err != nil {
		return nil, err
	}
	if mc, ok := msgMsg.(*MsgConfig); ok {
		report.NavPVTCfg = mc
		log.Printf("gps: nav-pvt output read-back: class=0x%02X id=0x%02X rates=%v", mc.MsgClass, mc.MsgID, mc.Rates)
		if !mc.EnabledOn(opts.ActivePort) {
			log.Printf("gps: WARNING: nav-pvt not enabled on port %d per read-back", opts.ActivePort)
		}
	}

	return report, nil
}

// sendConfirmed sends cmd and waits for an ACK echoing its class/id,
// retrying on NAK or timeout up to the retry limit.
func sendConfirmed(ctx context.Context, tr Transport, r *FrameReader, step Step, cmd []byte, opts ConfigOptions) error {
	class, id := cmd[2], cmd[3]
	var last error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			log.Printf("gps: %s unconfirmed (%v), retrying", step, last)
		}
		if err := tr.Write(cmd); err != nil {
			return &ConfigError{Step: step, Reason: fmt.Sprintf("write: %v", err)}
		}
		last = awaitAck(ctx, r, class, id, opts.AckTimeout)
		if last == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return &ConfigError{Step: step, Reason: last.Error()}
}

// awaitAck reads frames until an ACK or NAK echoing (class, id) arrives or
// the wait expires. Other traffic, including early NAV-PVT frames, is
// ignored.
func awaitAck(ctx context.Context, r *FrameReader, class, id byte, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := r.Next()
		if err != nil {
			if errors.Is(err, ErrTimeout) && time.Now().Before(deadline) {
				continue
			}
			return err
		}
		switch m := Decode(f.Class, f.ID, f.Payload).(type) {
		case *Ack:
			if m.EchoClass == class && m.EchoID == id {
				return nil
			}
		case *Nack:
			if m.EchoClass == class && m.EchoID == id {
				return errNack
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("ack wait: %w", ErrTimeout)
		}
	}
}

// pollReply sends a poll command and waits for the read-back frame with the
// given class/id, with the same retry discipline as the config steps.
func pollReply(ctx context.Context, tr Transport, r *FrameReader, step Step, cmd []byte, class, id byte, opts ConfigOptions) (Message, error) {
	var last error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			log.Printf("gps: %s got no reply (%v), retrying", step, last)
		}
		if err := tr.Write(cmd); err != nil {
			return nil, &ConfigError{Step: step, Reason: fmt.Sprintf("write: %v", err)}
		}
		deadline := time.Now().Add(opts.AckTimeout)
		for {
			if err := ctx.Err(); err != nil {
				return nil, &ConfigError{Step: step, Reason: err.Error()}
			}
			f, err := r.Next()
			if err != nil {
				if errors.Is(err, ErrTimeout) && time.Now().Before(deadline) {
					continue
				}
				last = err
				break
			}
			if f.Class == class && f.ID == id {
				return Decode(f.Class, f.ID, f.Payload), nil
			}
			if time.Now().After(deadline) {
				last = fmt.Errorf("reply wait: %w", ErrTimeout)
				break
			}
		}
	}
	return nil, &ConfigError{Step: step, Reason: last.Error()}
}
