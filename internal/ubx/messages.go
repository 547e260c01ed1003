package ubx

import "encoding/binary"

// Message is a decoded UBX payload. The concrete types are *NavPVT,
// *RateConfig, *MsgConfig, *Ack, *Nack, and *Unrecognized; which one a
// frame decodes to is selected solely by its (class, id) pair.
type Message interface {
	msg()
}

// Receiver port indices used in CFG-MSG rate arrays.
const (
	PortI2C   = 0
	PortUART1 = 1
	PortUART2 = 2
	PortUSB   = 3
	PortSPI   = 4
)

// RateConfig is a decoded CFG-RATE payload.
type RateConfig struct {
	MeasRate uint16 // measurement interval, ms
	NavRate  uint16 // solutions once every MeasRate*NavRate ms
	TimeRef  uint16 // 0 = UTC, 1 = GPS time
}

// MsgConfig is a decoded CFG-MSG payload: the message being configured and
// its per-port output rates.
type MsgConfig struct {
	MsgClass byte
	MsgID    byte
	Rates    [6]byte
}

// EnabledOn reports whether the configured message is output on the given
// receiver port.
func (m *MsgConfig) EnabledOn(port int) bool {
	if port < 0 || port >= len(m.Rates) {
		return false
	}
	return m.Rates[port] != 0
}

// Ack is a decoded ACK-ACK, echoing the class and id of the acknowledged
// command.
type Ack struct {
	EchoClass byte
	EchoID    byte
}

// Nack is a decoded ACK-NAK, echoing the class and id of the rejected
// command.
type Nack struct {
	EchoClass byte
	EchoID    byte
}

// Unrecognized stands in for any (class, id) pair the codec does not decode.
// It is not an error; callers drop it.
type Unrecognized struct {
	Class byte
	ID    byte
}

func (*NavPVT) msg()       {}
func (*RateConfig) msg()   {}
func (*MsgConfig) msg()    {}
func (*Ack) msg()          {}
func (*Nack) msg()         {}
func (*Unrecognized) msg() {}

// Decode interprets a validated frame's payload by its (class, id) pair.
// Decoding never fails: payloads too short for their advertised type, like
// unknown pairs, come back as *Unrecognized. The caller is expected to have
// verified the frame checksum already.
func Decode(class, id byte, payload []byte) Message {
	switch {
	case class == ClassNAV && id == IDNavPVT:
		pvt, err := ParseNavPVT(payload)
		if err != nil {
			return &Unrecognized{Class: class, ID: id}
		}
		return pvt

	case class == ClassCFG && id == IDCfgRate:
		if len(payload) < 6 {
			return &Unrecognized{Class: class, ID: id}
		}
		return &RateConfig{
			MeasRate: binary.LittleEndian.Uint16(payload[0:2]),
			NavRate:  binary.LittleEndian.Uint16(payload[2:4]),
			TimeRef:  binary.LittleEndian.Uint16(payload[4:6]),
		}

	case class == ClassCFG && id == IDCfgMsg:
		if len(payload) < 8 {
			return &Unrecognized{Class: class, ID: id}
		}
		m := &MsgConfig{MsgClass: payload[0], MsgID: payload[1]}
		copy(m.Rates[:], payload[2:8])
		return m

	case class == ClassACK && id == IDAck:
		if len(payload) < 2 {
			return &Unrecognized{Class: class, ID: id}
		}
		return &Ack{EchoClass: payload[0], EchoID: payload[1]}

	case class == ClassACK && id == IDNack:
		if len(payload) < 2 {
			return &Unrecognized{Class: class, ID: id}
		}
		return &Nack{EchoClass: payload[0], EchoID: payload[1]}
	}
	return &Unrecognized{Class: class, ID: id}
}
