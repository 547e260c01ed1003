package ubx

import (
	"encoding/binary"
	"fmt"
)

// navPVTLen is the fixed NAV-PVT payload length on the M8 series.
const navPVTLen = 92

// NavPVT is a decoded NAV-PVT navigation solution. Field units follow the
// receiver's wire format: positions in 1e-7 degrees, heights in mm,
// velocities in mm/s, headings in 1e-5 degrees, DOP in 0.01 units.
// Flag words stay as plain bytes; use the accessor methods rather than
// assuming any packed layout.
type NavPVT struct {
	ITOW    uint32 // GPS time of week of the navigation epoch, ms
	Year    uint16 // UTC
	Month   uint8
	Day     uint8
	Hour    uint8
	Min     uint8
	Sec     uint8
	Valid   byte   // validity flags, see ValidDate etc
	TAcc    uint32 // time accuracy estimate, ns
	Nano    int32  // fraction of second, ns
	FixType byte
	Flags   byte // fix status flags, see GnssFixOK etc
	Flags2  byte // confirmation flags
	NumSV   uint8
	Lon     int32 // 1e-7 deg
	Lat     int32 // 1e-7 deg
	Height  int32 // above ellipsoid, mm
	HMSL    int32 // above mean sea level, mm
	HAcc    uint32
	VAcc    uint32
	VelN    int32 // mm/s
	VelE    int32
	VelD    int32
	GSpeed  int32 // 2-D ground speed, mm/s
	HeadMot int32 // heading of motion, 1e-5 deg
	SAcc    uint32
	HeadAcc uint32
	PDOP    uint16 // 0.01 units
	Flags3  byte
	HeadVeh int32  // heading of vehicle, 1e-5 deg
	MagDec  int16  // magnetic declination, 1e-2 deg
	MagAcc  uint16 // 1e-2 deg
}

// Fix types reported in NavPVT.FixType.
const (
	FixNone          = 0
	FixDeadReckoning = 1
	Fix2D            = 2
	Fix3D            = 3
	FixGNSSDR        = 4 // GNSS + dead reckoning combined
	FixTimeOnly      = 5
)

// Bit masks for the valid, flags, flags2, and flags3 words.
const (
	validDate     = 1 << 0
	validTime     = 1 << 1
	fullyResolved = 1 << 2
	validMag      = 1 << 3

	flagGnssFixOK    = 1 << 0
	flagDiffSoln     = 1 << 1
	flagPSMShift     = 2 // bits 2..4
	flagPSMMask      = 0x07
	flagHeadVehValid = 1 << 5
	flagCarrShift    = 6 // bits 6..7
	flagCarrMask     = 0x03

	flag2ConfirmedAvai = 1 << 5
	flag2ConfirmedDate = 1 << 6
	flag2ConfirmedTime = 1 << 7

	flag3InvalidLLH = 1 << 0
)

func (p *NavPVT) ValidDate() bool     { return p.Valid&validDate != 0 }
func (p *NavPVT) ValidTime() bool     { return p.Valid&validTime != 0 }
func (p *NavPVT) FullyResolved() bool { return p.Valid&fullyResolved != 0 }
func (p *NavPVT) ValidMag() bool      { return p.Valid&validMag != 0 }

func (p *NavPVT) GnssFixOK() bool    { return p.Flags&flagGnssFixOK != 0 }
func (p *NavPVT) DiffSoln() bool     { return p.Flags&flagDiffSoln != 0 }
func (p *NavPVT) PSMState() byte     { return (p.Flags >> flagPSMShift) & flagPSMMask }
func (p *NavPVT) HeadVehValid() bool { return p.Flags&flagHeadVehValid != 0 }
func (p *NavPVT) CarrSoln() byte     { return (p.Flags >> flagCarrShift) & flagCarrMask }

func (p *NavPVT) ConfirmedAvai() bool { return p.Flags2&flag2ConfirmedAvai != 0 }
func (p *NavPVT) ConfirmedDate() bool { return p.Flags2&flag2ConfirmedDate != 0 }
func (p *NavPVT) ConfirmedTime() bool { return p.Flags2&flag2ConfirmedTime != 0 }

func (p *NavPVT) InvalidLLH() bool { return p.Flags3&flag3InvalidLLH != 0 }

// Latitude returns the latitude in decimal degrees.
func (p *NavPVT) Latitude() float64 { return float64(p.Lat) * 1e-7 }

// Longitude returns the longitude in decimal degrees.
func (p *NavPVT) Longitude() float64 { return float64(p.Lon) * 1e-7 }

// AltitudeMSL returns the height above mean sea level in meters.
func (p *NavPVT) AltitudeMSL() float64 { return float64(p.HMSL) / 1000.0 }

// GroundSpeed returns the 2-D ground speed in m/s.
func (p *NavPVT) GroundSpeed() float64 { return float64(p.GSpeed) / 1000.0 }

// Heading returns the heading of motion in degrees.
func (p *NavPVT) Heading() float64 { return float64(p.HeadMot) * 1e-5 }

// FixTypeString names the fix type for logs and displays.
func (p *NavPVT) FixTypeString() string {
	switch p.FixType {
	case FixNone:
		return "none"
	case FixDeadReckoning:
		return "dead-reckoning"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	case FixGNSSDR:
		return "3D+DR"
	case FixTimeOnly:
		return "time-only"
	}
	return fmt.Sprintf("unknown(%d)", p.FixType)
}

// ParseNavPVT decodes a NAV-PVT payload. Payloads shorter than the fixed
// 92-byte layout are rejected; longer ones (future firmware) have their
// tail ignored.
func ParseNavPVT(p []byte) (*NavPVT, error) {
	if len(p) < navPVTLen {
		return nil, fmt.Errorf("nav-pvt payload too short: %d bytes", len(p))
	}
	le := binary.LittleEndian
	return &NavPVT{
		ITOW:    le.Uint32(p[0:4]),
		Year:    le.Uint16(p[4:6]),
		Month:   p[6],
		Day:     p[7],
		Hour:    p[8],
		Min:     p[9],
		Sec:     p[10],
		Valid:   p[11],
		TAcc:    le.Uint32(p[12:16]),
		Nano:    int32(le.Uint32(p[16:20])),
		FixType: p[20],
		Flags:   p[21],
		Flags2:  p[22],
		NumSV:   p[23],
		Lon:     int32(le.Uint32(p[24:28])),
		Lat:     int32(le.Uint32(p[28:32])),
		Height:  int32(le.Uint32(p[32:36])),
		HMSL:    int32(le.Uint32(p[36:40])),
		HAcc:    le.Uint32(p[40:44]),
		VAcc:    le.Uint32(p[44:48]),
		VelN:    int32(le.Uint32(p[48:52])),
		VelE:    int32(le.Uint32(p[52:56])),
		VelD:    int32(le.Uint32(p[56:60])),
		GSpeed:  int32(le.Uint32(p[60:64])),
		HeadMot: int32(le.Uint32(p[64:68])),
		SAcc:    le.Uint32(p[68:72]),
		HeadAcc: le.Uint32(p[72:76]),
		PDOP:    le.Uint16(p[76:78]),
		Flags3:  p[78],
		HeadVeh: int32(le.Uint32(p[84:88])),
		MagDec:  int16(le.Uint16(p[88:90])),
		MagAcc:  le.Uint16(p[90:92]),
	}, nil
}
