package gps

import (
	"fmt"

	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// Fix represents a single GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "2025-12-06"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	AltitudeM  float64 `json:"alt_m"`       // above mean sea level
	SpeedMS    float64 `json:"speed_ms"`    // 2-D ground speed
	CourseDeg  float64 `json:"course_deg"`  // heading of motion
	Satellites int     `json:"satellites"`  // used in the solution
	FixType    string  `json:"fix_type"`    // "none", "2D", "3D", ...
	FixOK      bool    `json:"fix_ok"`      // within DOP and accuracy masks
	PDOP       float64 `json:"pdop"`        //
	HAccM      float64 `json:"h_acc_m"`     // horizontal accuracy estimate
	VAccM      float64 `json:"v_acc_m"`     // vertical accuracy estimate
}

// FromNavPVT projects a decoded NAV-PVT record into a Fix.
func FromNavPVT(p *ubx.NavPVT) Fix {
	return Fix{
		Time:       fmt.Sprintf("%02d:%02d:%02d", p.Hour, p.Min, p.Sec),
		Date:       fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day),
		Latitude:   p.Latitude(),
		Longitude:  p.Longitude(),
		AltitudeM:  p.AltitudeMSL(),
		SpeedMS:    p.GroundSpeed(),
		CourseDeg:  p.Heading(),
		Satellites: int(p.NumSV),
		FixType:    p.FixTypeString(),
		FixOK:      p.GnssFixOK() && !p.InvalidLLH(),
		PDOP:       float64(p.PDOP) / 100.0,
		HAccM:      float64(p.HAcc) / 1000.0,
		VAccM:      float64(p.VAcc) / 1000.0,
	}
}

// String renders the fix for console output.
func (f Fix) String() string {
	return fmt.Sprintf("time=%s date=%s lat=%.7f lon=%.7f alt=%.1fm speed=%.1fm/s course=%.1f° sats=%d fix=%s ok=%t",
		f.Time, f.Date, f.Latitude, f.Longitude, f.AltitudeM, f.SpeedMS, f.CourseDeg, f.Satellites, f.FixType, f.FixOK)
}
