package nmea

import (
	"time"

	"gnssrx/internal/gnss"
)

// GST reports pseudorange error statistics, in metres.
type GST struct {
	Talker         string         `json:"talker"`
	Time           *time.Duration `json:"time,omitempty"`
	RMS            *float64       `json:"rms,omitempty"`
	SemiMajorM     *float64       `json:"semi_major_m,omitempty"`
	SemiMinorM     *float64       `json:"semi_minor_m,omitempty"`
	OrientationDeg *float64       `json:"orientation_deg,omitempty"`
	LatSigmaM      *float64       `json:"lat_sigma_m,omitempty"`
	LonSigmaM      *float64       `json:"lon_sigma_m,omitempty"`
	AltSigmaM      *float64       `json:"alt_sigma_m,omitempty"`
}

func (m *GST) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *GST) Key() string             { return TypeGST }

func (m *GST) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeGST)
	if err != nil {
		return err
	}
	*m = GST{
		Talker:         talker,
		Time:           f.timeOfDay(1),
		RMS:            f.float(2),
		SemiMajorM:     f.float(3),
		SemiMinorM:     f.float(4),
		OrientationDeg: f.float(5),
		LatSigmaM:      f.float(6),
		LonSigmaM:      f.float(7),
		AltSigmaM:      f.float(8),
	}
	return f.err
}

func (m *GST) Encode() ([]byte, error) {
	return join(m.Talker, TypeGST,
		fmtTimeOfDay(m.Time), fmtFloat(m.RMS), fmtFloat(m.SemiMajorM), fmtFloat(m.SemiMinorM),
		fmtFloat(m.OrientationDeg), fmtFloat(m.LatSigmaM), fmtFloat(m.LonSigmaM), fmtFloat(m.AltSigmaM))
}

// ZDA carries UTC date and time with the local zone offset.
type ZDA struct {
	Talker      string         `json:"talker"`
	Time        *time.Duration `json:"time,omitempty"`
	Day         *int           `json:"day,omitempty"`
	Month       *int           `json:"month,omitempty"`
	Year        *int           `json:"year,omitempty"`
	ZoneHours   *int           `json:"zone_hours,omitempty"`
	ZoneMinutes *int           `json:"zone_minutes,omitempty"`
}

func (m *ZDA) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *ZDA) Key() string             { return TypeZDA }

// UTC returns the instant when every date and time field is present.
func (m *ZDA) UTC() (time.Time, bool) {
	if m.Time == nil || m.Day == nil || m.Month == nil || m.Year == nil {
		return time.Time{}, false
	}
	d := time.Date(*m.Year, time.Month(*m.Month), *m.Day, 0, 0, 0, 0, time.UTC)
	return d.Add(*m.Time), true
}

func (m *ZDA) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeZDA)
	if err != nil {
		return err
	}
	*m = ZDA{
		Talker:      talker,
		Time:        f.timeOfDay(1),
		Day:         f.int(2),
		Month:       f.int(3),
		Year:        f.int(4),
		ZoneHours:   f.int(5),
		ZoneMinutes: f.int(6),
	}
	return f.err
}

func (m *ZDA) Encode() ([]byte, error) {
	return join(m.Talker, TypeZDA,
		fmtTimeOfDay(m.Time), fmtInt(m.Day, 2), fmtInt(m.Month, 2), fmtInt(m.Year, 4),
		fmtInt(m.ZoneHours, 2), fmtInt(m.ZoneMinutes, 2))
}
