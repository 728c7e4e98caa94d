package nmea

import (
	"fmt"
	"time"

	"gnssrx/internal/gnss"
)

// GGA is the fix data sentence. Nil fields were empty on the wire.
type GGA struct {
	Talker      string         `json:"talker"`
	Time        *time.Duration `json:"time,omitempty"`
	Lat         *float64       `json:"lat,omitempty"`
	Lon         *float64       `json:"lon,omitempty"`
	Quality     *int           `json:"quality,omitempty"`
	NumSV       *int           `json:"num_sv,omitempty"`
	HDOP        *float64       `json:"hdop,omitempty"`
	AltitudeM   *float64       `json:"altitude_m,omitempty"`
	GeoidSepM   *float64       `json:"geoid_sep_m,omitempty"`
	DiffAge     *float64       `json:"diff_age,omitempty"`
	DiffStation *int           `json:"diff_station,omitempty"`
}

// GGA fix quality values.
const (
	QualityInvalid  = 0
	QualityGPS      = 1
	QualityDGPS     = 2
	QualityPPS      = 3
	QualityRTKFixed = 4
	QualityRTKFloat = 5
	QualityDR       = 6
	QualityManual   = 7
	QualitySim      = 8
)

func (m *GGA) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *GGA) Key() string             { return TypeGGA }

func (m *GGA) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeGGA)
	if err != nil {
		return err
	}
	*m = GGA{
		Talker:      talker,
		Time:        f.timeOfDay(1),
		Lat:         f.latlon(2),
		Lon:         f.latlon(4),
		Quality:     f.int(6),
		NumSV:       f.int(7),
		HDOP:        f.float(8),
		AltitudeM:   f.float(9),
		GeoidSepM:   f.float(11),
		DiffAge:     f.float(13),
		DiffStation: f.int(14),
	}
	return f.err
}

func (m *GGA) Encode() ([]byte, error) {
	lat, ns := fmtLatLon(m.Lat, 2, "N", "S")
	lon, ew := fmtLatLon(m.Lon, 3, "E", "W")
	return join(m.Talker, TypeGGA,
		fmtTimeOfDay(m.Time), lat, ns, lon, ew,
		fmtInt(m.Quality, 1), fmtInt(m.NumSV, 2), fmtFloat(m.HDOP),
		fmtFloat(m.AltitudeM), unit(m.AltitudeM, "M"),
		fmtFloat(m.GeoidSepM), unit(m.GeoidSepM, "M"),
		fmtFloat(m.DiffAge), fmtInt(m.DiffStation, 4))
}

func unit(v *float64, u string) string {
	if v == nil {
		return ""
	}
	return u
}

// RMC is the recommended minimum sentence.
type RMC struct {
	Talker     string         `json:"talker"`
	Time       *time.Duration `json:"time,omitempty"`
	Status     string         `json:"status"`
	Lat        *float64       `json:"lat,omitempty"`
	Lon        *float64       `json:"lon,omitempty"`
	SpeedKnots *float64       `json:"speed_knots,omitempty"`
	CourseDeg  *float64       `json:"course_deg,omitempty"`
	Date       *time.Time     `json:"date,omitempty"`
	MagVarDeg  *float64       `json:"mag_var_deg,omitempty"` // west is negative
	Mode       string         `json:"mode,omitempty"`
}

func (m *RMC) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *RMC) Key() string             { return TypeRMC }

// Valid reports the 'A' status.
func (m *RMC) Valid() bool { return m.Status == "A" }

// UTC combines the date and time fields.
func (m *RMC) UTC() (time.Time, bool) {
	if m.Date == nil || m.Time == nil {
		return time.Time{}, false
	}
	return m.Date.Add(*m.Time), true
}

func (m *RMC) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeRMC)
	if err != nil {
		return err
	}
	*m = RMC{
		Talker:     talker,
		Time:       f.timeOfDay(1),
		Status:     f.str(2),
		Lat:        f.latlon(3),
		Lon:        f.latlon(5),
		SpeedKnots: f.float(7),
		CourseDeg:  f.float(8),
		Date:       f.date(9),
		MagVarDeg:  f.hemi(10, "W"),
		Mode:       f.str(12),
	}
	return f.err
}

func (m *RMC) Encode() ([]byte, error) {
	lat, ns := fmtLatLon(m.Lat, 2, "N", "S")
	lon, ew := fmtLatLon(m.Lon, 3, "E", "W")
	mv, mvDir := fmtHemi(m.MagVarDeg, "E", "W")
	fields := []string{
		fmtTimeOfDay(m.Time), m.Status, lat, ns, lon, ew,
		fmtFloat(m.SpeedKnots), fmtFloat(m.CourseDeg), fmtDate(m.Date), mv, mvDir,
	}
	if m.Mode != "" {
		fields = append(fields, m.Mode)
	}
	return join(m.Talker, TypeRMC, fields...)
}

// GLL is the geographic position sentence.
type GLL struct {
	Talker string         `json:"talker"`
	Lat    *float64       `json:"lat,omitempty"`
	Lon    *float64       `json:"lon,omitempty"`
	Time   *time.Duration `json:"time,omitempty"`
	Status string         `json:"status"`
	Mode   string         `json:"mode,omitempty"`
}

func (m *GLL) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *GLL) Key() string             { return TypeGLL }

func (m *GLL) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeGLL)
	if err != nil {
		return err
	}
	*m = GLL{
		Talker: talker,
		Lat:    f.latlon(1),
		Lon:    f.latlon(3),
		Time:   f.timeOfDay(5),
		Status: f.str(6),
		Mode:   f.str(7),
	}
	return f.err
}

func (m *GLL) Encode() ([]byte, error) {
	lat, ns := fmtLatLon(m.Lat, 2, "N", "S")
	lon, ew := fmtLatLon(m.Lon, 3, "E", "W")
	fields := []string{lat, ns, lon, ew, fmtTimeOfDay(m.Time), m.Status}
	if m.Mode != "" {
		fields = append(fields, m.Mode)
	}
	return join(m.Talker, TypeGLL, fields...)
}

// VTG is course and speed over ground.
type VTG struct {
	Talker        string   `json:"talker"`
	CourseTrueDeg *float64 `json:"course_true_deg,omitempty"`
	CourseMagDeg  *float64 `json:"course_mag_deg,omitempty"`
	SpeedKnots    *float64 `json:"speed_knots,omitempty"`
	SpeedKmh      *float64 `json:"speed_kmh,omitempty"`
	Mode          string   `json:"mode,omitempty"`
}

func (m *VTG) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *VTG) Key() string             { return TypeVTG }

func (m *VTG) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeVTG)
	if err != nil {
		return err
	}
	if u := f.str(2); u != "" && u != "T" {
		return fmt.Errorf("nmea: VTG unit %q", u)
	}
	*m = VTG{
		Talker:        talker,
		CourseTrueDeg: f.float(1),
		CourseMagDeg:  f.float(3),
		SpeedKnots:    f.float(5),
		SpeedKmh:      f.float(7),
		Mode:          f.str(9),
	}
	return f.err
}

func (m *VTG) Encode() ([]byte, error) {
	fields := []string{
		fmtFloat(m.CourseTrueDeg), "T", fmtFloat(m.CourseMagDeg), "M",
		fmtFloat(m.SpeedKnots), "N", fmtFloat(m.SpeedKmh), "K",
	}
	if m.Mode != "" {
		fields = append(fields, m.Mode)
	}
	return join(m.Talker, TypeVTG, fields...)
}
