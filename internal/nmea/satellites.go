package nmea

import (
	"fmt"
	"time"

	"gnssrx/internal/gnss"
)

// gsaSlots is the fixed number of satellite id fields in GSA.
const gsaSlots = 12

// GSA lists the satellites used in the fix and the dilution of precision.
type GSA struct {
	Talker    string   `json:"talker"`
	Selection string   `json:"selection"` // M manual, A automatic
	FixType   *int     `json:"fix_type,omitempty"`
	SVs       []int    `json:"svs,omitempty"`
	PDOP      *float64 `json:"pdop,omitempty"`
	HDOP      *float64 `json:"hdop,omitempty"`
	VDOP      *float64 `json:"vdop,omitempty"`
	SystemID  *int     `json:"system_id,omitempty"`
}

func (m *GSA) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *GSA) Key() string             { return TypeGSA }

func (m *GSA) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeGSA)
	if err != nil {
		return err
	}
	if f.Len() < 3+gsaSlots+3 {
		return fmt.Errorf("nmea: GSA has %d fields", f.Len()-1)
	}
	*m = GSA{
		Talker:    talker,
		Selection: f.str(1),
		FixType:   f.int(2),
		PDOP:      f.float(3 + gsaSlots),
		HDOP:      f.float(4 + gsaSlots),
		VDOP:      f.float(5 + gsaSlots),
		SystemID:  f.int(6 + gsaSlots),
	}
	for i := 0; i < gsaSlots; i++ {
		if sv := f.int(3 + i); sv != nil {
			m.SVs = append(m.SVs, *sv)
		}
	}
	return f.err
}

func (m *GSA) Encode() ([]byte, error) {
	if len(m.SVs) > gsaSlots {
		return nil, fmt.Errorf("nmea: GSA holds %d satellites, max %d", len(m.SVs), gsaSlots)
	}
	fields := []string{m.Selection, fmtInt(m.FixType, 1)}
	for i := 0; i < gsaSlots; i++ {
		if i < len(m.SVs) {
			fields = append(fields, fmtInt(&m.SVs[i], 2))
		} else {
			fields = append(fields, "")
		}
	}
	fields = append(fields, fmtFloat(m.PDOP), fmtFloat(m.HDOP), fmtFloat(m.VDOP))
	if m.SystemID != nil {
		fields = append(fields, fmtInt(m.SystemID, 1))
	}
	return join(m.Talker, TypeGSA, fields...)
}

// SatInView is one satellite block of a GSV sentence.
type SatInView struct {
	PRN       *int `json:"prn,omitempty"`
	Elevation *int `json:"elevation,omitempty"`
	Azimuth   *int `json:"azimuth,omitempty"`
	SNR       *int `json:"snr,omitempty"`
}

// gsvPerSentence is the number of satellite blocks one GSV can carry.
const gsvPerSentence = 4

// GSV is one sentence of a satellites-in-view group.
type GSV struct {
	Talker   string      `json:"talker"`
	Total    int         `json:"total"`
	Number   int         `json:"number"`
	InView   *int        `json:"in_view,omitempty"`
	Sats     []SatInView `json:"sats,omitempty"`
	SignalID *int        `json:"signal_id,omitempty"`
}

func (m *GSV) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (m *GSV) Key() string             { return TypeGSV }

func (m *GSV) Decode(body []byte, _ time.Time) error {
	talker, f, err := split(body, TypeGSV)
	if err != nil {
		return err
	}
	total, number := f.int(1), f.int(2)
	if total == nil || number == nil {
		return fmt.Errorf("nmea: GSV without sentence count")
	}
	*m = GSV{Talker: talker, Total: *total, Number: *number, InView: f.int(3)}
	rest := f.Len() - 4
	if rest%4 == 1 {
		m.SignalID = f.int(f.Len() - 1)
		rest--
	}
	if rest%4 != 0 || rest/4 > gsvPerSentence {
		return fmt.Errorf("nmea: GSV has %d satellite fields", rest)
	}
	for i := 0; i < rest/4; i++ {
		base := 4 + 4*i
		s := SatInView{PRN: f.int(base), Elevation: f.int(base + 1), Azimuth: f.int(base + 2), SNR: f.int(base + 3)}
		if s.PRN == nil && s.Elevation == nil && s.Azimuth == nil && s.SNR == nil {
			continue
		}
		m.Sats = append(m.Sats, s)
	}
	return f.err
}

func (m *GSV) Encode() ([]byte, error) {
	if len(m.Sats) > gsvPerSentence {
		return nil, fmt.Errorf("nmea: GSV holds %d satellites, max %d", len(m.Sats), gsvPerSentence)
	}
	fields := []string{fmt.Sprint(m.Total), fmt.Sprint(m.Number), fmtInt(m.InView, 2)}
	for _, s := range m.Sats {
		fields = append(fields, fmtInt(s.PRN, 2), fmtInt(s.Elevation, 2), fmtInt(s.Azimuth, 3), fmtInt(s.SNR, 2))
	}
	if m.SignalID != nil {
		fields = append(fields, fmtInt(m.SignalID, 1))
	}
	return join(m.Talker, TypeGSV, fields...)
}
