package rtcm2

import (
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/gnss"
	"gnssrx/internal/gnsstime"
)

// GPSTimeOfWeek is message type 14.
type GPSTimeOfWeek struct {
	Header      Header `json:"header"`
	Week        int    `json:"week"`
	HourOfWeek  uint8  `json:"hour_of_week"`
	LeapSeconds uint8  `json:"leap_seconds"`
}

func (m *GPSTimeOfWeek) Protocol() gnss.Protocol { return gnss.ProtocolRTCM2 }
func (m *GPSTimeOfWeek) Key() string             { return "14" }

// Time combines the hour of week with the header z-count, in GPS time.
func (m *GPSTimeOfWeek) Time() time.Time {
	return gnsstime.GPSTime(m.Week, float64(m.HourOfWeek)*3600+m.Header.Seconds())
}

func (m *GPSTimeOfWeek) Decode(body []byte, now time.Time) error {
	r := bitfield.NewReader(body, 0)
	h, err := readHeader(r, 14)
	if err != nil {
		return err
	}
	m.Header = h
	week := int(r.Uint(10))
	m.HourOfWeek = uint8(r.Uint(8))
	m.LeapSeconds = uint8(r.Uint(6))
	if err := finishBody(r, h, body, 24); err != nil {
		return err
	}
	m.Week = gnsstime.ResolveWeek(week, now)
	return nil
}

func (m *GPSTimeOfWeek) Encode() ([]byte, error) {
	w, err := newBody(m.Header, 14, 24)
	if err != nil {
		return nil, err
	}
	w.PutUint(10, uint32(m.Week%1024))
	w.PutUint(8, uint32(m.HourOfWeek))
	w.PutUint(6, uint32(m.LeapSeconds))
	return closeBody(w)
}
