package rtcm2

import (
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

var stationCoord = bitfield.Fixed{Name: "ecef", Bits: 32, Signed: true, Scale: 0.01}

// ReferenceStation is message type 3, the station position at 1 cm.
type ReferenceStation struct {
	Header   Header   `json:"header"`
	ECEF     geo.ECEF `json:"ecef"`
	Position geo.LLA  `json:"position"`
}

func (m *ReferenceStation) Protocol() gnss.Protocol { return gnss.ProtocolRTCM2 }
func (m *ReferenceStation) Key() string             { return "3" }

func (m *ReferenceStation) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	h, err := readHeader(r, 3)
	if err != nil {
		return err
	}
	m.Header = h
	x := r.Fixed(stationCoord)
	y := r.Fixed(stationCoord)
	z := r.Fixed(stationCoord)
	if err := finishBody(r, h, body, 24); err != nil {
		return err
	}
	m.ECEF = geo.ECEF{X: *x, Y: *y, Z: *z}
	m.Position = m.ECEF.ToLLA()
	return nil
}

func (m *ReferenceStation) Encode() ([]byte, error) {
	w, err := newBody(m.Header, 3, 96)
	if err != nil {
		return nil, err
	}
	w.PutFixedValue(stationCoord, m.ECEF.X)
	w.PutFixedValue(stationCoord, m.ECEF.Y)
	w.PutFixedValue(stationCoord, m.ECEF.Z)
	return closeBody(w)
}
