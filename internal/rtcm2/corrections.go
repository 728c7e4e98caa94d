package rtcm2

import (
	"math"
	"strconv"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/gnss"
)

const correctionBits = 40

var (
	prcSmall = bitfield.Fixed{Name: "prc", Bits: 16, Signed: true, Scale: 0.02, HasNull: true, Null: -32768}
	prcLarge = bitfield.Fixed{Name: "prc", Bits: 16, Signed: true, Scale: 0.32, HasNull: true, Null: -32768}
	rrcSmall = bitfield.Fixed{Name: "rrc", Bits: 8, Signed: true, Scale: 0.002, HasNull: true, Null: -128}
	rrcLarge = bitfield.Fixed{Name: "rrc", Bits: 8, Signed: true, Scale: 0.032, HasNull: true, Null: -128}
)

// Correction is one satellite of a type 1 or type 9 message.
type Correction struct {
	SatID int `json:"sat_id"`
	// LargeScale selects the 0.32 m / 0.032 m/s resolution.
	LargeScale bool  `json:"large_scale"`
	UDRE       uint8 `json:"udre"`
	// PRC is the pseudorange correction in metres, RRC its rate in m/s.
	PRC *float64 `json:"prc_m,omitempty"`
	RRC *float64 `json:"rrc_mps,omitempty"`
	IOD uint8    `json:"iod"`
}

func (c Correction) needsLargeScale() bool {
	return c.LargeScale ||
		(c.PRC != nil && math.Abs(*c.PRC) > 32767*prcSmall.Scale) ||
		(c.RRC != nil && math.Abs(*c.RRC) > 127*rrcSmall.Scale)
}

// Corrections is message type 1 (full set) or type 9 (partial set).
type Corrections struct {
	Header      Header       `json:"header"`
	Corrections []Correction `json:"corrections"`
}

func (m *Corrections) Protocol() gnss.Protocol { return gnss.ProtocolRTCM2 }

func (m *Corrections) Key() string { return strconv.Itoa(int(m.typ())) }

func (m *Corrections) typ() uint8 {
	if m.Header.Type == 9 {
		return 9
	}
	return 1
}

func (m *Corrections) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	h, err := readHeader(r, 0)
	if err != nil {
		return err
	}
	m.Header = h
	n := int(h.Words) * 24 / correctionBits
	m.Corrections = make([]Correction, n)
	for i := range m.Corrections {
		c := &m.Corrections[i]
		c.LargeScale = r.Bool()
		c.UDRE = uint8(r.Uint(2))
		c.SatID = int(r.Uint(5))
		if c.SatID == 0 {
			c.SatID = 32
		}
		prc, rrc := prcSmall, rrcSmall
		if c.LargeScale {
			prc, rrc = prcLarge, rrcLarge
		}
		c.PRC = r.Fixed(prc)
		c.RRC = r.Fixed(rrc)
		c.IOD = uint8(r.Uint(8))
	}
	return finishBody(r, h, body, correctionBits)
}

func (m *Corrections) Encode() ([]byte, error) {
	w, err := newBody(m.Header, m.typ(), len(m.Corrections)*correctionBits)
	if err != nil {
		return nil, err
	}
	for _, c := range m.Corrections {
		large := c.needsLargeScale()
		w.PutBool(large)
		w.PutUint(2, uint32(c.UDRE))
		w.PutUint(5, uint32(c.SatID%32))
		prc, rrc := prcSmall, rrcSmall
		if large {
			prc, rrc = prcLarge, rrcLarge
		}
		w.PutFixed(prc, c.PRC)
		w.PutFixed(rrc, c.RRC)
		w.PutUint(8, uint32(c.IOD))
	}
	return closeBody(w)
}
