package rtcm3

import (
	"fmt"
	"strconv"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

var (
	ecefCoord     = bitfield.Fixed{Name: "ecef", Bits: 38, Signed: true, Scale: 0.0001}
	antennaHeight = bitfield.Fixed{Name: "antenna_height", Bits: 16, Scale: 0.0001}
)

// StationARP is message 1005, or 1006 when AntennaHeight is set: the
// reference station antenna reference point.
type StationARP struct {
	Number           uint16   `json:"number"`
	StationID        uint16   `json:"station_id"`
	ITRFYear         uint8    `json:"itrf_year"`
	GPS              bool     `json:"gps"`
	GLONASS          bool     `json:"glonass"`
	Galileo          bool     `json:"galileo"`
	ReferenceStation bool     `json:"reference_station"`
	SingleOscillator bool     `json:"single_oscillator"`
	QuarterCycle     uint8    `json:"quarter_cycle"`
	ECEF             geo.ECEF `json:"ecef"`
	AntennaHeight    *float64 `json:"antenna_height_m,omitempty"`
	// Position is derived from ECEF on decode.
	Position geo.LLA `json:"position"`
}

func (m *StationARP) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }
func (m *StationARP) Key() string             { return strconv.Itoa(int(m.number())) }

func (m *StationARP) number() uint16 {
	if m.Number != 0 {
		return m.Number
	}
	if m.AntennaHeight != nil {
		return 1006
	}
	return 1005
}

func (m *StationARP) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	m.Number = uint16(r.Uint(12))
	if m.Number != 1005 && m.Number != 1006 {
		return fmt.Errorf("rtcm3: message %d is not 1005/1006", m.Number)
	}
	m.StationID = uint16(r.Uint(12))
	m.ITRFYear = uint8(r.Uint(6))
	m.GPS = r.Bool()
	m.GLONASS = r.Bool()
	m.Galileo = r.Bool()
	m.ReferenceStation = r.Bool()
	x := r.Fixed(ecefCoord)
	m.SingleOscillator = r.Bool()
	r.Skip(1)
	y := r.Fixed(ecefCoord)
	m.QuarterCycle = uint8(r.Uint(2))
	z := r.Fixed(ecefCoord)
	if m.Number == 1006 {
		m.AntennaHeight = r.Fixed(antennaHeight)
	}
	if err := r.Finish(len(body) * 8); err != nil {
		return fmt.Errorf("rtcm3: %d: %w", m.Number, err)
	}
	m.ECEF = geo.ECEF{X: *x, Y: *y, Z: *z}
	m.Position = m.ECEF.ToLLA()
	return nil
}

func (m *StationARP) Encode() ([]byte, error) {
	n := m.number()
	w := bitfield.NewWriter(21)
	w.PutUint(12, uint32(n))
	w.PutUint(12, uint32(m.StationID))
	w.PutUint(6, uint32(m.ITRFYear))
	w.PutBool(m.GPS)
	w.PutBool(m.GLONASS)
	w.PutBool(m.Galileo)
	w.PutBool(m.ReferenceStation)
	w.PutFixedValue(ecefCoord, m.ECEF.X)
	w.PutBool(m.SingleOscillator)
	w.PutBool(false)
	w.PutFixedValue(ecefCoord, m.ECEF.Y)
	w.PutUint(2, uint32(m.QuarterCycle))
	w.PutFixedValue(ecefCoord, m.ECEF.Z)
	if n == 1006 {
		h := 0.0
		if m.AntennaHeight != nil {
			h = *m.AntennaHeight
		}
		w.PutFixedValue(antennaHeight, h)
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Clamped()
}

// AntennaDescriptor covers 1007 (antenna), 1008 (antenna and serial) and
// 1033 (antenna and receiver).
type AntennaDescriptor struct {
	Number         uint16 `json:"number"`
	StationID      uint16 `json:"station_id"`
	Antenna        string `json:"antenna"`
	SetupID        uint8  `json:"setup_id"`
	AntennaSerial  string `json:"antenna_serial,omitempty"`
	Receiver       string `json:"receiver,omitempty"`
	Firmware       string `json:"firmware,omitempty"`
	ReceiverSerial string `json:"receiver_serial,omitempty"`
}

func (m *AntennaDescriptor) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }
func (m *AntennaDescriptor) Key() string             { return strconv.Itoa(int(m.Number)) }

func readString(r *bitfield.Reader) string {
	n := int(r.Uint(8))
	return string(r.Bytes(n))
}

func putString(w *bitfield.Writer, s string) error {
	if len(s) > 31 {
		return fmt.Errorf("rtcm3: string %q longer than 31", s)
	}
	w.PutUint(8, uint32(len(s)))
	w.PutBytes([]byte(s))
	return nil
}

func (m *AntennaDescriptor) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	m.Number = uint16(r.Uint(12))
	switch m.Number {
	case 1007, 1008, 1033:
	default:
		return fmt.Errorf("rtcm3: message %d is not an antenna descriptor", m.Number)
	}
	m.StationID = uint16(r.Uint(12))
	m.Antenna = readString(r)
	m.SetupID = uint8(r.Uint(8))
	if m.Number != 1007 {
		m.AntennaSerial = readString(r)
	}
	if m.Number == 1033 {
		m.Receiver = readString(r)
		m.Firmware = readString(r)
		m.ReceiverSerial = readString(r)
	}
	if err := r.Finish(len(body) * 8); err != nil {
		return fmt.Errorf("rtcm3: %d: %w", m.Number, err)
	}
	return nil
}

func (m *AntennaDescriptor) Encode() ([]byte, error) {
	w := bitfield.NewWriter(64)
	w.PutUint(12, uint32(m.Number))
	w.PutUint(12, uint32(m.StationID))
	strs := []string{m.Antenna}
	switch m.Number {
	case 1007:
	case 1008:
		strs = append(strs, m.AntennaSerial)
	case 1033:
		strs = append(strs, m.AntennaSerial, m.Receiver, m.Firmware, m.ReceiverSerial)
	default:
		return nil, fmt.Errorf("rtcm3: message %d is not an antenna descriptor", m.Number)
	}
	for i, s := range strs {
		if err := putString(w, s); err != nil {
			return nil, err
		}
		if i == 0 {
			w.PutUint(8, uint32(m.SetupID))
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
