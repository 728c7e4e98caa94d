package ubx

import (
	"fmt"
	"math"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

// Time mode 3 receiver modes.
const (
	TMode3Disabled = 0
	TMode3SurveyIn = 1
	TMode3Fixed    = 2

	tmode3FlagLLA = 1 << 8
)

var (
	tmodePosAcc  = bitfield.Fixed{Name: "fixed_pos_acc", Bits: 32, Scale: 1e-4}
	tmodeSvinAcc = bitfield.Fixed{Name: "svin_acc_limit", Bits: 32, Scale: 1e-4}
	tmodeSvinDur = bitfield.Fixed{Name: "svin_min_dur", Bits: 32, Scale: 1}
	maxHighPrec  = float64(math.MaxInt32)*100 + 99
	minHighPrec  = float64(math.MinInt32)*100 - 99
)

// CfgTMode3 is CFG-TMODE3, the base station mode. X, Y and Z hold ECEF in
// cm, or latitude and longitude in 1e-7 degrees and altitude in cm when the
// LLA flag is set; the HP fields carry the 0.1 mm or 1e-9 degree remainder.
type CfgTMode3 struct {
	Version      uint8   `json:"version"`
	Reserved1    uint8   `json:"-"`
	Flags        uint16  `json:"flags"`
	X            int32   `json:"x"`
	Y            int32   `json:"y"`
	Z            int32   `json:"z"`
	XHP          int8    `json:"x_hp"`
	YHP          int8    `json:"y_hp"`
	ZHP          int8    `json:"z_hp"`
	Reserved2    uint8   `json:"-"`
	FixedPosAcc  uint32  `json:"fixed_pos_acc"`
	SvinMinDur   uint32  `json:"svin_min_dur"`
	SvinAccLimit uint32  `json:"svin_acc_limit"`
	Reserved3    [8]byte `json:"-"`
}

func (m *CfgTMode3) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *CfgTMode3) Key() string             { return KeyString(KeyCfgTMode3) }
func (m *CfgTMode3) ID() uint16              { return KeyCfgTMode3 }

func (m *CfgTMode3) Decode(payload []byte, _ time.Time) error {
	return readPayload("CFG-TMODE3", payload, m)
}

func (m *CfgTMode3) Encode() ([]byte, error) { return gnss.AppendLE(nil, m) }

func (m *CfgTMode3) Mode() uint8 { return uint8(m.Flags) }
func (m *CfgTMode3) IsLLA() bool { return m.Flags&tmode3FlagLLA != 0 }

// ECEF returns the fixed position when it is given in ECEF.
func (m *CfgTMode3) ECEF() geo.ECEF {
	return geo.ECEF{X: joinHP(m.X, m.XHP), Y: joinHP(m.Y, m.YHP), Z: joinHP(m.Z, m.ZHP)}
}

// LLA returns the fixed position when it is given as latitude, longitude
// and altitude.
func (m *CfgTMode3) LLA() geo.LLA {
	return geo.LLA{
		LatDeg: float64(int64(m.X)*100+int64(m.XHP)) * 1e-9,
		LonDeg: float64(int64(m.Y)*100+int64(m.YHP)) * 1e-9,
		AltM:   joinHP(m.Z, m.ZHP),
	}
}

func (m *CfgTMode3) FixedPosAccM() float64  { return fixedValue(tmodePosAcc, int64(m.FixedPosAcc)) }
func (m *CfgTMode3) SvinAccLimitM() float64 { return fixedValue(tmodeSvinAcc, int64(m.SvinAccLimit)) }
func (m *CfgTMode3) SvinMinDuration() time.Duration {
	return time.Duration(m.SvinMinDur) * time.Second
}

type clampList []string

func (c *clampList) fixed(f bitfield.Fixed, v float64) uint32 {
	raw, clamped := f.Encode(v)
	if clamped {
		*c = append(*c, f.Name)
	}
	return uint32(raw)
}

// split divides v, expressed in units of hpUnit, into a main part of 100
// high precision steps and the signed remainder.
func (c *clampList) split(name string, v, hpUnit float64) (int32, int8) {
	t := math.Round(v / hpUnit)
	switch {
	case t > maxHighPrec:
		t = maxHighPrec
		*c = append(*c, name)
	case t < minHighPrec:
		t = minHighPrec
		*c = append(*c, name)
	}
	n := int64(t)
	return int32(n / 100), int8(n % 100)
}

func (c clampList) err() error {
	if len(c) == 0 {
		return nil
	}
	return &bitfield.ClampError{Fields: c}
}

// NewSurveyIn starts a survey-in that ends once both the minimum duration
// and the accuracy limit are met.
func NewSurveyIn(minDur time.Duration, accLimitM float64) (*CfgTMode3, error) {
	var c clampList
	m := &CfgTMode3{Flags: TMode3SurveyIn}
	m.SvinMinDur = c.fixed(tmodeSvinDur, minDur.Seconds())
	m.SvinAccLimit = c.fixed(tmodeSvinAcc, accLimitM)
	return m, c.err()
}

// NewFixedECEF configures fixed mode at an ECEF position.
func NewFixedECEF(p geo.ECEF, accM float64) (*CfgTMode3, error) {
	var c clampList
	m := &CfgTMode3{Flags: TMode3Fixed}
	m.X, m.XHP = c.split("ecef_x", p.X, 1e-4)
	m.Y, m.YHP = c.split("ecef_y", p.Y, 1e-4)
	m.Z, m.ZHP = c.split("ecef_z", p.Z, 1e-4)
	m.FixedPosAcc = c.fixed(tmodePosAcc, accM)
	return m, c.err()
}

// NewFixedLLA configures fixed mode at a geodetic position.
func NewFixedLLA(p geo.LLA, accM float64) (*CfgTMode3, error) {
	var c clampList
	m := &CfgTMode3{Flags: TMode3Fixed | tmode3FlagLLA}
	m.X, m.XHP = c.split("lat", p.LatDeg, 1e-9)
	m.Y, m.YHP = c.split("lon", p.LonDeg, 1e-9)
	m.Z, m.ZHP = c.split("alt", p.AltM, 1e-4)
	m.FixedPosAcc = c.fixed(tmodePosAcc, accM)
	return m, c.err()
}

// NewDisabled turns the time mode off.
func NewDisabled() *CfgTMode3 { return &CfgTMode3{Flags: TMode3Disabled} }

// CfgMsg is CFG-MSG. With no rates it polls the configuration of MsgClass
// and MsgID; one rate applies to the current port, six set every port.
type CfgMsg struct {
	MsgClass uint8   `json:"msg_class"`
	MsgID    uint8   `json:"msg_id"`
	Rates    []uint8 `json:"rates,omitempty"`
}

func (m *CfgMsg) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *CfgMsg) Key() string             { return KeyString(KeyCfgMsg) }
func (m *CfgMsg) ID() uint16              { return KeyCfgMsg }

func (m *CfgMsg) Decode(payload []byte, _ time.Time) error {
	switch len(payload) {
	case 2, 3, 8:
	default:
		return fmt.Errorf("ubx: CFG-MSG payload length %d", len(payload))
	}
	m.MsgClass, m.MsgID = payload[0], payload[1]
	m.Rates = nil
	if len(payload) > 2 {
		m.Rates = append([]uint8(nil), payload[2:]...)
	}
	return nil
}

func (m *CfgMsg) Encode() ([]byte, error) {
	switch len(m.Rates) {
	case 0, 1, 6:
	default:
		return nil, fmt.Errorf("ubx: CFG-MSG with %d rates", len(m.Rates))
	}
	return append([]byte{m.MsgClass, m.MsgID}, m.Rates...), nil
}

// Target returns the configured message key.
func (m *CfgMsg) Target() uint16 { return uint16(m.MsgClass)<<8 | uint16(m.MsgID) }

// SetRate builds a CFG-MSG for the current port.
func SetRate(key uint16, rate uint8) *CfgMsg {
	return &CfgMsg{MsgClass: uint8(key >> 8), MsgID: uint8(key), Rates: []uint8{rate}}
}

// CfgRate is CFG-RATE: measurement period, solutions per measurement and
// time reference.
type CfgRate struct {
	MeasRate uint16 `json:"meas_rate_ms"`
	NavRate  uint16 `json:"nav_rate"`
	TimeRef  uint16 `json:"time_ref"`
}

func (m *CfgRate) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *CfgRate) Key() string             { return KeyString(KeyCfgRate) }
func (m *CfgRate) ID() uint16              { return KeyCfgRate }

func (m *CfgRate) Decode(payload []byte, _ time.Time) error {
	return readPayload("CFG-RATE", payload, m)
}

func (m *CfgRate) Encode() ([]byte, error) { return gnss.AppendLE(nil, m) }

// Reset masks and modes for CFG-RST.
const (
	ResetHot  = 0x0000
	ResetWarm = 0x0001
	ResetCold = 0xFFFF

	ResetModeHardware        = 0x00
	ResetModeSoftware        = 0x01
	ResetModeGNSSOnly        = 0x02
	ResetModeHardwareAfterSD = 0x04
	ResetModeGNSSStop        = 0x08
	ResetModeGNSSStart       = 0x09
)

// CfgRst is CFG-RST. The receiver does not acknowledge it.
type CfgRst struct {
	NavBbrMask uint16 `json:"nav_bbr_mask"`
	ResetMode  uint8  `json:"reset_mode"`
	Reserved1  uint8  `json:"-"`
}

func (m *CfgRst) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *CfgRst) Key() string             { return KeyString(KeyCfgRst) }
func (m *CfgRst) ID() uint16              { return KeyCfgRst }

func (m *CfgRst) Decode(payload []byte, _ time.Time) error {
	return readPayload("CFG-RST", payload, m)
}

func (m *CfgRst) Encode() ([]byte, error) { return gnss.AppendLE(nil, m) }
