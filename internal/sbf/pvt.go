package sbf

import (
	"math"
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

// PVT solution modes, the low four bits of Mode.
const (
	ModeNoPVT         = 0
	ModeStandAlone    = 1
	ModeDifferential  = 2
	ModeFixedLocation = 3
	ModeRTKFixed      = 4
	ModeRTKFloat      = 5
	ModeSBAS          = 6
	ModeMovingRTKFix  = 7
	ModeMovingRTKFlt  = 8
	ModePPP           = 10
)

const pvtRevision = 2

// pvtWire is the revision 2 layout shared by PVTCartesian and PVTGeodetic.
// P and V hold the position and velocity triples of either frame.
type pvtWire struct {
	TOW         uint32
	WNc         uint16
	Mode        uint8
	Error       uint8
	P           [3]float64
	Undulation  float32
	V           [3]float32
	COG         float32
	RxClkBias   float64
	RxClkDrift  float32
	TimeSystem  uint8
	Datum       uint8
	NrSV        uint8
	WACorrInfo  uint8
	ReferenceID uint16
	MeanCorrAge uint16
	SignalInfo  uint32
	AlertFlag   uint8
	NrBases     uint8
	PPPInfo     uint16
	Latency     uint16
	HAccuracy   uint16
	VAccuracy   uint16
	Misc        uint8
}

// PVTSolution holds the fields common to both PVT blocks. Nil pointers
// carried the do-not-use value.
type PVTSolution struct {
	TimeStamp
	Mode        uint8    `json:"mode"`
	Error       uint8    `json:"error"`
	Undulation  *float64 `json:"undulation_m,omitempty"`
	COG         *float64 `json:"cog_deg,omitempty"`
	RxClkBias   *float64 `json:"rx_clk_bias_ms,omitempty"`
	RxClkDrift  *float64 `json:"rx_clk_drift_ppm,omitempty"`
	TimeSystem  uint8    `json:"time_system"`
	Datum       uint8    `json:"datum"`
	NrSV        *uint8   `json:"nr_sv,omitempty"`
	WACorrInfo  uint8    `json:"wa_corr_info"`
	ReferenceID *uint16  `json:"reference_id,omitempty"`
	MeanCorrAge *uint16  `json:"mean_corr_age,omitempty"` // 0.01 s
	SignalInfo  uint32   `json:"signal_info"`
	AlertFlag   uint8    `json:"alert_flag"`
	NrBases     uint8    `json:"nr_bases"`
	PPPInfo     uint16   `json:"ppp_info"`
	Latency     *uint16  `json:"latency,omitempty"`    // 0.0001 s
	HAccuracy   *uint16  `json:"h_accuracy,omitempty"` // 0.01 m
	VAccuracy   *uint16  `json:"v_accuracy,omitempty"` // 0.01 m
	Misc        uint8    `json:"misc"`
}

// ModeType is the solution type without the flag bits.
func (s *PVTSolution) ModeType() uint8 { return s.Mode & 0x0F }

// HasFix reports a solution of any type with no error code.
func (s *PVTSolution) HasFix() bool { return s.ModeType() != ModeNoPVT && s.Error == 0 }

// HAccuracyM returns the 2DRMS horizontal accuracy in metres.
func (s *PVTSolution) HAccuracyM() (float64, bool) {
	if s.HAccuracy == nil {
		return 0, false
	}
	return float64(*s.HAccuracy) / 100, true
}

func (s *PVTSolution) fromWire(w *pvtWire) {
	*s = PVTSolution{
		TimeStamp:   TimeStamp{TOW: u4(w.TOW), WNc: u2(w.WNc)},
		Mode:        w.Mode,
		Error:       w.Error,
		Undulation:  f4(w.Undulation),
		COG:         f4(w.COG),
		RxClkBias:   f8(w.RxClkBias),
		RxClkDrift:  f4(w.RxClkDrift),
		TimeSystem:  w.TimeSystem,
		Datum:       w.Datum,
		NrSV:        u1(w.NrSV),
		WACorrInfo:  w.WACorrInfo,
		ReferenceID: u2(w.ReferenceID),
		MeanCorrAge: u2(w.MeanCorrAge),
		SignalInfo:  w.SignalInfo,
		AlertFlag:   w.AlertFlag,
		NrBases:     w.NrBases,
		PPPInfo:     w.PPPInfo,
		Latency:     u2(w.Latency),
		HAccuracy:   u2(w.HAccuracy),
		VAccuracy:   u2(w.VAccuracy),
		Misc:        w.Misc,
	}
}

func (s *PVTSolution) toWire() pvtWire {
	return pvtWire{
		TOW:         putU4(s.TOW),
		WNc:         putU2(s.WNc),
		Mode:        s.Mode,
		Error:       s.Error,
		Undulation:  putF4(s.Undulation),
		COG:         putF4(s.COG),
		RxClkBias:   putF8(s.RxClkBias),
		RxClkDrift:  putF4(s.RxClkDrift),
		TimeSystem:  s.TimeSystem,
		Datum:       s.Datum,
		NrSV:        putU1(s.NrSV),
		WACorrInfo:  s.WACorrInfo,
		ReferenceID: putU2(s.ReferenceID),
		MeanCorrAge: putU2(s.MeanCorrAge),
		SignalInfo:  s.SignalInfo,
		AlertFlag:   s.AlertFlag,
		NrBases:     s.NrBases,
		PPPInfo:     s.PPPInfo,
		Latency:     putU2(s.Latency),
		HAccuracy:   putU2(s.HAccuracy),
		VAccuracy:   putU2(s.VAccuracy),
		Misc:        s.Misc,
	}
}

// PVTCartesian is the position in ECEF metres and velocity in m/s.
type PVTCartesian struct {
	PVTSolution
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	Z  *float64 `json:"z,omitempty"`
	Vx *float64 `json:"vx,omitempty"`
	Vy *float64 `json:"vy,omitempty"`
	Vz *float64 `json:"vz,omitempty"`
}

func (m *PVTCartesian) Protocol() gnss.Protocol { return gnss.ProtocolSBF }
func (m *PVTCartesian) Key() string             { return KeyString(BlockPVTCartesian) }
func (m *PVTCartesian) BlockID() uint16         { return BlockPVTCartesian }
func (m *PVTCartesian) Revision() uint8         { return pvtRevision }

func (m *PVTCartesian) Decode(body []byte, _ time.Time) error {
	var w pvtWire
	if err := readBody("PVTCartesian", body, &w); err != nil {
		return err
	}
	m.PVTSolution.fromWire(&w)
	m.X, m.Y, m.Z = f8(w.P[0]), f8(w.P[1]), f8(w.P[2])
	m.Vx, m.Vy, m.Vz = f4(w.V[0]), f4(w.V[1]), f4(w.V[2])
	return nil
}

func (m *PVTCartesian) Encode() ([]byte, error) {
	w := m.PVTSolution.toWire()
	w.P = [3]float64{putF8(m.X), putF8(m.Y), putF8(m.Z)}
	w.V = [3]float32{putF4(m.Vx), putF4(m.Vy), putF4(m.Vz)}
	return gnss.AppendLE(nil, &w)
}

// ECEF returns the position when all three axes are valid.
func (m *PVTCartesian) ECEF() (geo.ECEF, bool) {
	if m.X == nil || m.Y == nil || m.Z == nil {
		return geo.ECEF{}, false
	}
	return geo.ECEF{X: *m.X, Y: *m.Y, Z: *m.Z}, true
}

// PVTGeodetic is the position in radians and ellipsoidal metres, velocity
// in local north, east and up.
type PVTGeodetic struct {
	PVTSolution
	Lat    *float64 `json:"lat_rad,omitempty"`
	Lon    *float64 `json:"lon_rad,omitempty"`
	Height *float64 `json:"height_m,omitempty"`
	Vn     *float64 `json:"vn,omitempty"`
	Ve     *float64 `json:"ve,omitempty"`
	Vu     *float64 `json:"vu,omitempty"`
}

func (m *PVTGeodetic) Protocol() gnss.Protocol { return gnss.ProtocolSBF }
func (m *PVTGeodetic) Key() string             { return KeyString(BlockPVTGeodetic) }
func (m *PVTGeodetic) BlockID() uint16         { return BlockPVTGeodetic }
func (m *PVTGeodetic) Revision() uint8         { return pvtRevision }

func (m *PVTGeodetic) Decode(body []byte, _ time.Time) error {
	var w pvtWire
	if err := readBody("PVTGeodetic", body, &w); err != nil {
		return err
	}
	m.PVTSolution.fromWire(&w)
	m.Lat, m.Lon, m.Height = f8(w.P[0]), f8(w.P[1]), f8(w.P[2])
	m.Vn, m.Ve, m.Vu = f4(w.V[0]), f4(w.V[1]), f4(w.V[2])
	return nil
}

func (m *PVTGeodetic) Encode() ([]byte, error) {
	w := m.PVTSolution.toWire()
	w.P = [3]float64{putF8(m.Lat), putF8(m.Lon), putF8(m.Height)}
	w.V = [3]float32{putF4(m.Vn), putF4(m.Ve), putF4(m.Vu)}
	return gnss.AppendLE(nil, &w)
}

// LLA returns the position in degrees when all three fields are valid.
func (m *PVTGeodetic) LLA() (geo.LLA, bool) {
	if m.Lat == nil || m.Lon == nil || m.Height == nil {
		return geo.LLA{}, false
	}
	return geo.LLA{LatDeg: *m.Lat * 180 / math.Pi, LonDeg: *m.Lon * 180 / math.Pi, AltM: *m.Height}, true
}
