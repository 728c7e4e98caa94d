package oem

import (
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

// PositionSolution is the BESTPOS body in wire layout. Latitude and longitude
// are degrees, heights and sigmas metres.
type PositionSolution struct {
	SolStatus       uint32  `json:"sol_status"`
	PosType         uint32  `json:"pos_type"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Height          float64 `json:"height"`
	Undulation      float32 `json:"undulation"`
	DatumID         uint32  `json:"datum_id"`
	LatSigma        float32 `json:"lat_sigma"`
	LonSigma        float32 `json:"lon_sigma"`
	HeightSigma     float32 `json:"height_sigma"`
	StationID       [4]byte `json:"station_id"`
	DiffAge         float32 `json:"diff_age"`
	SolAge          float32 `json:"sol_age"`
	NumSVs          uint8   `json:"num_svs"`
	NumSolnSVs      uint8   `json:"num_soln_svs"`
	NumSolnL1SVs    uint8   `json:"num_soln_l1_svs"`
	NumSolnMultiSVs uint8   `json:"num_soln_multi_svs"`
	Reserved        uint8   `json:"-"`
	ExtSolStat      uint8   `json:"ext_sol_stat"`
	GalBDSSigMask   uint8   `json:"gal_bds_sig_mask"`
	GPSGLOSigMask   uint8   `json:"gps_glo_sig_mask"`
}

// BestPos is the best available position (message 42).
type BestPos struct {
	Header `json:"header"`
	PositionSolution
}

func (m *BestPos) Protocol() gnss.Protocol { return gnss.ProtocolOEM }
func (m *BestPos) Key() string             { return KeyString(IDBestPos) }
func (m *BestPos) MessageID() uint16       { return IDBestPos }

func (m *BestPos) Decode(body []byte, _ time.Time) error {
	return readBody("BESTPOS", body, &m.PositionSolution)
}

func (m *BestPos) Encode() ([]byte, error) { return gnss.AppendLE(nil, &m.PositionSolution) }

// Station returns the base station id text.
func (m *BestPos) Station() string { return gnss.CString(m.StationID[:]) }

// LLA returns the position with the ellipsoidal height. The wire height is
// above mean sea level; undulation is added back.
func (m *BestPos) LLA() geo.LLA {
	return geo.LLA{LatDeg: m.Lat, LonDeg: m.Lon, AltM: m.Height + float64(m.Undulation)}
}

// Valid reports a computed solution.
func (m *BestPos) Valid() bool { return m.SolStatus == SolComputed && m.PosType != PosNone }

// XYZSolution is the BESTXYZ body in wire layout, ECEF metres and m/s.
type XYZSolution struct {
	PSolStatus      uint32  `json:"p_sol_status"`
	PosType         uint32  `json:"pos_type"`
	PX              float64 `json:"px"`
	PY              float64 `json:"py"`
	PZ              float64 `json:"pz"`
	PXSigma         float32 `json:"px_sigma"`
	PYSigma         float32 `json:"py_sigma"`
	PZSigma         float32 `json:"pz_sigma"`
	VSolStatus      uint32  `json:"v_sol_status"`
	VelType         uint32  `json:"vel_type"`
	VX              float64 `json:"vx"`
	VY              float64 `json:"vy"`
	VZ              float64 `json:"vz"`
	VXSigma         float32 `json:"vx_sigma"`
	VYSigma         float32 `json:"vy_sigma"`
	VZSigma         float32 `json:"vz_sigma"`
	StationID       [4]byte `json:"station_id"`
	VLatency        float32 `json:"v_latency"`
	DiffAge         float32 `json:"diff_age"`
	SolAge          float32 `json:"sol_age"`
	NumSVs          uint8   `json:"num_svs"`
	NumSolnSVs      uint8   `json:"num_soln_svs"`
	NumGGL1         uint8   `json:"num_ggl1"`
	NumSolnMultiSVs uint8   `json:"num_soln_multi_svs"`
	Reserved        uint8   `json:"-"`
	ExtSolStat      uint8   `json:"ext_sol_stat"`
	GalBDSSigMask   uint8   `json:"gal_bds_sig_mask"`
	GPSGLOSigMask   uint8   `json:"gps_glo_sig_mask"`
}

// BestXYZ is the best available ECEF position and velocity (message 241).
type BestXYZ struct {
	Header `json:"header"`
	XYZSolution
}

func (m *BestXYZ) Protocol() gnss.Protocol { return gnss.ProtocolOEM }
func (m *BestXYZ) Key() string             { return KeyString(IDBestXYZ) }
func (m *BestXYZ) MessageID() uint16       { return IDBestXYZ }

func (m *BestXYZ) Decode(body []byte, _ time.Time) error {
	return readBody("BESTXYZ", body, &m.XYZSolution)
}

func (m *BestXYZ) Encode() ([]byte, error) { return gnss.AppendLE(nil, &m.XYZSolution) }

func (m *BestXYZ) ECEF() geo.ECEF { return geo.ECEF{X: m.PX, Y: m.PY, Z: m.PZ} }

func (m *BestXYZ) Valid() bool { return m.PSolStatus == SolComputed && m.PosType != PosNone }
