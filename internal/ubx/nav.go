package ubx

import (
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

// Fix types reported by NAV-PVT.
const (
	FixNone          = 0
	FixDeadReckoning = 1
	Fix2D            = 2
	Fix3D            = 3
	FixGNSSDR        = 4
	FixTimeOnly      = 5
)

// NavPVT is NAV-PVT in wire layout. Accessors convert to SI units.
type NavPVT struct {
	ITOW      uint32  `json:"itow"`
	Year      uint16  `json:"year"`
	Month     uint8   `json:"month"`
	Day       uint8   `json:"day"`
	Hour      uint8   `json:"hour"`
	Min       uint8   `json:"min"`
	Sec       uint8   `json:"sec"`
	Valid     uint8   `json:"valid"`
	TAcc      uint32  `json:"t_acc"`
	Nano      int32   `json:"nano"`
	FixType   uint8   `json:"fix_type"`
	Flags     uint8   `json:"flags"`
	Flags2    uint8   `json:"flags2"`
	NumSV     uint8   `json:"num_sv"`
	Lon       int32   `json:"lon"`
	Lat       int32   `json:"lat"`
	Height    int32   `json:"height"`
	HMSL      int32   `json:"hmsl"`
	HAcc      uint32  `json:"h_acc"`
	VAcc      uint32  `json:"v_acc"`
	VelN      int32   `json:"vel_n"`
	VelE      int32   `json:"vel_e"`
	VelD      int32   `json:"vel_d"`
	GSpeed    int32   `json:"g_speed"`
	HeadMot   int32   `json:"head_mot"`
	SAcc      uint32  `json:"s_acc"`
	HeadAcc   uint32  `json:"head_acc"`
	PDOP      uint16  `json:"pdop"`
	Flags3    uint16  `json:"flags3"`
	Reserved1 [4]byte `json:"-"`
	HeadVeh   int32   `json:"head_veh"`
	MagDec    int16   `json:"mag_dec"`
	MagAcc    uint16  `json:"mag_acc"`
}

func (m *NavPVT) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *NavPVT) Key() string             { return KeyString(KeyNavPVT) }
func (m *NavPVT) ID() uint16              { return KeyNavPVT }

func (m *NavPVT) Decode(payload []byte, _ time.Time) error {
	return readPayload("NAV-PVT", payload, m)
}

func (m *NavPVT) Encode() ([]byte, error) { return gnss.AppendLE(nil, m) }

// GNSSFixOK reports the fix-ok flag.
func (m *NavPVT) GNSSFixOK() bool { return m.Flags&0x01 != 0 }

func (m *NavPVT) LatDeg() float64 { return float64(m.Lat) * 1e-7 }
func (m *NavPVT) LonDeg() float64 { return float64(m.Lon) * 1e-7 }

// HeightM is the ellipsoid height, HMSLM the height above mean sea level.
func (m *NavPVT) HeightM() float64 { return float64(m.Height) * 1e-3 }
func (m *NavPVT) HMSLM() float64   { return float64(m.HMSL) * 1e-3 }
func (m *NavPVT) HAccM() float64   { return float64(m.HAcc) * 1e-3 }
func (m *NavPVT) VAccM() float64   { return float64(m.VAcc) * 1e-3 }

func (m *NavPVT) GroundSpeedMps() float64 { return float64(m.GSpeed) * 1e-3 }
func (m *NavPVT) HeadingDeg() float64     { return float64(m.HeadMot) * 1e-5 }
func (m *NavPVT) PDOPValue() float64      { return float64(m.PDOP) * 0.01 }

// UTC returns the receiver's UTC time when both date and time are valid.
func (m *NavPVT) UTC() (time.Time, bool) {
	if m.Valid&0x03 != 0x03 {
		return time.Time{}, false
	}
	t := time.Date(int(m.Year), time.Month(m.Month), int(m.Day), int(m.Hour), int(m.Min), int(m.Sec), 0, time.UTC)
	return t.Add(time.Duration(m.Nano)), true
}

var (
	cmCoord    = bitfield.Fixed{Name: "ecef", Bits: 32, Signed: true, Scale: 0.01}
	cmAcc      = bitfield.Fixed{Name: "accuracy", Bits: 32, Scale: 0.01}
	tenthMMAcc = bitfield.Fixed{Name: "accuracy", Bits: 32, Scale: 1e-4}
)

func fixedValue(f bitfield.Fixed, raw int64) float64 {
	v, _, _ := f.Decode(raw)
	return v
}

// NavPosECEF is NAV-POSECEF: position in cm with accuracy estimate.
type NavPosECEF struct {
	ITOW  uint32 `json:"itow"`
	ECEFX int32  `json:"ecef_x"`
	ECEFY int32  `json:"ecef_y"`
	ECEFZ int32  `json:"ecef_z"`
	PAcc  uint32 `json:"p_acc"`
}

func (m *NavPosECEF) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *NavPosECEF) Key() string             { return KeyString(KeyNavPosECEF) }
func (m *NavPosECEF) ID() uint16              { return KeyNavPosECEF }

func (m *NavPosECEF) Decode(payload []byte, _ time.Time) error {
	return readPayload("NAV-POSECEF", payload, m)
}

func (m *NavPosECEF) Encode() ([]byte, error) { return gnss.AppendLE(nil, m) }

func (m *NavPosECEF) ECEF() geo.ECEF {
	return geo.ECEF{
		X: fixedValue(cmCoord, int64(m.ECEFX)),
		Y: fixedValue(cmCoord, int64(m.ECEFY)),
		Z: fixedValue(cmCoord, int64(m.ECEFZ)),
	}
}

func (m *NavPosECEF) AccuracyM() float64 { return fixedValue(cmAcc, int64(m.PAcc)) }

// NavSVIN is NAV-SVIN, the survey-in status. The mean position is carried
// as cm plus a 0.1 mm high precision part.
type NavSVIN struct {
	Version   uint8   `json:"version"`
	Reserved1 [3]byte `json:"-"`
	ITOW      uint32  `json:"itow"`
	Dur       uint32  `json:"dur"`
	MeanX     int32   `json:"mean_x"`
	MeanY     int32   `json:"mean_y"`
	MeanZ     int32   `json:"mean_z"`
	MeanXHP   int8    `json:"mean_x_hp"`
	MeanYHP   int8    `json:"mean_y_hp"`
	MeanZHP   int8    `json:"mean_z_hp"`
	Reserved2 uint8   `json:"-"`
	MeanAcc   uint32  `json:"mean_acc"`
	Obs       uint32  `json:"obs"`
	Valid     uint8   `json:"valid"`
	Active    uint8   `json:"active"`
	Reserved3 [2]byte `json:"-"`
}

func (m *NavSVIN) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *NavSVIN) Key() string             { return KeyString(KeyNavSVIN) }
func (m *NavSVIN) ID() uint16              { return KeyNavSVIN }

func (m *NavSVIN) Decode(payload []byte, _ time.Time) error {
	return readPayload("NAV-SVIN", payload, m)
}

func (m *NavSVIN) Encode() ([]byte, error) { return gnss.AppendLE(nil, m) }

// Mean returns the surveyed position in metres.
func (m *NavSVIN) Mean() geo.ECEF {
	return geo.ECEF{
		X: joinHP(m.MeanX, m.MeanXHP),
		Y: joinHP(m.MeanY, m.MeanYHP),
		Z: joinHP(m.MeanZ, m.MeanZHP),
	}
}

func (m *NavSVIN) AccuracyM() float64      { return fixedValue(tenthMMAcc, int64(m.MeanAcc)) }
func (m *NavSVIN) Duration() time.Duration { return time.Duration(m.Dur) * time.Second }
func (m *NavSVIN) IsValid() bool           { return m.Valid == 1 }
func (m *NavSVIN) IsActive() bool          { return m.Active == 1 }

// joinHP combines a cm value with its 0.1 mm remainder.
func joinHP(cm int32, hp int8) float64 {
	return float64(int64(cm)*100+int64(hp)) * 1e-4
}
