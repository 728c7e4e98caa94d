package rtcm3

import (
	"fmt"
	"math"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/gnss"
	"gnssrx/internal/gnsstime"
)

func p2(n int) float64 { return math.Ldexp(1, -n) }

func signed(name string, bits int, scale float64) bitfield.Fixed {
	return bitfield.Fixed{Name: name, Bits: bits, Signed: true, Scale: scale}
}

func unsigned(name string, bits int, scale float64) bitfield.Fixed {
	return bitfield.Fixed{Name: name, Bits: bits, Scale: scale}
}

func signMag(name string, bits int, scale float64) bitfield.Fixed {
	return bitfield.Fixed{Name: name, Bits: bits, Signed: true, SignMag: true, Scale: scale}
}

// Semicircle quantities are converted to radians.
var (
	gpsIDot     = signed("idot", 14, p2(43)*math.Pi)
	gpsToc      = unsigned("toc", 16, 16)
	gpsAf2      = signed("af2", 8, p2(55))
	gpsAf1      = signed("af1", 16, p2(43))
	gpsAf0      = signed("af0", 22, p2(31))
	gpsCrs      = signed("crs", 16, p2(5))
	gpsDeltaN   = signed("delta_n", 16, p2(43)*math.Pi)
	gpsM0       = signed("m0", 32, p2(31)*math.Pi)
	gpsCuc      = signed("cuc", 16, p2(29))
	gpsEcc      = unsigned("e", 32, p2(33))
	gpsCus      = signed("cus", 16, p2(29))
	gpsSqrtA    = unsigned("sqrt_a", 32, p2(19))
	gpsToe      = unsigned("toe", 16, 16)
	gpsCic      = signed("cic", 16, p2(29))
	gpsOmega0   = signed("omega0", 32, p2(31)*math.Pi)
	gpsCis      = signed("cis", 16, p2(29))
	gpsI0       = signed("i0", 32, p2(31)*math.Pi)
	gpsCrc      = signed("crc", 16, p2(5))
	gpsOmega    = signed("omega", 32, p2(31)*math.Pi)
	gpsOmegaDot = signed("omega_dot", 24, p2(43)*math.Pi)
	gpsTGD      = signed("tgd", 8, p2(31))
)

// GPSEphemeris is message 1019. Week is the full week number resolved
// against the receiver clock.
type GPSEphemeris struct {
	SatID       uint8   `json:"sat_id"`
	Week        int     `json:"week"`
	URAIndex    uint8   `json:"ura_index"`
	CodeOnL2    uint8   `json:"code_on_l2"`
	IDot        float64 `json:"idot"`
	IODE        uint8   `json:"iode"`
	Toc         float64 `json:"toc"`
	Af2         float64 `json:"af2"`
	Af1         float64 `json:"af1"`
	Af0         float64 `json:"af0"`
	IODC        uint16  `json:"iodc"`
	Crs         float64 `json:"crs"`
	DeltaN      float64 `json:"delta_n"`
	M0          float64 `json:"m0"`
	Cuc         float64 `json:"cuc"`
	Ecc         float64 `json:"e"`
	Cus         float64 `json:"cus"`
	SqrtA       float64 `json:"sqrt_a"`
	Toe         float64 `json:"toe"`
	Cic         float64 `json:"cic"`
	Omega0      float64 `json:"omega0"`
	Cis         float64 `json:"cis"`
	I0          float64 `json:"i0"`
	Crc         float64 `json:"crc"`
	Omega       float64 `json:"omega"`
	OmegaDot    float64 `json:"omega_dot"`
	TGD         float64 `json:"tgd"`
	Health      uint8   `json:"health"`
	L2PDataFlag bool    `json:"l2p_data_flag"`
	FitInterval bool    `json:"fit_interval"`
}

func (m *GPSEphemeris) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }
func (m *GPSEphemeris) Key() string             { return "1019" }

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func (m *GPSEphemeris) Decode(body []byte, now time.Time) error {
	r := bitfield.NewReader(body, 0)
	if n := r.Uint(12); n != 1019 {
		return fmt.Errorf("rtcm3: message %d is not 1019", n)
	}
	m.SatID = uint8(r.Uint(6))
	week := int(r.Uint(10))
	m.URAIndex = uint8(r.Uint(4))
	m.CodeOnL2 = uint8(r.Uint(2))
	m.IDot = val(r.Fixed(gpsIDot))
	m.IODE = uint8(r.Uint(8))
	m.Toc = val(r.Fixed(gpsToc))
	m.Af2 = val(r.Fixed(gpsAf2))
	m.Af1 = val(r.Fixed(gpsAf1))
	m.Af0 = val(r.Fixed(gpsAf0))
	m.IODC = uint16(r.Uint(10))
	m.Crs = val(r.Fixed(gpsCrs))
	m.DeltaN = val(r.Fixed(gpsDeltaN))
	m.M0 = val(r.Fixed(gpsM0))
	m.Cuc = val(r.Fixed(gpsCuc))
	m.Ecc = val(r.Fixed(gpsEcc))
	m.Cus = val(r.Fixed(gpsCus))
	m.SqrtA = val(r.Fixed(gpsSqrtA))
	m.Toe = val(r.Fixed(gpsToe))
	m.Cic = val(r.Fixed(gpsCic))
	m.Omega0 = val(r.Fixed(gpsOmega0))
	m.Cis = val(r.Fixed(gpsCis))
	m.I0 = val(r.Fixed(gpsI0))
	m.Crc = val(r.Fixed(gpsCrc))
	m.Omega = val(r.Fixed(gpsOmega))
	m.OmegaDot = val(r.Fixed(gpsOmegaDot))
	m.TGD = val(r.Fixed(gpsTGD))
	m.Health = uint8(r.Uint(6))
	m.L2PDataFlag = r.Bool()
	m.FitInterval = r.Bool()
	if err := r.Finish(len(body) * 8); err != nil {
		return fmt.Errorf("rtcm3: 1019: %w", err)
	}
	m.Week = gnsstime.ResolveWeek(week, now)
	return nil
}

func (m *GPSEphemeris) Encode() ([]byte, error) {
	w := bitfield.NewWriter(61)
	w.PutUint(12, 1019)
	w.PutUint(6, uint32(m.SatID))
	w.PutUint(10, uint32(m.Week%1024))
	w.PutUint(4, uint32(m.URAIndex))
	w.PutUint(2, uint32(m.CodeOnL2))
	w.PutFixedValue(gpsIDot, m.IDot)
	w.PutUint(8, uint32(m.IODE))
	w.PutFixedValue(gpsToc, m.Toc)
	w.PutFixedValue(gpsAf2, m.Af2)
	w.PutFixedValue(gpsAf1, m.Af1)
	w.PutFixedValue(gpsAf0, m.Af0)
	w.PutUint(10, uint32(m.IODC))
	w.PutFixedValue(gpsCrs, m.Crs)
	w.PutFixedValue(gpsDeltaN, m.DeltaN)
	w.PutFixedValue(gpsM0, m.M0)
	w.PutFixedValue(gpsCuc, m.Cuc)
	w.PutFixedValue(gpsEcc, m.Ecc)
	w.PutFixedValue(gpsCus, m.Cus)
	w.PutFixedValue(gpsSqrtA, m.SqrtA)
	w.PutFixedValue(gpsToe, m.Toe)
	w.PutFixedValue(gpsCic, m.Cic)
	w.PutFixedValue(gpsOmega0, m.Omega0)
	w.PutFixedValue(gpsCis, m.Cis)
	w.PutFixedValue(gpsI0, m.I0)
	w.PutFixedValue(gpsCrc, m.Crc)
	w.PutFixedValue(gpsOmega, m.Omega)
	w.PutFixedValue(gpsOmegaDot, m.OmegaDot)
	w.PutFixedValue(gpsTGD, m.TGD)
	w.PutUint(6, uint32(m.Health))
	w.PutBool(m.L2PDataFlag)
	w.PutBool(m.FitInterval)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Clamped()
}

// GLONASS state vectors are sent in km; they are stored in metres.
var (
	gloVel   = signMag("velocity", 24, p2(20)*1e3)
	gloPos   = signMag("position", 27, p2(11)*1e3)
	gloAcc   = signMag("acceleration", 5, p2(30)*1e3)
	gloGamma = signMag("gamma", 11, p2(40))
	gloTau   = signMag("tau", 22, p2(30))
	gloDTau  = signMag("delta_tau", 5, p2(30))
	gloTauC  = signMag("tau_c", 32, p2(31))
	gloTauGP = signMag("tau_gps", 22, p2(30))
)

// GLONASSEphemeris is message 1020.
type GLONASSEphemeris struct {
	SatID              uint8      `json:"sat_id"`
	FreqChannel        int        `json:"freq_channel"`
	AlmanacHealth      bool       `json:"almanac_health"`
	AlmanacHealthAvail bool       `json:"almanac_health_avail"`
	P1                 uint8      `json:"p1"`
	TkHours            uint8      `json:"tk_hours"`
	TkMinutes          uint8      `json:"tk_minutes"`
	TkSeconds          uint8      `json:"tk_seconds"`
	Bn                 bool       `json:"bn"`
	P2                 bool       `json:"p2"`
	Tb                 uint8      `json:"tb"`
	Velocity           [3]float64 `json:"velocity"`
	Position           [3]float64 `json:"position"`
	Acceleration       [3]float64 `json:"acceleration"`
	P3                 bool       `json:"p3"`
	GammaN             float64    `json:"gamma_n"`
	P                  uint8      `json:"p"`
	LnThird            bool       `json:"ln_third"`
	TauN               float64    `json:"tau_n"`
	DeltaTauN          float64    `json:"delta_tau_n"`
	En                 uint8      `json:"en"`
	P4                 bool       `json:"p4"`
	FT                 uint8      `json:"ft"`
	NT                 uint16     `json:"nt"`
	M                  uint8      `json:"m"`
	AdditionalAvail    bool       `json:"additional_avail"`
	NA                 uint16     `json:"na"`
	TauC               float64    `json:"tau_c"`
	N4                 uint8      `json:"n4"`
	TauGPS             float64    `json:"tau_gps"`
	LnFifth            bool       `json:"ln_fifth"`
}

func (m *GLONASSEphemeris) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }
func (m *GLONASSEphemeris) Key() string             { return "1020" }

// TbSeconds returns the ephemeris reference time of day in seconds (Moscow time).
func (m *GLONASSEphemeris) TbSeconds() float64 { return float64(m.Tb) * 900 }

func (m *GLONASSEphemeris) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	if n := r.Uint(12); n != 1020 {
		return fmt.Errorf("rtcm3: message %d is not 1020", n)
	}
	m.SatID = uint8(r.Uint(6))
	m.FreqChannel = int(r.Uint(5)) - 7
	m.AlmanacHealth = r.Bool()
	m.AlmanacHealthAvail = r.Bool()
	m.P1 = uint8(r.Uint(2))
	m.TkHours = uint8(r.Uint(5))
	m.TkMinutes = uint8(r.Uint(6))
	m.TkSeconds = uint8(r.Uint(1)) * 30
	m.Bn = r.Bool()
	m.P2 = r.Bool()
	m.Tb = uint8(r.Uint(7))
	for i := 0; i < 3; i++ {
		m.Velocity[i] = val(r.Fixed(gloVel))
		m.Position[i] = val(r.Fixed(gloPos))
		m.Acceleration[i] = val(r.Fixed(gloAcc))
	}
	m.P3 = r.Bool()
	m.GammaN = val(r.Fixed(gloGamma))
	m.P = uint8(r.Uint(2))
	m.LnThird = r.Bool()
	m.TauN = val(r.Fixed(gloTau))
	m.DeltaTauN = val(r.Fixed(gloDTau))
	m.En = uint8(r.Uint(5))
	m.P4 = r.Bool()
	m.FT = uint8(r.Uint(4))
	m.NT = uint16(r.Uint(11))
	m.M = uint8(r.Uint(2))
	m.AdditionalAvail = r.Bool()
	m.NA = uint16(r.Uint(11))
	m.TauC = val(r.Fixed(gloTauC))
	m.N4 = uint8(r.Uint(5))
	m.TauGPS = val(r.Fixed(gloTauGP))
	m.LnFifth = r.Bool()
	r.Skip(7)
	if err := r.Finish(len(body) * 8); err != nil {
		return fmt.Errorf("rtcm3: 1020: %w", err)
	}
	return nil
}

func (m *GLONASSEphemeris) Encode() ([]byte, error) {
	w := bitfield.NewWriter(45)
	w.PutUint(12, 1020)
	w.PutUint(6, uint32(m.SatID))
	w.PutUint(5, uint32(m.FreqChannel+7))
	w.PutBool(m.AlmanacHealth)
	w.PutBool(m.AlmanacHealthAvail)
	w.PutUint(2, uint32(m.P1))
	w.PutUint(5, uint32(m.TkHours))
	w.PutUint(6, uint32(m.TkMinutes))
	w.PutBool(m.TkSeconds >= 30)
	w.PutBool(m.Bn)
	w.PutBool(m.P2)
	w.PutUint(7, uint32(m.Tb))
	for i := 0; i < 3; i++ {
		w.PutFixedValue(gloVel, m.Velocity[i])
		w.PutFixedValue(gloPos, m.Position[i])
		w.PutFixedValue(gloAcc, m.Acceleration[i])
	}
	w.PutBool(m.P3)
	w.PutFixedValue(gloGamma, m.GammaN)
	w.PutUint(2, uint32(m.P))
	w.PutBool(m.LnThird)
	w.PutFixedValue(gloTau, m.TauN)
	w.PutFixedValue(gloDTau, m.DeltaTauN)
	w.PutUint(5, uint32(m.En))
	w.PutBool(m.P4)
	w.PutUint(4, uint32(m.FT))
	w.PutUint(11, uint32(m.NT))
	w.PutUint(2, uint32(m.M))
	w.PutBool(m.AdditionalAvail)
	w.PutUint(11, uint32(m.NA))
	w.PutFixedValue(gloTauC, m.TauC)
	w.PutUint(5, uint32(m.N4))
	w.PutFixedValue(gloTauGP, m.TauGPS)
	w.PutBool(m.LnFifth)
	w.PutUint(7, 0)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Clamped()
}
