package rtcm3

import (
	"bytes"
	"math"
	"reflect"
	"testing"
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

// GPS MSM4, station 100, satellites 5 and 12, signal 1C only.
const msm4Hex = "d300264320645265c000000004080000000000002000000068c97000c80fa2000009c41ff63c79b6cccf158b"

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func fp(v float64) *float64 { return &v }

func u8p(v uint8) *uint8 { return &v }

func decodeFrame(t *testing.T, frame []byte) gnss.Message {
	t.Helper()
	var c gnss.Collector
	p := NewParser(&c, gnss.WithClock(testClock))
	if n := feedAll(p, frame); n != 1 {
		t.Fatalf("completions=%d want 1 (errors=%v)", n, c.Errors)
	}
	if len(c.Errors) != 0 {
		t.Fatalf("errors=%v", c.Errors)
	}
	return c.Messages[0]
}

func roundTrip(t *testing.T, m gnss.Encoder) gnss.Message {
	t.Helper()
	frame, err := EncodeFrame(m)
	if err != nil {
		t.Fatalf("EncodeFrame(%s) error: %v", m.Key(), err)
	}
	return decodeFrame(t, frame)
}

func TestMSM4_TwoSatellitesOneSignal(t *testing.T) {
	m, ok := decodeFrame(t, mustHex(t, msm4Hex)).(*MSM)
	if !ok {
		t.Fatalf("not an MSM")
	}
	if m.Number != 1074 || m.System != SystemGPS || m.Level != 4 || m.Header.StationID != 100 {
		t.Fatalf("header=%+v number=%d", m.Header, m.Number)
	}
	if len(m.Satellites) != 2 {
		t.Fatalf("satellites=%d want 2", len(m.Satellites))
	}
	for _, s := range m.Satellites {
		if len(s.Signals) > 1 {
			t.Fatalf("satellite %d has %d signals", s.ID, len(s.Signals))
		}
	}
	s5, s12 := m.Satellites[0], m.Satellites[1]
	if s5.ID != 5 || s12.ID != 12 {
		t.Fatalf("ids=%d,%d want 5,12", s5.ID, s12.ID)
	}

	rough5 := 70.5 * RangeMs
	sig := s5.Signals[0]
	if sig.ID != 2 || sig.Code != "1C" {
		t.Fatalf("signal=%d %q", sig.ID, sig.Code)
	}
	if sig.Pseudorange == nil || !near(*sig.Pseudorange, rough5+1000*p2(24)*RangeMs, 1e-6) {
		t.Fatalf("pseudorange=%v", sig.Pseudorange)
	}
	if sig.PhaseRange == nil || !near(*sig.PhaseRange, rough5+20000*p2(29)*RangeMs, 1e-6) {
		t.Fatalf("phaserange=%v", sig.PhaseRange)
	}
	if sig.CarrierCycles == nil || !near(*sig.CarrierCycles, *sig.PhaseRange*FreqL1/SpeedOfLight, 1e-6) {
		t.Fatalf("cycles=%v", sig.CarrierCycles)
	}
	if sig.LockTimeMs != 524288 || sig.HalfCycle || sig.CNR == nil || *sig.CNR != 45 {
		t.Fatalf("lock=%d half=%v cnr=%v", sig.LockTimeMs, sig.HalfCycle, sig.CNR)
	}

	sig = s12.Signals[0]
	if sig.Pseudorange != nil {
		t.Fatalf("expected absent pseudorange, got %v", *sig.Pseudorange)
	}
	rough12 := (75 + 100.0/1024) * RangeMs
	if sig.PhaseRange == nil || !near(*sig.PhaseRange, rough12-5000*p2(29)*RangeMs, 1e-6) {
		t.Fatalf("phaserange=%v", sig.PhaseRange)
	}
	if sig.LockTimeMs != 128 || !sig.HalfCycle || *sig.CNR != 38 {
		t.Fatalf("lock=%d half=%v cnr=%v", sig.LockTimeMs, sig.HalfCycle, *sig.CNR)
	}

	want := time.Date(2024, 2, 28, 23, 59, 42, 0, time.UTC)
	if !m.Epoch.Equal(want) {
		t.Fatalf("epoch=%s want %s", m.Epoch, want)
	}

	// Re-encoding the decoded message reproduces the frame.
	frame, err := EncodeFrame(m)
	if err != nil {
		t.Fatalf("EncodeFrame() error: %v", err)
	}
	if !bytes.Equal(frame, mustHex(t, msm4Hex)) {
		t.Fatalf("re-encoded %x", frame)
	}
}

func TestMSM7_GLONASSRoundTrip(t *testing.T) {
	in := &MSM{
		System: SystemGLONASS,
		Level:  7,
		Header: MSMHeader{StationID: 7, EpochMs: 32400000, DayOfWeek: 5, IODS: 2, ClockSteering: 1},
		Satellites: []MSMSatellite{
			{
				ID: 10, RoughRange: fp(21500123.4), ExtendedInfo: u8p(2), RoughRate: fp(-321),
				Signals: []MSMSignal{
					{ID: 2, Pseudorange: fp(21500150.25), PhaseRange: fp(21500150.75), PhaseRangeRate: fp(-321.1234), LockIndicator: 500, CNR: fp(41.5)},
				},
			},
			{
				ID: 3, RoughRange: fp(19100000.123), ExtendedInfo: u8p(8), RoughRate: fp(12),
				Signals: []MSMSignal{
					{ID: 2, Pseudorange: fp(19100001.5), PhaseRange: fp(19100001.7), PhaseRangeRate: fp(12.3456), LockIndicator: 704, HalfCycle: true, CNR: fp(44.25)},
					{ID: 8, Pseudorange: fp(19100003.25), LockIndicator: 63, CNR: fp(38)},
				},
			},
		},
	}
	out, ok := roundTrip(t, in).(*MSM)
	if !ok {
		t.Fatalf("not an MSM")
	}
	if out.Number != 1087 || out.Header != in.Header {
		t.Fatalf("number=%d header=%+v", out.Number, out.Header)
	}
	if len(out.Satellites) != 2 || out.Satellites[0].ID != 3 || out.Satellites[1].ID != 10 {
		t.Fatalf("satellites=%+v", out.Satellites)
	}
	s3 := out.Satellites[0]
	if len(s3.Signals) != 2 {
		t.Fatalf("sat 3 signals=%d", len(s3.Signals))
	}
	g1 := s3.Signals[0]
	if !near(*g1.Pseudorange, 19100001.5, 1e-3) || !near(*g1.PhaseRange, 19100001.7, 1e-3) {
		t.Fatalf("pr=%v cp=%v", *g1.Pseudorange, *g1.PhaseRange)
	}
	if !near(*g1.PhaseRangeRate, 12.3456, 1e-4) || *g1.CNR != 44.25 || !g1.HalfCycle || g1.LockTimeMs != 67108864 {
		t.Fatalf("signal=%+v", g1)
	}
	// k = 8 - 7 = 1
	wantCycles := *g1.PhaseRange * (FreqG1 + FreqDG1) / SpeedOfLight
	if g1.CarrierCycles == nil || !near(*g1.CarrierCycles, wantCycles, 1e-6) {
		t.Fatalf("cycles=%v want %v", g1.CarrierCycles, wantCycles)
	}
	if g1.Doppler == nil || !near(*g1.Doppler, -*g1.PhaseRangeRate*(FreqG1+FreqDG1)/SpeedOfLight, 1e-6) {
		t.Fatalf("doppler=%v", g1.Doppler)
	}
	g2 := s3.Signals[1]
	if g2.Code != "2C" || g2.PhaseRange != nil || g2.PhaseRangeRate != nil || !near(*g2.Pseudorange, 19100003.25, 1e-3) {
		t.Fatalf("signal 2C=%+v", g2)
	}
	s10 := out.Satellites[1]
	if !near(*s10.Signals[0].Pseudorange, 21500150.25, 1e-3) || *s10.RoughRate != -321 {
		t.Fatalf("sat 10=%+v", s10)
	}
	if want := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC); !out.Epoch.Equal(want) {
		t.Fatalf("epoch=%s want %s", out.Epoch, want)
	}

	// Decoded values re-encode to the same bytes.
	a, err := out.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	again := &MSM{}
	if err := again.Decode(a, testNow); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	b, err := again.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("re-encode differs")
	}
}

func TestMSM_TooManyCells(t *testing.T) {
	m := &MSM{System: SystemGPS, Level: 4}
	for i := 1; i <= 9; i++ {
		sat := MSMSatellite{ID: i, RoughRange: fp(2e7)}
		for j := 1; j <= 8; j++ {
			sat.Signals = append(sat.Signals, MSMSignal{ID: j})
		}
		m.Satellites = append(m.Satellites, sat)
	}
	if _, err := m.Encode(); err == nil {
		t.Fatalf("expected cell limit error")
	}
}

func TestLockTimeMs(t *testing.T) {
	cases := []struct {
		ind      uint16
		extended bool
		want     uint32
	}{
		{0, false, 0},
		{1, false, 32},
		{15, false, 524288},
		{63, true, 63},
		{64, true, 64},
		{95, true, 126},
		{96, true, 128},
		{128, true, 256},
		{703, true, 1048576*703 - 671088640},
		{704, true, 67108864},
		{800, true, 0},
	}
	for _, c := range cases {
		if got := lockTimeMs(c.ind, c.extended); got != c.want {
			t.Fatalf("lockTimeMs(%d,%v)=%d want %d", c.ind, c.extended, got, c.want)
		}
	}
}

func TestStation1006_RoundTrip(t *testing.T) {
	in := &StationARP{
		StationID:        4095,
		ITRFYear:         14,
		GPS:              true,
		GLONASS:          true,
		Galileo:          true,
		ReferenceStation: true,
		QuarterCycle:     2,
		ECEF:             geo.ECEF{X: 3978236.7552, Y: -9812.6934, Z: 4968836.7745},
		AntennaHeight:    fp(1.5432),
	}
	frame, err := EncodeFrame(in)
	if err != nil {
		t.Fatalf("EncodeFrame() error: %v", err)
	}
	if len(frame) != 3+21+3 {
		t.Fatalf("frame length=%d want 27", len(frame))
	}
	out := decodeFrame(t, frame).(*StationARP)
	if out.Number != 1006 || out.StationID != 4095 || out.ITRFYear != 14 || !out.Galileo || out.QuarterCycle != 2 {
		t.Fatalf("out=%+v", out)
	}
	if !near(out.ECEF.X, in.ECEF.X, 5e-5) || !near(out.ECEF.Y, in.ECEF.Y, 5e-5) || !near(out.ECEF.Z, in.ECEF.Z, 5e-5) {
		t.Fatalf("ecef=%+v", out.ECEF)
	}
	if out.AntennaHeight == nil || !near(*out.AntennaHeight, 1.5432, 5e-5) {
		t.Fatalf("height=%v", out.AntennaHeight)
	}
	if !near(out.Position.LatDeg, 51.505465190, 1e-6) {
		t.Fatalf("lat=%v", out.Position.LatDeg)
	}
}

func TestAntennaDescriptor_RoundTrip(t *testing.T) {
	in := &AntennaDescriptor{
		Number:         1033,
		StationID:      12,
		Antenna:        "TRM59800.00     NONE",
		SetupID:        1,
		AntennaSerial:  "5000118",
		Receiver:       "SEPT POLARX5",
		Firmware:       "5.4.0",
		ReceiverSerial: "3047123",
	}
	out := roundTrip(t, in).(*AntennaDescriptor)
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %+v want %+v", out, in)
	}
	short := &AntennaDescriptor{Number: 1007, StationID: 1, Antenna: "ADVNULLANTENNA", SetupID: 3}
	if got := roundTrip(t, short).(*AntennaDescriptor); !reflect.DeepEqual(short, got) {
		t.Fatalf("got %+v want %+v", got, short)
	}
}

func TestGPSEphemeris_RoundTrip(t *testing.T) {
	in := &GPSEphemeris{
		SatID: 17, Week: 2303, URAIndex: 2, CodeOnL2: 1,
		IDot: 1.2e-10, IODE: 45, Toc: 432000, Af2: 0, Af1: -5.1e-12, Af0: 3.4e-4,
		IODC: 301, Crs: -12.5, DeltaN: 4.5e-9, M0: 1.234, Cuc: -6.1e-7, Ecc: 0.0123,
		Cus: 7.2e-6, SqrtA: 5153.62, Toe: 432000, Cic: 1.1e-7, Omega0: -2.5, Cis: -3.3e-8,
		I0: 0.96, Crc: 250.1, Omega: 0.75, OmegaDot: -8.1e-9, TGD: -1.1e-8, Health: 0,
		FitInterval: true,
	}
	frame, err := EncodeFrame(in)
	if err != nil {
		t.Fatalf("EncodeFrame() error: %v", err)
	}
	if len(frame) != 3+61+3 {
		t.Fatalf("frame length=%d want 67", len(frame))
	}
	out := decodeFrame(t, frame).(*GPSEphemeris)
	if out.Week != 2303 || out.SatID != 17 || out.IODE != 45 || out.IODC != 301 || !out.FitInterval {
		t.Fatalf("out=%+v", out)
	}
	checks := []struct {
		name      string
		got, want float64
		tol       float64
	}{
		{"sqrtA", out.SqrtA, in.SqrtA, p2(19)},
		{"e", out.Ecc, in.Ecc, p2(33)},
		{"m0", out.M0, in.M0, p2(31) * math.Pi},
		{"omega0", out.Omega0, in.Omega0, p2(31) * math.Pi},
		{"i0", out.I0, in.I0, p2(31) * math.Pi},
		{"af0", out.Af0, in.Af0, p2(31)},
		{"af1", out.Af1, in.Af1, p2(43)},
		{"crs", out.Crs, in.Crs, p2(5)},
		{"crc", out.Crc, in.Crc, p2(5)},
		{"omegaDot", out.OmegaDot, in.OmegaDot, p2(43) * math.Pi},
		{"toe", out.Toe, in.Toe, 16},
	}
	for _, c := range checks {
		if !near(c.got, c.want, c.tol/2+1e-15) {
			t.Fatalf("%s=%v want %v", c.name, c.got, c.want)
		}
	}
}

func TestGLONASSEphemeris_RoundTrip(t *testing.T) {
	in := &GLONASSEphemeris{
		SatID: 9, FreqChannel: -2, AlmanacHealth: true, AlmanacHealthAvail: true,
		TkHours: 13, TkMinutes: 44, TkSeconds: 30, Tb: 55,
		Velocity:     [3]float64{-1234.5678, 2345.25, -3001.125},
		Position:     [3]float64{-14123456.5, 8123456.25, 19876543.75},
		Acceleration: [3]float64{1.862645149230957e-06, 0, -9.313225746154785e-07},
		GammaN:       9.094947017729282e-13, TauN: -2.1e-5, DeltaTauN: 4.656612873077393e-09,
		En: 3, FT: 2, NT: 1200, M: 1, AdditionalAvail: true, NA: 1199, TauC: -1.5e-8, N4: 7, TauGPS: 2.2e-8,
	}
	out := roundTrip(t, in).(*GLONASSEphemeris)
	if out.FreqChannel != -2 || out.TkSeconds != 30 || out.Tb != 55 || out.NT != 1200 || out.N4 != 7 {
		t.Fatalf("out=%+v", out)
	}
	for i := 0; i < 3; i++ {
		if !near(out.Velocity[i], in.Velocity[i], p2(20)*1e3) || !near(out.Position[i], in.Position[i], p2(11)*1e3) {
			t.Fatalf("axis %d vel=%v pos=%v", i, out.Velocity[i], out.Position[i])
		}
		if !near(out.Acceleration[i], in.Acceleration[i], 1e-12) {
			t.Fatalf("axis %d acc=%v want %v", i, out.Acceleration[i], in.Acceleration[i])
		}
	}
	if !near(out.TauN, in.TauN, p2(30)) || !near(out.GammaN, in.GammaN, 1e-20) || !near(out.TauC, in.TauC, p2(31)) {
		t.Fatalf("tau=%v gamma=%v tauc=%v", out.TauN, out.GammaN, out.TauC)
	}
}

func TestGLONASSBiases_RoundTrip(t *testing.T) {
	in := &GLONASSBiases{StationID: 33, Aligned: true, Present: [4]bool{true, false, true, false}, Biases: [4]*float64{fp(-1.24), nil, nil, nil}}
	out := roundTrip(t, in).(*GLONASSBiases)
	if out.Present != in.Present || out.Biases[0] == nil || !near(*out.Biases[0], -1.24, 0.01) {
		t.Fatalf("out=%+v", out)
	}
	if out.Biases[2] != nil {
		t.Fatalf("expected invalid bias for L2 C/A")
	}
}

func TestRegistry_Contents(t *testing.T) {
	r := NewRegistry()
	for _, n := range []uint16{1005, 1006, 1007, 1008, 1019, 1020, 1033, 1074, 1077, 1087, 1097, 1107, 1117, 1124, 1127, 1230} {
		if !r.Has(n) {
			t.Fatalf("registry missing %d", n)
		}
	}
	if r.Has(1071) {
		t.Fatalf("MSM1 should not be registered")
	}
}
