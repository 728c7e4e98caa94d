package status

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
	"gnssrx/internal/nmea"
	"gnssrx/internal/oem"
	"gnssrx/internal/rtcm3"
	"gnssrx/internal/ubx"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(cfg StoreConfig) (*Store, *fakeClock) {
	c := &fakeClock{t: time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)}
	cfg.Clock = c.now
	return NewStore(cfg), c
}

func ptr[T any](v T) *T { return &v }

func TestStore_CountsAndLatest(t *testing.T) {
	s, clk := newTestStore(StoreConfig{})
	s.Frame(gnss.ProtocolNMEA, make([]byte, 40))
	s.Message(&nmea.GLL{Talker: "GP"})
	clk.t = clk.t.Add(time.Second)
	s.Frame(gnss.ProtocolNMEA, make([]byte, 42))
	second := &nmea.GLL{Talker: "GN"}
	s.Message(second)
	s.Error(gnss.Errorf(gnss.ProtocolNMEA, gnss.KindChecksumMismatch, "GGA", "bad"))

	snap := s.Snapshot()
	st := snap.Protocols["nmea"]
	if st.Frames != 2 || st.Bytes != 82 || st.Messages != 2 {
		t.Fatalf("stats=%+v", st)
	}
	if st.Errors["checksum_mismatch"] != 1 || st.LastError == "" {
		t.Fatalf("errors=%v last=%q", st.Errors, st.LastError)
	}
	if len(snap.Messages) != 1 {
		t.Fatalf("entries=%d want 1", len(snap.Messages))
	}
	e := snap.Messages[0]
	if e.Key != "GLL" || e.Count != 2 || e.Message != second {
		t.Fatalf("entry=%+v", e)
	}
	if !e.LastSeen.Equal(clk.t) || !e.FirstSeen.Equal(clk.t.Add(-time.Second)) {
		t.Fatalf("seen first=%v last=%v", e.FirstSeen, e.LastSeen)
	}
}

func TestStore_TTLAndEviction(t *testing.T) {
	s, clk := newTestStore(StoreConfig{MaxEntries: 2, TTL: time.Minute})
	s.Message(&nmea.GLL{})
	clk.t = clk.t.Add(time.Second)
	s.Message(&nmea.VTG{})
	clk.t = clk.t.Add(time.Second)
	s.Message(&nmea.ZDA{})

	snap := s.Snapshot()
	if len(snap.Messages) != 2 || snap.Messages[0].Key != "VTG" || snap.Messages[1].Key != "ZDA" {
		t.Fatalf("messages=%+v", snap.Messages)
	}

	clk.t = clk.t.Add(time.Minute - 500*time.Millisecond)
	snap = s.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].Key != "ZDA" {
		t.Fatalf("after ttl messages=%+v", snap.Messages)
	}
}

func TestStore_FixFromNavPVT(t *testing.T) {
	s, _ := newTestStore(StoreConfig{})
	s.Message(&ubx.NavPVT{
		Year: 2024, Month: 3, Day: 7, Hour: 12, Valid: 0x03,
		FixType: 3, Flags: 0x01, NumSV: 14,
		Lat: 473977418, Lon: 85455939, Height: 488123, HAcc: 1500,
	})
	f := s.Snapshot().Fix
	if f == nil || !f.Valid || f.Source != "ubx NAV-PVT" {
		t.Fatalf("fix=%+v", f)
	}
	if math.Abs(f.Position.LatDeg-47.3977418) > 1e-9 || math.Abs(f.Position.AltM-488.123) > 1e-9 {
		t.Fatalf("position=%+v", f.Position)
	}
	if math.Abs(*f.AccuracyM-1.5) > 1e-12 || *f.NumSV != 14 || f.UTC == nil || f.UTC.Hour() != 12 {
		t.Fatalf("fix=%+v", f)
	}
}

func TestStore_FixFromGGA(t *testing.T) {
	s, _ := newTestStore(StoreConfig{})
	s.Message(&nmea.GGA{Talker: "GN"})
	if s.Snapshot().Fix != nil {
		t.Fatalf("empty GGA produced a fix")
	}
	s.Message(&nmea.GGA{
		Talker: "GN", Lat: ptr(48.1173), Lon: ptr(11.5167),
		Quality: ptr(nmea.QualityInvalid), AltitudeM: ptr(545.4), GeoidSepM: ptr(46.9),
	})
	f := s.Snapshot().Fix
	if f == nil || f.Valid || f.Source != "nmea GNGGA" {
		t.Fatalf("fix=%+v", f)
	}
	if math.Abs(f.Position.AltM-592.3) > 1e-9 {
		t.Fatalf("alt=%v want 592.3", f.Position.AltM)
	}
}

func TestStore_FixFromBestPos(t *testing.T) {
	s, _ := newTestStore(StoreConfig{})
	bp := &oem.BestPos{}
	bp.SolStatus = oem.SolComputed
	bp.PosType = oem.PosSingle
	bp.Lat, bp.Lon, bp.Height = 51.1, -114.0, 1000
	bp.Undulation = -17
	bp.LatSigma, bp.LonSigma = 3, 4
	bp.NumSolnSVs = 9
	s.Message(bp)
	f := s.Snapshot().Fix
	if f == nil || !f.Valid || f.Position.AltM != 983 || *f.AccuracyM != 5 || *f.NumSV != 9 {
		t.Fatalf("fix=%+v", f)
	}
}

func TestStore_SurveyAndBase(t *testing.T) {
	s, _ := newTestStore(StoreConfig{})
	s.Message(&ubx.NavSVIN{Dur: 90, MeanX: 100, MeanXHP: 5, MeanAcc: 25000, Active: 1})
	ecef := geo.ECEF{X: 4444030.8, Y: 3085671.2, Z: 3366658.4}
	s.Message(&rtcm3.StationARP{Number: 1005, StationID: 2003, ECEF: ecef, Position: ecef.ToLLA()})

	snap := s.Snapshot()
	if snap.Survey == nil || !snap.Survey.Active || snap.Survey.Valid || snap.Survey.Duration != 90*time.Second {
		t.Fatalf("survey=%+v", snap.Survey)
	}
	if math.Abs(snap.Survey.AccuracyM-2.5) > 1e-12 || math.Abs(snap.Survey.Mean.X-1.0005) > 1e-12 {
		t.Fatalf("survey=%+v", snap.Survey)
	}
	if snap.Base == nil || snap.Base.StationID != 2003 || snap.Base.ECEF != ecef {
		t.Fatalf("base=%+v", snap.Base)
	}
}

func TestStore_SourceAndJSON(t *testing.T) {
	s, _ := newTestStore(StoreConfig{})
	s.SetSource("/dev/ttyACM0", false, errors.New("serial open failed"))
	s.SetSource("/dev/ttyACM0", true, nil)
	s.Message(&nmea.GLL{Talker: "GP", Status: "A"})

	b, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got["source"] != "/dev/ttyACM0" || got["source_up"] != true || got["last_error"] != "serial open failed" {
		t.Fatalf("got=%v", got)
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["key"] != "GLL" {
		t.Fatalf("messages=%v", msgs)
	}
}
