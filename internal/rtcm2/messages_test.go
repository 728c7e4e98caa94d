package rtcm2

import (
	"bytes"
	"testing"
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
	"gnssrx/internal/gnsstime"
)

func fp(v float64) *float64 { return &v }

func decodeStream(t *testing.T, stream []byte) gnss.Message {
	t.Helper()
	var c gnss.Collector
	p := NewParser(&c, gnss.WithClock(testClock))
	if n := feedAll(p, stream); n != 1 || len(c.Errors) != 0 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
	return c.Messages[0]
}

func roundTrip(t *testing.T, m gnss.Encoder) gnss.Message {
	t.Helper()
	stream, err := EncodeFrame(m)
	if err != nil {
		t.Fatalf("EncodeFrame(%s) error: %v", m.Key(), err)
	}
	return decodeStream(t, stream)
}

func TestCorrections_Golden(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	feedAll(p, mustHex(t, chainedStream))
	m := c.Messages[0].(*Corrections)
	if m.Header.Type != 1 || m.Header.ZCount != 1001 || m.Header.Seq != 3 || m.Header.Words != 4 {
		t.Fatalf("header=%+v", m.Header)
	}
	if len(m.Corrections) != 2 {
		t.Fatalf("corrections=%d want 2", len(m.Corrections))
	}
	a, b := m.Corrections[0], m.Corrections[1]
	if a.SatID != 5 || a.LargeScale || a.UDRE != 0 || a.IOD != 77 {
		t.Fatalf("first=%+v", a)
	}
	if a.PRC == nil || !near(*a.PRC, -12.34, 1e-9) || a.RRC == nil || !near(*a.RRC, 0.012, 1e-9) {
		t.Fatalf("first prc=%v rrc=%v", a.PRC, a.RRC)
	}
	if b.SatID != 32 || !b.LargeScale || b.UDRE != 1 || b.IOD != 200 {
		t.Fatalf("second=%+v", b)
	}
	if b.PRC == nil || !near(*b.PRC, 1000, 1e-9) {
		t.Fatalf("second prc=%v", b.PRC)
	}
	if b.RRC != nil {
		t.Fatalf("second rrc=%v want absent", *b.RRC)
	}

	body, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !bytes.Equal(body, mustHex(t, type1Data)) {
		t.Fatalf("body=%x", body)
	}
}

func TestCorrections_ScaleSelection(t *testing.T) {
	in := &Corrections{
		Header: Header{Type: 9, StationID: 1000, ZCount: 5},
		Corrections: []Correction{
			{SatID: 7, PRC: fp(700), RRC: fp(-0.1), IOD: 1},
			{SatID: 8, PRC: fp(3.5), RRC: fp(0.5), IOD: 2},
			{SatID: 9, PRC: fp(-3.5), RRC: fp(0.2), IOD: 3},
		},
	}
	out := roundTrip(t, in).(*Corrections)
	if out.Key() != "9" || out.Header.Words != 5 || len(out.Corrections) != 3 {
		t.Fatalf("key=%s words=%d n=%d", out.Key(), out.Header.Words, len(out.Corrections))
	}
	if c := out.Corrections[0]; !c.LargeScale || !near(*c.PRC, 700, 0.16) || !near(*c.RRC, -0.1, 0.016) {
		t.Fatalf("first=%+v", c)
	}
	if c := out.Corrections[1]; !c.LargeScale || !near(*c.RRC, 0.5, 0.016) {
		t.Fatalf("second=%+v", c)
	}
	if c := out.Corrections[2]; c.LargeScale || !near(*c.PRC, -3.5, 0.01) || !near(*c.RRC, 0.2, 0.001) {
		t.Fatalf("third=%+v", c)
	}
}

func TestReferenceStation_Encode(t *testing.T) {
	m := &ReferenceStation{
		Header: Header{StationID: 123, ZCount: 1000, Seq: 2},
		ECEF:   geo.ECEF{X: 1114104.60, Y: -4850729.71, Z: 3975521.46},
	}
	stream, err := EncodeFrame(m)
	if err != nil {
		t.Fatalf("EncodeFrame() error: %v", err)
	}
	if !bytes.Equal(stream, mustHex(t, type3Stream)) {
		t.Fatalf("stream=%x", stream)
	}
}

func TestFramer_ChainsParity(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	feedAll(p, mustHex(t, chainedStream))
	var f Framer
	var out []byte
	for _, m := range c.Messages {
		b, err := f.EncodeFrame(m.(gnss.Encoder))
		if err != nil {
			t.Fatalf("EncodeFrame() error: %v", err)
		}
		out = append(out, b...)
	}
	if !bytes.Equal(out, mustHex(t, chainedStream)) {
		t.Fatalf("stream=%x", out)
	}
}

func TestGPSTimeOfWeek_RoundTrip(t *testing.T) {
	in := &GPSTimeOfWeek{Header: Header{StationID: 9, ZCount: 1000}, Week: 2303, HourOfWeek: 100, LeapSeconds: 18}
	out := roundTrip(t, in).(*GPSTimeOfWeek)
	if out.Week != 2303 || out.HourOfWeek != 100 || out.LeapSeconds != 18 {
		t.Fatalf("out=%+v", out)
	}
	if want := gnsstime.GPSTime(2303, 360600); !out.Time().Equal(want) {
		t.Fatalf("time=%s want %s", out.Time(), want)
	}
}

func TestSpecialMessage_RoundTrip(t *testing.T) {
	for _, text := range []string{"RTK BASE ONLINE", "MAINTENANCE 0400", ""} {
		out := roundTrip(t, &SpecialMessage{Header: Header{StationID: 4}, Text: text}).(*SpecialMessage)
		if out.Text != text {
			t.Fatalf("text=%q want %q", out.Text, text)
		}
		if want := (len(text) + 2) / 3; int(out.Header.Words) != want {
			t.Fatalf("words=%d want %d", out.Header.Words, want)
		}
	}
}

func TestSpecialMessage_TooLong(t *testing.T) {
	long := bytes.Repeat([]byte("x"), 3*MaxWords+1)
	if _, err := (&SpecialMessage{Text: string(long)}).Encode(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecode_WrongType(t *testing.T) {
	var m ReferenceStation
	if err := m.Decode(mustHex(t, type1Data), time.Time{}); err == nil {
		t.Fatalf("expected error decoding type 1 as type 3")
	}
}
