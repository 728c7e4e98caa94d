package sbf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"gnssrx/internal/gnss"
)

// EndOfPVT at TOW 345600 s, week 2304.
const endOfPVTHex = "24402994211710000070991400090000"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	return b
}

func feedAll(p gnss.Parser, data []byte) int {
	n := 0
	for _, b := range data {
		if p.Feed(b) {
			n++
		}
	}
	return n
}

func u32p(v uint32) *uint32 { return &v }
func u16p(v uint16) *uint16 { return &v }
func u8p(v uint8) *uint8    { return &v }
func fp(v float64) *float64 { return &v }

func TestParser_EndOfPVT(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	frame := mustHex(t, endOfPVTHex)
	if n := feedAll(p, append([]byte("noise$"), frame...)); n != 1 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
	if len(c.Errors) != 0 {
		t.Fatalf("errors=%v", c.Errors)
	}
	m, ok := c.Messages[0].(*EndOfPVT)
	if !ok {
		t.Fatalf("message type %T", c.Messages[0])
	}
	ts, ok := m.Time()
	if !ok || !ts.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("time=%v ok=%v", ts, ok)
	}
	if !bytes.Equal(c.Frames[0], frame) {
		t.Fatalf("frame=%x", c.Frames[0])
	}

	out, err := EncodeFrame(m)
	if err != nil || !bytes.Equal(out, frame) {
		t.Fatalf("encode=%x err=%v", out, err)
	}
}

func TestParser_IgnoresNMEA(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	feedAll(p, []byte("$GPGLL,5057.970,N,00146.110,E,142451,A*27\r\n$$@"))
	if len(c.Errors) != 0 || p.n != 2 {
		t.Fatalf("errors=%v n=%d", c.Errors, p.n)
	}
}

func TestParser_CRCMismatch(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	frame := mustHex(t, endOfPVTHex)
	frame[10] ^= 0x01
	if n := feedAll(p, frame); n != 0 {
		t.Fatalf("completions=%d", n)
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrChecksumMismatch) || c.Errors[0].Key != "5921" {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_BadLength(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	frame := mustHex(t, endOfPVTHex)
	frame[6] = 15
	feedAll(p, frame)
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrSyncLost) {
		t.Fatalf("errors=%v", c.Errors)
	}
	c.Reset()
	if n := feedAll(p, mustHex(t, endOfPVTHex)); n != 1 || len(c.Errors) != 0 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
}

func TestParser_Overflow(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c, gnss.WithMaxPayload(64))
	body, err := (&PVTGeodetic{}).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frame, err := Frame(BlockPVTGeodetic, pvtRevision, body)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	feedAll(p, frame)
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrBufferOverflow) || c.Errors[0].Key != "4007" {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_UnknownAndShortBlock(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	unknown, _ := Frame(4027, 0, make([]byte, 12))
	short, _ := Frame(BlockPVTCartesian, pvtRevision, make([]byte, 40))
	if n := feedAll(p, append(unknown, short...)); n != 2 {
		t.Fatalf("completions=%d", n)
	}
	if len(c.Errors) != 2 {
		t.Fatalf("errors=%v", c.Errors)
	}
	if !errors.Is(c.Errors[0], gnss.ErrUnknownMessageType) || c.Errors[0].Key != "4027" {
		t.Fatalf("err0=%v", c.Errors[0])
	}
	if !errors.Is(c.Errors[1], gnss.ErrDecodeFailure) || c.Errors[1].Key != "4006" {
		t.Fatalf("err1=%v", c.Errors[1])
	}
}

func TestParser_Reset(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	frame := mustHex(t, endOfPVTHex)
	feedAll(p, frame[:9])
	p.Reset()
	p.Reset()
	if n := feedAll(p, frame); n != 1 || len(c.Errors) != 0 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
}

func TestFrame_PaddingAndRevision(t *testing.T) {
	frame, err := Frame(BlockPVTCartesian, 2, make([]byte, 87))
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if len(frame) != 96 || frame[6] != 96 || frame[5]>>5 != 2 {
		t.Fatalf("frame len=%d header=%x", len(frame), frame[:8])
	}
	if _, err := Frame(0x2000, 0, nil); err == nil {
		t.Fatalf("expected error for block number out of range")
	}
	if _, err := Frame(1, 0, make([]byte, MaxLength)); err == nil {
		t.Fatalf("expected error for oversized block")
	}
}

func roundTrip(t *testing.T, b Block) gnss.Message {
	t.Helper()
	frame, err := EncodeFrame(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedAll(p, frame); n != 1 || len(c.Messages) != 1 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
	return c.Messages[0]
}

func TestPVTGeodetic_RoundTrip(t *testing.T) {
	in := &PVTGeodetic{
		PVTSolution: PVTSolution{
			TimeStamp:  TimeStamp{TOW: u32p(43200000), WNc: u16p(2304)},
			Mode:       ModeRTKFixed,
			Undulation: fp(47.5),
			RxClkBias:  fp(0.125),
			NrSV:       u8p(21),
			HAccuracy:  u16p(3),
			Misc:       0x10,
		},
		Lat:    fp(51.5 * math.Pi / 180),
		Lon:    fp(-0.125 * math.Pi / 180),
		Height: fp(62.25),
		Vn:     fp(0.5),
		Ve:     fp(-0.25),
		Vu:     fp(0),
	}
	got, ok := roundTrip(t, in).(*PVTGeodetic)
	if !ok {
		t.Fatalf("wrong type")
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v\nwant %+v", got, in)
	}
	if got.COG != nil || got.ReferenceID != nil || got.Latency != nil {
		t.Fatalf("do-not-use fields decoded: %+v", got.PVTSolution)
	}
	lla, ok := got.LLA()
	if !ok || math.Abs(lla.LatDeg-51.5) > 1e-12 || math.Abs(lla.LonDeg+0.125) > 1e-12 {
		t.Fatalf("lla=%+v", lla)
	}
	if h, ok := got.HAccuracyM(); !ok || h != 0.03 {
		t.Fatalf("hacc=%v", h)
	}
	if !got.HasFix() || got.ModeType() != ModeRTKFixed {
		t.Fatalf("mode=%d", got.Mode)
	}
}

func TestPVTCartesian_DoNotUse(t *testing.T) {
	in := &PVTCartesian{PVTSolution: PVTSolution{Error: 1}}
	got := roundTrip(t, in).(*PVTCartesian)
	if got.X != nil || got.Vx != nil || got.TOW != nil || got.NrSV != nil {
		t.Fatalf("got %+v", got)
	}
	if _, ok := got.ECEF(); ok {
		t.Fatalf("ECEF valid without position")
	}
	if _, ok := got.Time(); ok {
		t.Fatalf("time valid without TOW")
	}
	if got.HasFix() {
		t.Fatalf("fix reported for no-PVT block")
	}

	in.X, in.Y, in.Z = fp(3978000.5), fp(-12000.25), fp(4968000.125)
	got = roundTrip(t, in).(*PVTCartesian)
	if e, ok := got.ECEF(); !ok || e.X != 3978000.5 || e.Z != 4968000.125 {
		t.Fatalf("ecef=%+v", e)
	}
}

func TestReceiverTime_RoundTrip(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)
	ls := int8(18)
	in := &ReceiverTime{
		TimeStamp: TimeStamp{TOW: u32p(477033000), WNc: u16p(2303)},
		UTC:       &utc,
		DeltaLS:   &ls,
		SyncLevel: 7,
	}
	got := roundTrip(t, in).(*ReceiverTime)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v want %+v", got, in)
	}

	empty := roundTrip(t, &ReceiverTime{}).(*ReceiverTime)
	if empty.UTC != nil || empty.DeltaLS != nil {
		t.Fatalf("empty=%+v", empty)
	}

	old := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := (&ReceiverTime{UTC: &old}).Encode(); err == nil {
		t.Fatalf("expected error for year 1999")
	}
}

func TestRegistry_Contents(t *testing.T) {
	r := NewRegistry()
	for _, id := range []uint16{BlockPVTCartesian, BlockPVTGeodetic, BlockReceiverTime, BlockEndOfPVT} {
		if !r.Has(id) {
			t.Fatalf("missing block %d", id)
		}
	}
	if r.Len() != 4 {
		t.Fatalf("len=%d", r.Len())
	}
}
