package rtcm3

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"
	"time"

	"gnssrx/internal/gnss"
)

// Reference station example from the RTCM 10403 standard.
const station1005Hex = "d300133ed7d30202980edeef34b4bd62ac0941986f33360b98"

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

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

func TestParser_Station1005(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c, gnss.WithClock(testClock))
	if n := feedAll(p, mustHex(t, station1005Hex)); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", c.Errors)
	}
	if len(c.Messages) != 1 || len(c.Frames) != 1 {
		t.Fatalf("messages=%d frames=%d want 1/1", len(c.Messages), len(c.Frames))
	}
	m, ok := c.Messages[0].(*StationARP)
	if !ok {
		t.Fatalf("message type %T", c.Messages[0])
	}
	if m.Key() != "1005" || m.StationID != 2003 || !m.GPS || m.GLONASS {
		t.Fatalf("unexpected header: %+v", m)
	}
	if math.Abs(m.ECEF.X-1114104.5999) > 1e-9 || math.Abs(m.ECEF.Y-(-4850729.7108)) > 1e-9 || math.Abs(m.ECEF.Z-3975521.4643) > 1e-9 {
		t.Fatalf("ecef=%+v", m.ECEF)
	}
	if math.Abs(m.Position.LatDeg-38.804759430) > 1e-6 || math.Abs(m.Position.LonDeg-(-77.064773600)) > 1e-6 {
		t.Fatalf("position=%+v", m.Position)
	}
	if math.Abs(m.Position.AltM-114.561138) > 1e-3 {
		t.Fatalf("alt=%.6f", m.Position.AltM)
	}
}

func TestParser_ChecksumMismatch(t *testing.T) {
	frame := mustHex(t, station1005Hex)
	frame[len(frame)-1] ^= 0x01
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedAll(p, frame); n != 0 {
		t.Fatalf("completions=%d want 0", n)
	}
	if len(c.Messages) != 0 || len(c.Frames) != 0 {
		t.Fatalf("dispatched despite bad crc")
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrChecksumMismatch) {
		t.Fatalf("errors=%v", c.Errors)
	}
	if c.Errors[0].Key != "1005" {
		t.Fatalf("key=%q want 1005", c.Errors[0].Key)
	}
}

func TestParser_PayloadBitFlipsDetected(t *testing.T) {
	good := mustHex(t, station1005Hex)
	for i := 3; i < len(good); i++ {
		for bit := 0; bit < 8; bit++ {
			frame := append([]byte(nil), good...)
			frame[i] ^= 1 << uint(bit)
			var c gnss.Collector
			p := NewParser(&c)
			if n := feedAll(p, frame); n != 0 || len(c.Messages) != 0 {
				t.Fatalf("flip byte=%d bit=%d decoded a message", i, bit)
			}
			if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindChecksumMismatch {
				t.Fatalf("flip byte=%d bit=%d errors=%v", i, bit, c.Errors)
			}
			if len(c.Frames) != 0 {
				t.Fatalf("flip byte=%d bit=%d passed a frame to the sink", i, bit)
			}
		}
	}
}

func TestParser_NoiseAndSplitFeeds(t *testing.T) {
	frame := mustHex(t, station1005Hex)
	stream := append([]byte{0x00, 0x42, 0xFF, 0x24}, frame...)
	stream = append(stream, 0x13, 0x37)
	stream = append(stream, frame...)

	var c gnss.Collector
	p := NewParser(&c)
	n := feedAll(p, stream[:10]) + feedAll(p, stream[10:])
	if n != 2 || len(c.Messages) != 2 {
		t.Fatalf("completions=%d messages=%d want 2", n, len(c.Messages))
	}
}

func TestParser_ReservedBitsSyncLost(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	feedAll(p, []byte{Preamble, 0xD3})
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrSyncLost) {
		t.Fatalf("errors=%v", c.Errors)
	}
	// The second 0xD3 restarted sync; the rest of a frame still decodes.
	c.Reset()
	frame := mustHex(t, station1005Hex)
	if n := feedAll(p, frame[1:]); n != 1 || len(c.Messages) != 1 {
		t.Fatalf("completions=%d messages=%d", n, len(c.Messages))
	}
}

func TestParser_ResetIdempotent(t *testing.T) {
	frame := mustHex(t, station1005Hex)
	var c gnss.Collector
	p := NewParser(&c)
	feedAll(p, frame[:12])
	p.Reset()
	p.Reset()
	if n := feedAll(p, frame); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	m := c.Messages[0].(*StationARP)
	if m.StationID != 2003 {
		t.Fatalf("station=%d", m.StationID)
	}
}

func TestParser_UnknownMessageType(t *testing.T) {
	frame, err := Frame([]byte{0xFF, 0xE0, 0x00})
	if err != nil {
		t.Fatalf("Frame() error: %v", err)
	}
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedAll(p, frame); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindUnknownMessageType || c.Errors[0].Key != "4094" {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_DecodeFailureOnShortBody(t *testing.T) {
	body := mustHex(t, station1005Hex)[3:21]
	frame, err := Frame(body[:10])
	if err != nil {
		t.Fatalf("Frame() error: %v", err)
	}
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedAll(p, frame); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindDecodeFailure {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_PayloadWithoutMessageNumber(t *testing.T) {
	for _, body := range [][]byte{nil, {0x3E}} {
		frame, err := Frame(body)
		if err != nil {
			t.Fatalf("Frame() error: %v", err)
		}
		var c gnss.Collector
		p := NewParser(&c)
		if n := feedAll(p, frame); n != 1 {
			t.Fatalf("len=%d completions=%d want 1", len(body), n)
		}
		if len(c.Frames) != 1 || len(c.Messages) != 0 {
			t.Fatalf("len=%d frames=%d messages=%d", len(body), len(c.Frames), len(c.Messages))
		}
		if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindDecodeFailure || c.Errors[0].Key != "" {
			t.Fatalf("len=%d errors=%v", len(body), c.Errors)
		}
	}
}

func TestParser_BufferOverflow(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c, gnss.WithMaxPayload(16))
	feedAll(p, mustHex(t, station1005Hex))
	if len(c.Errors) == 0 || c.Errors[0].Kind != gnss.KindBufferOverflow {
		t.Fatalf("errors=%v", c.Errors)
	}
	if len(c.Messages) != 0 {
		t.Fatalf("unexpected message")
	}
}

func TestFrame_TooLong(t *testing.T) {
	if _, err := Frame(make([]byte, MaxPayload+1)); err == nil {
		t.Fatalf("expected error")
	}
}
