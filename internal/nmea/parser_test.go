package nmea

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"gnssrx/internal/gnss"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", payload, ck)
}

func feedString(p gnss.Parser, s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if p.Feed(s[i]) {
			n++
		}
	}
	return n
}

const gllBody = "GPGLL,5057.970,N,00146.110,E,142451,A"

func TestParser_GLL(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedString(p, "$"+gllBody+"*27\r\n"); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 0 || len(c.Messages) != 1 {
		t.Fatalf("errors=%v messages=%d", c.Errors, len(c.Messages))
	}
	if got := string(c.Frames[0]); got != "$"+gllBody+"*27" {
		t.Fatalf("frame=%q", got)
	}
	m, ok := c.Messages[0].(*GLL)
	if !ok {
		t.Fatalf("message type %T", c.Messages[0])
	}
	if m.Talker != "GP" || m.Status != "A" || m.Key() != "GLL" {
		t.Fatalf("gll=%+v", m)
	}
	if math.Abs(*m.Lat-(50+57.970/60)) > 1e-9 || math.Abs(*m.Lon-(1+46.110/60)) > 1e-9 {
		t.Fatalf("lat=%v lon=%v", *m.Lat, *m.Lon)
	}
	if *m.Time != 14*time.Hour+24*time.Minute+51*time.Second {
		t.Fatalf("time=%v", *m.Time)
	}
}

func TestParser_ChecksumMismatch(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedString(p, "$"+gllBody+"*28\r\n"); n != 0 {
		t.Fatalf("completions=%d want 0", n)
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrChecksumMismatch) {
		t.Fatalf("errors=%v", c.Errors)
	}
	if c.Errors[0].Key != "GLL" {
		t.Fatalf("key=%q", c.Errors[0].Key)
	}
}

func TestParser_MissingChecksum(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	feedString(p, "$"+gllBody+"\r\n")
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrChecksumMismatch) {
		t.Fatalf("errors=%v", c.Errors)
	}
	if len(c.Messages) != 0 {
		t.Fatalf("messages=%d", len(c.Messages))
	}
}

func TestParser_NoCarriageReturn(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	line := strings.TrimSuffix(nmeaLine("GPZDA,201530.00,04,07,2002,00,00"), "\r\n")
	if n := feedString(p, line+"\n"); n != 1 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
}

func TestParser_LowercaseChecksum(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	// XOR of the body is 0x5B.
	if n := feedString(p, "$GPTXT,8*5b\r\n"); n != 1 || len(c.Errors) != 1 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
	if !errors.Is(c.Errors[0], gnss.ErrUnknownMessageType) {
		t.Fatalf("err=%v", c.Errors[0])
	}
}

func TestParser_StartInsideSentence(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedString(p, "$GPGGA,1235"+nmeaLine(gllBody)); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrSyncLost) {
		t.Fatalf("errors=%v", c.Errors)
	}
	if c.Errors[0].Key != "GGA" {
		t.Fatalf("key=%q", c.Errors[0].Key)
	}
	if _, ok := c.Messages[0].(*GLL); !ok {
		t.Fatalf("message type %T", c.Messages[0])
	}
}

func TestParser_NonPrintable(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	n := feedString(p, "$GPGLL,50\x0157.970"+nmeaLine(gllBody))
	if n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrSyncLost) {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_Overflow(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	long := "$GPTXT," + strings.Repeat("A", 200) + "\r\n"
	if n := feedString(p, long+nmeaLine(gllBody)); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrBufferOverflow) {
		t.Fatalf("errors=%v", c.Errors)
	}
	if c.Errors[0].Key != "TXT" {
		t.Fatalf("key=%q", c.Errors[0].Key)
	}
}

func TestParser_UnknownAndProprietary(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedString(p, nmeaLine("GPXYZ,1,2")+nmeaLine("PUBX,00,1")); n != 2 {
		t.Fatalf("completions=%d want 2", n)
	}
	if len(c.Errors) != 2 {
		t.Fatalf("errors=%v", c.Errors)
	}
	if !errors.Is(c.Errors[0], gnss.ErrUnknownMessageType) || c.Errors[0].Key != "XYZ" {
		t.Fatalf("err0=%v", c.Errors[0])
	}
	if c.Errors[1].Key != "PUBX" {
		t.Fatalf("err1=%v", c.Errors[1])
	}

	c.Reset()
	reg := NewRegistry()
	reg.MustRegister("PUBX", func() gnss.Decoder { return &Sentence{} })
	p = NewParserWithRegistry(&c, reg)
	feedString(p, nmeaLine("PUBX,00,1"))
	if len(c.Errors) != 0 || len(c.Messages) != 1 {
		t.Fatalf("errors=%v messages=%d", c.Errors, len(c.Messages))
	}
	s := c.Messages[0].(*Sentence)
	if s.Address != "PUBX" || len(s.Fields) != 2 || s.Fields[1] != "1" || s.Key() != "PUBX" {
		t.Fatalf("sentence=%+v", s)
	}
}

func TestParser_DecodeFailure(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedString(p, nmeaLine("GPGGA,123519,48x7.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0], gnss.ErrDecodeFailure) || c.Errors[0].Key != "GGA" {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_Reset(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	feedString(p, "$GPGLL,5057")
	p.Reset()
	p.Reset()
	if n := feedString(p, nmeaLine(gllBody)); n != 1 || len(c.Errors) != 0 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
}

func TestKeyOf(t *testing.T) {
	cases := map[string]string{
		"GPGGA": "GGA",
		"GNRMC": "RMC",
		"PUBX":  "PUBX",
		"PSRF":  "PSRF",
		"GGA":   "GGA",
		"":      "",
	}
	for in, want := range cases {
		if got := KeyOf(in); got != want {
			t.Fatalf("KeyOf(%q)=%q want %q", in, got, want)
		}
	}
}
