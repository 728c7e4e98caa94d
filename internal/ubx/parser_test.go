package ubx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"gnssrx/internal/gnss"
)

// ACK-ACK for CFG-MSG.
const ackHex = "b5620501020006010f38"

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

func TestParser_Ack(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedAll(p, mustHex(t, ackHex)); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 0 || len(c.Messages) != 1 {
		t.Fatalf("errors=%v messages=%d", c.Errors, len(c.Messages))
	}
	ack, ok := c.Messages[0].(*Ack)
	if !ok {
		t.Fatalf("message type %T", c.Messages[0])
	}
	if !ack.Acked || ack.Class != 0x06 || ack.MsgID != 0x01 || ack.For() != KeyCfgMsg {
		t.Fatalf("ack=%+v", ack)
	}
	if ack.Key() != "05-01" {
		t.Fatalf("key=%q", ack.Key())
	}
	if !bytes.Equal(c.Frames[0], mustHex(t, ackHex)) {
		t.Fatalf("frame=%x", c.Frames[0])
	}
}

func TestParser_AckChecksumFlipped(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	frame := mustHex(t, ackHex)
	frame[len(frame)-1] ^= 0x01
	if n := feedAll(p, frame); n != 0 {
		t.Fatalf("completions=%d want 0", n)
	}
	if len(c.Messages) != 0 || len(c.Frames) != 0 {
		t.Fatalf("messages=%d frames=%d", len(c.Messages), len(c.Frames))
	}
	if len(c.Errors) != 1 {
		t.Fatalf("errors=%v", c.Errors)
	}
	e := c.Errors[0]
	if e.Kind != gnss.KindChecksumMismatch || e.Protocol != gnss.ProtocolUBX || e.Key != "05-01" || !errors.Is(e, gnss.ErrChecksumMismatch) {
		t.Fatalf("error=%v", e)
	}
}

func TestParser_PayloadBitFlipsDetected(t *testing.T) {
	good := mustHex(t, rateHex)
	for i := 6; i < len(good)-2; i++ {
		for bit := 0; bit < 8; bit++ {
			frame := append([]byte(nil), good...)
			frame[i] ^= 1 << uint(bit)
			var c gnss.Collector
			p := NewParser(&c)
			if n := feedAll(p, frame); n != 0 || len(c.Messages) != 0 {
				t.Fatalf("flip byte=%d bit=%d accepted", i, bit)
			}
			if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindChecksumMismatch || c.Errors[0].Key != "06-08" {
				t.Fatalf("flip byte=%d bit=%d errors=%v", i, bit, c.Errors)
			}
		}
	}
}

func TestParser_SyncLost(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	stream := append([]byte{Sync1, 0x00, Sync1}, mustHex(t, ackHex)...)
	if n := feedAll(p, stream); n != 1 {
		t.Fatalf("completions=%d want 1", n)
	}
	if len(c.Errors) != 2 {
		t.Fatalf("errors=%v want 2", c.Errors)
	}
	for _, e := range c.Errors {
		if e.Kind != gnss.KindSyncLost {
			t.Fatalf("error=%v", e)
		}
	}
	if len(c.Messages) != 1 {
		t.Fatalf("messages=%d", len(c.Messages))
	}
}

func TestParser_NoiseAndSplitFeeds(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	stream := []byte("$GPGGA,noise\r\n")
	stream = append(stream, mustHex(t, ackHex)...)
	stream = append(stream, 0x00, 0x13)
	stream = append(stream, mustHex(t, rateHex)...)
	if n := feedAll(p, stream); n != 2 {
		t.Fatalf("completions=%d want 2 (errors=%v)", n, c.Errors)
	}
	if _, ok := c.Messages[1].(*CfgRate); !ok {
		t.Fatalf("second message %T", c.Messages[1])
	}
}

func TestParser_BufferOverflow(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	hdr := []byte{Sync1, Sync2, 0x02, 0x15, 0x01, 0x20} // 8193 bytes
	feedAll(p, hdr)
	if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindBufferOverflow || c.Errors[0].Key != "02-15" {
		t.Fatalf("errors=%v", c.Errors)
	}
	if n := feedAll(p, mustHex(t, ackHex)); n != 1 {
		t.Fatalf("parser did not recover")
	}
}

func TestParser_MaxPayloadOption(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c, gnss.WithMaxPayload(4))
	feedAll(p, mustHex(t, rateHex))
	if len(c.Errors) != 1 || c.Errors[0].Kind != gnss.KindBufferOverflow {
		t.Fatalf("errors=%v", c.Errors)
	}
}

func TestParser_UnknownAndFailure(t *testing.T) {
	unknown, _ := Frame(0x02, 0x13, []byte{1, 2, 3, 4})
	short, _ := Frame(ClassACK, 0x01, []byte{6, 1, 0})
	var c gnss.Collector
	p := NewParser(&c)
	if n := feedAll(p, append(unknown, short...)); n != 2 {
		t.Fatalf("completions=%d want 2", n)
	}
	if len(c.Errors) != 2 {
		t.Fatalf("errors=%v", c.Errors)
	}
	if e := c.Errors[0]; e.Kind != gnss.KindUnknownMessageType || e.Key != "02-13" {
		t.Fatalf("first error=%v", e)
	}
	if e := c.Errors[1]; e.Kind != gnss.KindDecodeFailure || e.Key != "05-01" {
		t.Fatalf("second error=%v", e)
	}
	if len(c.Frames) != 2 {
		t.Fatalf("frames=%d want 2", len(c.Frames))
	}
}

func TestParser_ResetIdempotent(t *testing.T) {
	var c gnss.Collector
	p := NewParser(&c)
	frame := mustHex(t, ackHex)
	feedAll(p, frame[:5])
	p.Reset()
	p.Reset()
	if n := feedAll(p, append(frame, frame...)); n != 2 || len(c.Errors) != 0 {
		t.Fatalf("completions=%d errors=%v", n, c.Errors)
	}
}
