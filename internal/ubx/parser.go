// Package ubx frames and decodes the u-blox binary protocol.
package ubx

import (
	"encoding/binary"
	"fmt"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

const (
	Sync1      = 0xB5
	Sync2      = 0x62
	headerLen  = 6
	ckLen      = 2
	MaxPayload = 4096
)

// KeyString formats a class/id key the way u-blox documents it, "05-01".
func KeyString(key uint16) string {
	return fmt.Sprintf("%02X-%02X", key>>8, key&0xFF)
}

// Parser is the UBX framing state machine: two sync bytes, class, id, a
// little-endian payload length, the payload and a Fletcher-8 checksum over
// class through payload.
type Parser struct {
	sink gnss.Sink
	reg  *gnss.Registry[uint16]
	cfg  gnss.ParserConfig

	buf  []byte
	n    int
	want int
}

func NewParser(sink gnss.Sink, opts ...gnss.Option) *Parser {
	return NewParserWithRegistry(sink, NewRegistry(), opts...)
}

// NewParserWithRegistry uses a caller-built registry, which is sealed.
func NewParserWithRegistry(sink gnss.Sink, reg *gnss.Registry[uint16], opts ...gnss.Option) *Parser {
	if sink == nil {
		sink = gnss.Discard
	}
	cfg := gnss.NewParserConfig(MaxPayload, opts...)
	return &Parser{
		sink: sink,
		reg:  reg.Seal(),
		cfg:  cfg,
		buf:  make([]byte, headerLen+cfg.MaxPayload+ckLen),
	}
}

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolUBX }

func (p *Parser) Reset() {
	p.n = 0
	p.want = 0
}

func (p *Parser) key() string {
	if p.n < 4 {
		return ""
	}
	return KeyString(uint16(p.buf[2])<<8 | uint16(p.buf[3]))
}

func (p *Parser) fail(kind gnss.ErrorKind, err error) {
	key := p.key()
	p.Reset()
	p.sink.Error(gnss.NewError(gnss.ProtocolUBX, kind, key, err))
}

func (p *Parser) Feed(b byte) bool {
	switch {
	case p.n == 0:
		if b == Sync1 {
			p.buf[0] = b
			p.n = 1
		}
		return false
	case p.n == 1:
		if b != Sync2 {
			p.fail(gnss.KindSyncLost, fmt.Errorf("0x%02X after sync byte", b))
			if b == Sync1 {
				p.buf[0] = b
				p.n = 1
			}
			return false
		}
	case p.n < headerLen:
	default:
		p.buf[p.n] = b
		p.n++
		if p.n < p.want {
			return false
		}
		return p.complete()
	}

	p.buf[p.n] = b
	p.n++
	if p.n == headerLen {
		length := int(binary.LittleEndian.Uint16(p.buf[4:6]))
		if headerLen+length+ckLen > len(p.buf) {
			p.fail(gnss.KindBufferOverflow, fmt.Errorf("length %d exceeds %d", length, len(p.buf)-headerLen-ckLen))
			return false
		}
		p.want = headerLen + length + ckLen
	}
	return false
}

func (p *Parser) complete() bool {
	frame := p.buf[:p.want]
	end := p.want - ckLen
	a, b := checksum.Fletcher8(frame[2:end])
	if a != frame[end] || b != frame[end+1] {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("checksum %02X%02X want %02X%02X", a, b, frame[end], frame[end+1]))
		return false
	}
	key := uint16(frame[2])<<8 | uint16(frame[3])
	p.sink.Frame(gnss.ProtocolUBX, frame)
	msg, perr := p.reg.Dispatch(key, KeyString(key), frame[headerLen:end], p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		p.sink.Message(msg)
	}
	p.Reset()
	return true
}

// Frame builds a complete UBX frame.
func Frame(class, id byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("ubx: payload length %d exceeds %d", len(payload), MaxPayload)
	}
	out := make([]byte, 0, headerLen+len(payload)+ckLen)
	out = append(out, Sync1, Sync2, class, id, byte(len(payload)), byte(len(payload)>>8))
	out = append(out, payload...)
	a, b := checksum.Fletcher8(out[2:])
	return append(out, a, b), nil
}

// EncodeFrame encodes m and frames it under its class and id. A
// *bitfield.ClampError is returned together with a usable frame when a
// field had to be clamped.
func EncodeFrame(m Message) ([]byte, error) {
	payload, err := m.Encode()
	if payload == nil && err != nil {
		return nil, err
	}
	id := m.ID()
	frame, ferr := Frame(byte(id>>8), byte(id), payload)
	if ferr != nil {
		return nil, ferr
	}
	return frame, err
}
