// Package rtcm3 frames and decodes RTCM v3 messages.
package rtcm3

import (
	"fmt"
	"strconv"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

const (
	Preamble   = 0xD3
	headerLen  = 3
	crcLen     = 3
	MaxPayload = 1023
)

// Parser is the RTCM v3 framing state machine: preamble, six reserved zero
// bits, a 10-bit payload length, the payload and a CRC-24Q.
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
		buf:  make([]byte, headerLen+cfg.MaxPayload+crcLen),
	}
}

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }

func (p *Parser) Reset() {
	p.n = 0
	p.want = 0
}

func (p *Parser) fail(kind gnss.ErrorKind, key string, err error) {
	p.Reset()
	p.sink.Error(gnss.NewError(gnss.ProtocolRTCM3, kind, key, err))
}

func (p *Parser) Feed(b byte) bool {
	if p.n == 0 {
		if b == Preamble {
			p.buf[0] = b
			p.n = 1
		}
		return false
	}
	if p.n == 1 && b&0xFC != 0 {
		p.fail(gnss.KindSyncLost, "", fmt.Errorf("reserved bits 0x%02X after preamble", b&0xFC))
		if b == Preamble {
			p.buf[0] = b
			p.n = 1
		}
		return false
	}
	if p.n < headerLen {
		p.buf[p.n] = b
		p.n++
		if p.n == headerLen {
			length := int(p.buf[1]&0x03)<<8 | int(p.buf[2])
			if headerLen+length+crcLen > len(p.buf) {
				p.fail(gnss.KindBufferOverflow, "", fmt.Errorf("length %d exceeds %d", length, len(p.buf)-headerLen-crcLen))
				return false
			}
			p.want = headerLen + length + crcLen
		}
		return false
	}

	p.buf[p.n] = b
	p.n++
	if p.n < p.want {
		return false
	}
	return p.complete()
}

func (p *Parser) complete() bool {
	frame := p.buf[:p.want]
	end := p.want - crcLen
	key := ""
	if end-headerLen >= 2 {
		key = strconv.Itoa(int(uint16(frame[3])<<4 | uint16(frame[4])>>4))
	}
	got := checksum.CRC24Q(frame[:end])
	want := uint32(frame[end])<<16 | uint32(frame[end+1])<<8 | uint32(frame[end+2])
	if got != want {
		p.fail(gnss.KindChecksumMismatch, key, fmt.Errorf("crc %06X want %06X", got, want))
		return false
	}
	p.sink.Frame(gnss.ProtocolRTCM3, frame)
	if key == "" {
		p.sink.Error(gnss.Errorf(gnss.ProtocolRTCM3, gnss.KindDecodeFailure, "", "payload of %d bytes has no message number", end-headerLen))
		p.Reset()
		return true
	}
	t, _ := bitfield.Uint(frame, 24, 12)
	msg, perr := p.reg.Dispatch(uint16(t), key, frame[headerLen:end], p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		p.sink.Message(msg)
	}
	p.Reset()
	return true
}

// Frame wraps a message body with the preamble, length and CRC.
func Frame(body []byte) ([]byte, error) {
	if len(body) > MaxPayload {
		return nil, fmt.Errorf("rtcm3: body length %d exceeds %d", len(body), MaxPayload)
	}
	out := make([]byte, 0, headerLen+len(body)+crcLen)
	out = append(out, Preamble, byte(len(body)>>8)&0x03, byte(len(body)))
	out = append(out, body...)
	crc := checksum.CRC24Q(out)
	return append(out, byte(crc>>16), byte(crc>>8), byte(crc)), nil
}

// EncodeFrame encodes m and frames it. A *bitfield.ClampError is returned
// together with a usable frame when a field had to be clamped.
func EncodeFrame(m gnss.Encoder) ([]byte, error) {
	body, err := m.Encode()
	if body == nil {
		return nil, err
	}
	frame, ferr := Frame(body)
	if ferr != nil {
		return nil, ferr
	}
	return frame, err
}
