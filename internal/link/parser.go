// Package link frames and decodes the device control link: a small binary
// protocol used between the host and the receiver's companion controller.
package link

import (
	"encoding/binary"
	"fmt"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

const (
	Sync1      = 0xAA
	Sync2      = 0x55
	headerLen  = 10
	crcLen     = 2
	MaxPayload = 1024
)

// KeyString formats a message id, "0x0100".
func KeyString(id uint16) string { return fmt.Sprintf("0x%04X", id) }

// Parser is the link framing state machine:
//
//	AA 55 | len u16 | seq u16 | sender u8 | target u8 | id u16 | payload | crc u16
//
// All integers are little-endian. The CRC-16 covers everything between the
// sync bytes and the CRC.
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

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolLink }

func (p *Parser) Reset() {
	p.n = 0
	p.want = 0
}

func (p *Parser) key() string {
	if p.n < headerLen {
		return ""
	}
	return KeyString(binary.LittleEndian.Uint16(p.buf[8:10]))
}

func (p *Parser) fail(kind gnss.ErrorKind, err error) {
	key := p.key()
	p.Reset()
	p.sink.Error(gnss.NewError(gnss.ProtocolLink, kind, key, err))
}

func (p *Parser) Feed(b byte) bool {
	switch p.n {
	case 0:
		if b == Sync1 {
			p.buf[0] = b
			p.n = 1
		}
		return false
	case 1:
		if b != Sync2 {
			p.fail(gnss.KindSyncLost, fmt.Errorf("0x%02X after sync byte", b))
			if b == Sync1 {
				p.buf[0] = b
				p.n = 1
			}
			return false
		}
	}

	p.buf[p.n] = b
	p.n++
	if p.n == 4 {
		length := int(binary.LittleEndian.Uint16(p.buf[2:4]))
		if headerLen+length+crcLen > len(p.buf) {
			p.fail(gnss.KindBufferOverflow, fmt.Errorf("length %d exceeds %d", length, len(p.buf)-headerLen-crcLen))
			return false
		}
		p.want = headerLen + length + crcLen
	}
	if p.want > 0 && p.n == p.want {
		return p.complete()
	}
	return false
}

func (p *Parser) complete() bool {
	frame := p.buf[:p.want]
	end := p.want - crcLen
	want := binary.LittleEndian.Uint16(frame[end:])
	if got := checksum.CRC16CCITT(frame[2:end]); got != want {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("crc %04X want %04X", got, want))
		return false
	}
	env := Envelope{
		Seq:    binary.LittleEndian.Uint16(frame[4:6]),
		Sender: frame[6],
		Target: frame[7],
	}
	id := binary.LittleEndian.Uint16(frame[8:10])
	p.sink.Frame(gnss.ProtocolLink, frame)
	msg, perr := p.reg.Dispatch(id, KeyString(id), frame[headerLen:end], p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		if es, ok := msg.(interface{ SetEnvelope(Envelope) }); ok {
			es.SetEnvelope(env)
		}
		p.sink.Message(msg)
	}
	p.Reset()
	return true
}

// Frame builds a complete link frame.
func Frame(env Envelope, id uint16, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("link: payload length %d exceeds %d", len(payload), MaxPayload)
	}
	le := binary.LittleEndian
	out := make([]byte, 0, headerLen+len(payload)+crcLen)
	out = append(out, Sync1, Sync2)
	out = le.AppendUint16(out, uint16(len(payload)))
	out = le.AppendUint16(out, env.Seq)
	out = append(out, env.Sender, env.Target)
	out = le.AppendUint16(out, id)
	out = append(out, payload...)

	// CRC low byte first.
	crc := checksum.CRC16CCITT(out[2:])
	return append(out, byte(crc&0xFF), byte(crc>>8)), nil
}

// EncodeFrame encodes m and frames it with its envelope. A
// *bitfield.ClampError is returned together with a usable frame.
func EncodeFrame(m Message) ([]byte, error) {
	payload, err := m.Encode()
	if payload == nil && err != nil {
		return nil, err
	}
	frame, ferr := Frame(m.FrameEnvelope(), m.MessageID(), payload)
	if ferr != nil {
		return nil, ferr
	}
	return frame, err
}
