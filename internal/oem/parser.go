// Package oem frames and decodes the OEM receiver binary log format with
// its long and short headers.
package oem

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

// MaxPayload bounds a message body.
const MaxPayload = 4096

// KeyString formats a message id.
func KeyString(id uint16) string { return strconv.Itoa(int(id)) }

// Parser frames both header variants: AA 44 12 with a header length byte and
// a 16-bit body length, or AA 44 13 with an 8-bit body length. A CRC-32 of
// header and body follows, little-endian.
type Parser struct {
	sink gnss.Sink
	reg  *gnss.Registry[uint16]
	cfg  gnss.ParserConfig

	buf  []byte
	n    int
	hlen int
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
		buf:  make([]byte, LongHeaderLen+cfg.MaxPayload+crcLen),
	}
}

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolOEM }

func (p *Parser) Reset() {
	p.n = 0
	p.hlen = 0
	p.want = 0
}

func (p *Parser) key() string {
	if p.n < 6 {
		return ""
	}
	return KeyString(binary.LittleEndian.Uint16(p.buf[4:6]))
}

func (p *Parser) fail(kind gnss.ErrorKind, err error) {
	key := p.key()
	p.Reset()
	p.sink.Error(gnss.NewError(gnss.ProtocolOEM, kind, key, err))
}

// resync reports a bad sync byte and restarts on it when it opens a frame.
func (p *Parser) resync(b byte) {
	p.fail(gnss.KindSyncLost, fmt.Errorf("0x%02X in sync sequence", b))
	if b == Sync1 {
		p.buf[0] = b
		p.n = 1
	}
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
			p.resync(b)
			return false
		}
	case 2:
		switch b {
		case SyncLong:
		case SyncShort:
			p.hlen = ShortHeaderLen
		default:
			p.resync(b)
			return false
		}
	}

	p.buf[p.n] = b
	p.n++
	switch {
	case p.want > 0:
		if p.n == p.want {
			return p.complete()
		}
	case p.n == 4 && p.hlen == ShortHeaderLen:
		p.setLength(int(b))
	case p.n == 4:
		if int(b) < LongHeaderLen {
			p.fail(gnss.KindSyncLost, fmt.Errorf("header length %d", b))
			return false
		}
		p.hlen = int(b)
	case p.n == 10 && p.hlen >= LongHeaderLen:
		p.setLength(int(binary.LittleEndian.Uint16(p.buf[8:10])))
	}
	return false
}

func (p *Parser) setLength(length int) {
	want := p.hlen + length + crcLen
	if want > len(p.buf) {
		p.fail(gnss.KindBufferOverflow, fmt.Errorf("length %d exceeds %d", length, len(p.buf)-p.hlen-crcLen))
		return
	}
	p.want = want
}

func (p *Parser) complete() bool {
	frame := p.buf[:p.want]
	end := p.want - crcLen
	want := binary.LittleEndian.Uint32(frame[end:])
	if got := checksum.CRC32(frame[:end]); got != want {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("crc %08X want %08X", got, want))
		return false
	}
	h := parseHeader(frame)
	p.sink.Frame(gnss.ProtocolOEM, frame)
	msg, perr := p.reg.Dispatch(h.MessageID, KeyString(h.MessageID), frame[p.hlen:end], p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		if hs, ok := msg.(interface{ SetHeader(Header) }); ok {
			hs.SetHeader(h)
		}
		p.sink.Message(msg)
	}
	p.Reset()
	return true
}

// Frame builds a frame with the header variant h selects.
func Frame(h Header, body []byte) ([]byte, error) {
	out, err := appendHeader(make([]byte, 0, h.headerLen()+len(body)+crcLen), h, len(body))
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	return binary.LittleEndian.AppendUint32(out, checksum.CRC32(out)), nil
}

// EncodeFrame encodes m and frames it under its own message id.
func EncodeFrame(m Message) ([]byte, error) {
	body, err := m.Encode()
	if err != nil {
		return nil, err
	}
	h := m.FrameHeader()
	h.MessageID = m.MessageID()
	return Frame(h, body)
}
