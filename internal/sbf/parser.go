// Package sbf frames and decodes Septentrio Binary Format blocks.
package sbf

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

const (
	Sync1     = '$'
	Sync2     = '@'
	headerLen = 8
	// MaxLength bounds a whole block, header included.
	MaxLength = 4096
)

// KeyString formats a block number.
func KeyString(id uint16) string { return strconv.Itoa(int(id)) }

// Parser is the SBF framing state machine: "$@", a CRC-16 over everything
// after it, the block id with its revision in the top three bits, the total
// block length and the block body.
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
	cfg := gnss.NewParserConfig(MaxLength, opts...)
	return &Parser{
		sink: sink,
		reg:  reg.Seal(),
		cfg:  cfg,
		buf:  make([]byte, cfg.MaxPayload),
	}
}

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolSBF }

func (p *Parser) Reset() {
	p.n = 0
	p.want = 0
}

func blockNumber(id uint16) uint16 { return id & 0x1FFF }

func (p *Parser) key() string {
	if p.n < 6 {
		return ""
	}
	return KeyString(blockNumber(binary.LittleEndian.Uint16(p.buf[4:6])))
}

func (p *Parser) fail(kind gnss.ErrorKind, err error) {
	key := p.key()
	p.Reset()
	p.sink.Error(gnss.NewError(gnss.ProtocolSBF, kind, key, err))
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
		// '$' also opens NMEA sentences, which receivers interleave with
		// blocks; only a broken header counts as lost sync.
		if b != Sync2 {
			p.n = 0
			if b == Sync1 {
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
		length := int(binary.LittleEndian.Uint16(p.buf[6:8]))
		switch {
		case length < headerLen || length%4 != 0:
			p.fail(gnss.KindSyncLost, fmt.Errorf("invalid block length %d", length))
			return false
		case length > len(p.buf):
			p.fail(gnss.KindBufferOverflow, fmt.Errorf("length %d exceeds %d", length, len(p.buf)))
			return false
		case length == headerLen:
			p.want = length
			return p.complete()
		}
		p.want = length
	}
	return false
}

func (p *Parser) complete() bool {
	frame := p.buf[:p.want]
	want := binary.LittleEndian.Uint16(frame[2:4])
	if got := checksum.CRC16CCITT(frame[4:]); got != want {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("crc %04X want %04X", got, want))
		return false
	}
	key := blockNumber(binary.LittleEndian.Uint16(frame[4:6]))
	p.sink.Frame(gnss.ProtocolSBF, frame)
	msg, perr := p.reg.Dispatch(key, KeyString(key), frame[headerLen:], p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		p.sink.Message(msg)
	}
	p.Reset()
	return true
}

// Frame builds a block, padding the body so the length is a multiple of 4.
func Frame(id uint16, rev uint8, body []byte) ([]byte, error) {
	if id > 0x1FFF || rev > 7 {
		return nil, fmt.Errorf("sbf: block %d revision %d out of range", id, rev)
	}
	length := headerLen + len(body)
	length += (4 - length%4) % 4
	if length > MaxLength {
		return nil, fmt.Errorf("sbf: block length %d exceeds %d", length, MaxLength)
	}
	out := make([]byte, length)
	out[0], out[1] = Sync1, Sync2
	binary.LittleEndian.PutUint16(out[4:6], id|uint16(rev)<<13)
	binary.LittleEndian.PutUint16(out[6:8], uint16(length))
	copy(out[headerLen:], body)
	binary.LittleEndian.PutUint16(out[2:4], checksum.CRC16CCITT(out[4:]))
	return out, nil
}

// EncodeFrame encodes b and frames it under its block number and revision.
func EncodeFrame(b Block) ([]byte, error) {
	body, err := b.Encode()
	if err != nil {
		return nil, err
	}
	return Frame(b.BlockID(), b.Revision(), body)
}
