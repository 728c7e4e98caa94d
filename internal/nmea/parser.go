// Package nmea frames and decodes NMEA-0183 sentences.
package nmea

import (
	"bytes"
	"fmt"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

// MaxLength bounds a sentence from the start character through the checksum.
// The standard allows 82 characters; receivers routinely exceed it.
const MaxLength = 128

// Parser collects one sentence between a '$' or '!' start character and a
// line feed. The carriage return is optional.
type Parser struct {
	sink gnss.Sink
	reg  *gnss.Registry[string]
	cfg  gnss.ParserConfig

	buf []byte
	n   int
}

func NewParser(sink gnss.Sink, opts ...gnss.Option) *Parser {
	return NewParserWithRegistry(sink, NewRegistry(), opts...)
}

// NewParserWithRegistry uses a caller-built registry, which is sealed.
func NewParserWithRegistry(sink gnss.Sink, reg *gnss.Registry[string], opts ...gnss.Option) *Parser {
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

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }

func (p *Parser) Reset() { p.n = 0 }

func isStart(b byte) bool { return b == '$' || b == '!' }

// address returns the text between the start character and the first comma
// or checksum delimiter, or "" while it is still incomplete.
func address(sentence []byte) string {
	if len(sentence) < 2 {
		return ""
	}
	if i := bytes.IndexAny(sentence[1:], ",*"); i >= 0 {
		return string(sentence[1 : 1+i])
	}
	return ""
}

func (p *Parser) fail(kind gnss.ErrorKind, err error) {
	key := KeyOf(address(p.buf[:p.n]))
	p.Reset()
	p.sink.Error(gnss.NewError(gnss.ProtocolNMEA, kind, key, err))
}

func (p *Parser) start(b byte) {
	p.buf[0] = b
	p.n = 1
}

func (p *Parser) Feed(b byte) bool {
	if p.n == 0 {
		if isStart(b) {
			p.start(b)
		}
		return false
	}
	switch {
	case b == '\n':
		return p.complete()
	case b == '\r':
		return false
	case isStart(b):
		p.fail(gnss.KindSyncLost, fmt.Errorf("%q inside sentence", b))
		p.start(b)
		return false
	case b < 0x20 || b > 0x7E:
		p.fail(gnss.KindSyncLost, fmt.Errorf("non-printable 0x%02X", b))
		return false
	}
	if p.n >= len(p.buf) {
		p.fail(gnss.KindBufferOverflow, fmt.Errorf("sentence longer than %d", len(p.buf)))
		return false
	}
	p.buf[p.n] = b
	p.n++
	return false
}

func (p *Parser) complete() bool {
	sentence := p.buf[:p.n]
	star := bytes.LastIndexByte(sentence, '*')
	if star < 0 || star != len(sentence)-3 {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("missing checksum"))
		return false
	}
	hi, ok1 := checksum.HexNibble(sentence[star+1])
	lo, ok2 := checksum.HexNibble(sentence[star+2])
	if !ok1 || !ok2 {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("bad checksum %q", sentence[star+1:]))
		return false
	}
	want := hi<<4 | lo
	if got := checksum.NMEA(sentence[1:star]); got != want {
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("checksum %02X want %02X", got, want))
		return false
	}
	key := KeyOf(address(sentence))
	p.sink.Frame(gnss.ProtocolNMEA, sentence)
	msg, perr := p.reg.Dispatch(key, key, sentence[1:star], p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		p.sink.Message(msg)
	}
	p.Reset()
	return true
}
