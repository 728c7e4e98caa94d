// Package rtcm2 frames and decodes RTCM v2 differential messages carried as
// 30-bit parity-protected words in 6-of-8 bytes.
package rtcm2

import (
	"fmt"
	"strconv"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

const (
	wordBits   = 30
	wordBytes  = 3
	headerLen  = 2 * wordBytes
	MaxWords   = 31
	MaxPayload = MaxWords * wordBytes
)

// Parser hunts bit by bit for a header word that starts with the preamble
// and passes parity, then collects the second header word and the number of
// data words it announces. Frames handed to the sink hold the 24 data bits
// of each word with parity stripped.
//
// After a complete message the parser keeps word alignment and only looks
// for the next preamble on word boundaries. A boundary word that fails
// parity drops alignment and bit-by-bit hunting resumes.
type Parser struct {
	sink gnss.Sink
	reg  *gnss.Registry[uint8]
	cfg  gnss.ParserConfig

	word    uint32 // D29* D30* followed by the last 30 received bits
	synced  bool
	bits    int
	aligned bool
	phase   int // bits since the last word boundary while aligned

	buf  []byte
	n    int
	want int
}

func NewParser(sink gnss.Sink, opts ...gnss.Option) *Parser {
	return NewParserWithRegistry(sink, NewRegistry(), opts...)
}

// NewParserWithRegistry uses a caller-built registry, which is sealed.
func NewParserWithRegistry(sink gnss.Sink, reg *gnss.Registry[uint8], opts ...gnss.Option) *Parser {
	if sink == nil {
		sink = gnss.Discard
	}
	cfg := gnss.NewParserConfig(MaxPayload, opts...)
	return &Parser{
		sink: sink,
		reg:  reg.Seal(),
		cfg:  cfg,
		buf:  make([]byte, headerLen+cfg.MaxPayload),
	}
}

func (p *Parser) Protocol() gnss.Protocol { return gnss.ProtocolRTCM2 }

// Reset drops the partial message. The bit register and word alignment
// belong to the link, not the message, and are kept: parity and polarity of
// the next header word depend on the last two bits of the word before it.
func (p *Parser) Reset() { p.hunt() }

// hunt returns to preamble search but keeps the sliding register so a
// preamble already partly received is still found.
func (p *Parser) hunt() {
	p.synced = false
	p.bits = 0
	p.n = 0
	p.want = 0
}

func (p *Parser) key() string {
	if p.n < 2 {
		return ""
	}
	return strconv.Itoa(int(p.buf[1] >> 2))
}

func (p *Parser) fail(kind gnss.ErrorKind, err error) {
	key := p.key()
	p.hunt()
	p.sink.Error(gnss.NewError(gnss.ProtocolRTCM2, kind, key, err))
}

// Feed consumes one transport byte. Bytes whose top bits are not 01 carry no
// data and are skipped.
func (p *Parser) Feed(b byte) bool {
	if !checksum.Is6of8(b) {
		return false
	}
	done := false
	for i := 0; i < 6; i++ {
		if p.shift(uint32(b>>uint(i)) & 1) {
			done = true
		}
	}
	return done
}

func (p *Parser) shift(bit uint32) bool {
	p.word = p.word<<1 | bit
	if !p.synced {
		data, ok := p.header()
		if !ok {
			return false
		}
		p.synced = true
		p.bits = 0
		p.n = copy(p.buf, data[:])
		return false
	}

	p.bits++
	if p.bits < wordBits {
		return false
	}
	p.bits = 0
	data, ok := checksum.DecodeWord(p.word)
	if !ok {
		p.aligned = false
		if p.want == 0 {
			// The preamble match was a coincidence.
			p.hunt()
			return false
		}
		p.fail(gnss.KindChecksumMismatch, fmt.Errorf("parity error in word %d", p.n/wordBytes+1))
		return false
	}
	if p.n+wordBytes > len(p.buf) {
		p.fail(gnss.KindBufferOverflow, fmt.Errorf("more than %d data bytes", len(p.buf)))
		return false
	}
	p.n += copy(p.buf[p.n:], data[:])
	if p.n == headerLen {
		words := int(p.buf[5] >> 3)
		p.want = headerLen + words*wordBytes
		if p.want > len(p.buf) {
			p.fail(gnss.KindBufferOverflow, fmt.Errorf("%d data words exceed %d", words, (len(p.buf)-headerLen)/wordBytes))
			return false
		}
	}
	if p.want == 0 || p.n < p.want {
		return false
	}
	return p.complete()
}

// header reports whether the register holds a header word. While aligned
// only word boundaries are checked.
func (p *Parser) header() (data [3]byte, ok bool) {
	if p.aligned {
		p.phase++
		if p.phase < wordBits {
			return data, false
		}
		p.phase = 0
		data, ok = checksum.DecodeWord(p.word)
		if !ok {
			p.aligned = false
			return data, false
		}
		return data, checksum.PreambleAt(p.word)
	}
	if !checksum.PreambleAt(p.word) {
		return data, false
	}
	return checksum.DecodeWord(p.word)
}

func (p *Parser) complete() bool {
	frame := p.buf[:p.n]
	key := p.key()
	p.sink.Frame(gnss.ProtocolRTCM2, frame)
	msg, perr := p.reg.Dispatch(frame[1]>>2, key, frame, p.cfg.Clock())
	if perr != nil {
		p.sink.Error(perr)
	} else {
		p.sink.Message(msg)
	}
	p.hunt()
	p.aligned = true
	p.phase = 0
	return true
}

// Framer turns message bodies into a transmitted word stream. Parity of each
// word depends on the last two bits of the word before it, so consecutive
// messages on one link must share a Framer.
type Framer struct {
	last uint32
}

// Frame encodes a body of whole data words (3 bytes each, header included).
func (f *Framer) Frame(body []byte) ([]byte, error) {
	if len(body)%wordBytes != 0 || len(body) < headerLen {
		return nil, fmt.Errorf("rtcm2: body length %d is not whole words", len(body))
	}
	if len(body) > headerLen+MaxPayload {
		return nil, fmt.Errorf("rtcm2: body length %d exceeds %d", len(body), headerLen+MaxPayload)
	}
	out := make([]byte, 0, len(body)/wordBytes*5)
	for i := 0; i < len(body); i += wordBytes {
		data := uint32(body[i])<<16 | uint32(body[i+1])<<8 | uint32(body[i+2])
		f.last = checksum.EncodeWord(f.last, data)
		out = checksum.Pack6of8(out, f.last)
	}
	return out, nil
}

// EncodeFrame encodes m and frames it. A *bitfield.ClampError is returned
// together with a usable stream when a field had to be clamped.
func (f *Framer) EncodeFrame(m gnss.Encoder) ([]byte, error) {
	body, err := m.Encode()
	if body == nil {
		return nil, err
	}
	out, ferr := f.Frame(body)
	if ferr != nil {
		return nil, ferr
	}
	return out, err
}

// Frame encodes body as the first message of a stream.
func Frame(body []byte) ([]byte, error) {
	var f Framer
	return f.Frame(body)
}

// EncodeFrame encodes m as the first message of a stream.
func EncodeFrame(m gnss.Encoder) ([]byte, error) {
	var f Framer
	return f.EncodeFrame(m)
}
