// Package mux feeds one byte stream to several protocol parsers.
package mux

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gnssrx/internal/gnss"
	"gnssrx/internal/link"
	"gnssrx/internal/nmea"
	"gnssrx/internal/oem"
	"gnssrx/internal/rtcm2"
	"gnssrx/internal/rtcm3"
	"gnssrx/internal/sbf"
	"gnssrx/internal/ubx"
)

// Mux offers every byte to its parsers in order. The first parser to
// complete a frame wins the byte: later parsers do not see it and every
// parser is reset, so a frame is never reported twice by overlapping
// protocols.
type Mux struct {
	sink    gnss.Sink
	parsers []gnss.Parser
}

func New(sink gnss.Sink, parsers ...gnss.Parser) *Mux {
	if sink == nil {
		sink = gnss.Discard
	}
	return &Mux{sink: sink, parsers: parsers}
}

func (m *Mux) Parsers() []gnss.Parser { return m.parsers }

// FeedByte reports whether b completed a frame in any parser.
func (m *Mux) FeedByte(b byte) bool {
	for _, p := range m.parsers {
		if m.feed(p, b) {
			m.Reset()
			return true
		}
	}
	return false
}

// Feed returns the number of frames completed by buf.
func (m *Mux) Feed(buf []byte) int {
	n := 0
	for _, b := range buf {
		if m.FeedByte(b) {
			n++
		}
	}
	return n
}

// Reset resets every parser.
func (m *Mux) Reset() {
	for _, p := range m.parsers {
		m.reset(p)
	}
}

// feed isolates a misbehaving parser: a panic is reported as a decode
// failure of its protocol and the parser is reset.
func (m *Mux) feed(p gnss.Parser, b byte) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			done = false
			m.sink.Error(gnss.Errorf(p.Protocol(), gnss.KindDecodeFailure, "", "parser panic: %v", r))
			m.reset(p)
		}
	}()
	return p.Feed(b)
}

func (m *Mux) reset(p gnss.Parser) {
	defer func() {
		if r := recover(); r != nil {
			m.sink.Error(gnss.Errorf(p.Protocol(), gnss.KindDecodeFailure, "", "parser reset panic: %v", r))
		}
	}()
	p.Reset()
}

// Run pumps r through the mux until EOF, a read error or ctx is done. The
// caller closes r to interrupt a blocked read.
func (m *Mux) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("mux read: %w", err)
		}
	}
}

// Build creates one parser per protocol name, in the given order. An empty
// list selects every protocol.
func Build(names []string, sink gnss.Sink, opts ...gnss.Option) ([]gnss.Parser, error) {
	protos := gnss.AllProtocols()
	if len(names) > 0 {
		protos = nil
		seen := make(map[gnss.Protocol]bool)
		for _, name := range names {
			p, err := gnss.ParseProtocol(name)
			if err != nil {
				return nil, err
			}
			if seen[p] {
				return nil, fmt.Errorf("duplicate protocol %q", name)
			}
			seen[p] = true
			protos = append(protos, p)
		}
	}
	parsers := make([]gnss.Parser, 0, len(protos))
	for _, p := range protos {
		parsers = append(parsers, NewParser(p, sink, opts...))
	}
	return parsers, nil
}

// NewParser returns the parser for p with its default registry.
func NewParser(p gnss.Protocol, sink gnss.Sink, opts ...gnss.Option) gnss.Parser {
	switch p {
	case gnss.ProtocolRTCM2:
		return rtcm2.NewParser(sink, opts...)
	case gnss.ProtocolRTCM3:
		return rtcm3.NewParser(sink, opts...)
	case gnss.ProtocolOEM:
		return oem.NewParser(sink, opts...)
	case gnss.ProtocolUBX:
		return ubx.NewParser(sink, opts...)
	case gnss.ProtocolNMEA:
		return nmea.NewParser(sink, opts...)
	case gnss.ProtocolSBF:
		return sbf.NewParser(sink, opts...)
	case gnss.ProtocolLink:
		return link.NewParser(sink, opts...)
	}
	panic(fmt.Sprintf("mux: no parser for %v", p))
}
