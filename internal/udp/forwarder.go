// Package udp relays validated receiver frames, typically RTCM3
// corrections, to a UDP destination.
package udp

import (
	"fmt"
	"net"
	"sync/atomic"

	"gnssrx/internal/gnss"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type (
	resolveFunc func(network, address string) (*net.UDPAddr, error)
	dialFunc    func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)
)

// Forwarder is a gnss.Sink that sends every validated frame of the selected
// protocols as one datagram. Decoded messages and errors are ignored.
type Forwarder struct {
	dest   string
	conn   udpConn
	protos map[gnss.Protocol]bool

	// OnError, when set, receives send failures. Sending continues.
	OnError func(err error)

	sent   atomic.Uint64
	failed atomic.Uint64
}

func NewForwarder(dest string, protos []gnss.Protocol) (*Forwarder, error) {
	return newForwarder(dest, protos, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newForwarder(dest string, protos []gnss.Protocol, resolve resolveFunc, dial dialFunc) (*Forwarder, error) {
	if len(protos) == 0 {
		return nil, fmt.Errorf("forward: no protocols selected")
	}
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}
	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	f := &Forwarder{dest: dest, conn: conn, protos: make(map[gnss.Protocol]bool)}
	for _, p := range protos {
		f.protos[p] = true
	}
	return f, nil
}

func (f *Forwarder) Frame(p gnss.Protocol, frame []byte) {
	if !f.protos[p] || len(frame) == 0 {
		return
	}
	if err := f.Send(frame); err != nil {
		f.failed.Add(1)
		if f.OnError != nil {
			f.OnError(fmt.Errorf("forward %s frame to %s: %w", p, f.dest, err))
		}
		return
	}
	f.sent.Add(1)
}

func (f *Forwarder) Message(gnss.Message)   {}
func (f *Forwarder) Error(*gnss.ParseError) {}

// Send writes one datagram. Empty payloads are skipped.
func (f *Forwarder) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := f.conn.Write(payload)
	return err
}

// Stats returns the number of frames sent and failed.
func (f *Forwarder) Stats() (sent, failed uint64) { return f.sent.Load(), f.failed.Load() }

func (f *Forwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
