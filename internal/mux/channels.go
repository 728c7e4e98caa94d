package mux

import (
	"context"

	"gnssrx/internal/gnss"
)

// Channels is a Sink that delivers messages and errors on two buffered
// channels, each in stream order. Sends block when a channel is full until
// ctx is done; afterwards output is dropped.
type Channels struct {
	ctx      context.Context
	Messages chan gnss.Message
	Errors   chan *gnss.ParseError
}

func NewChannels(ctx context.Context, size int) *Channels {
	return &Channels{
		ctx:      ctx,
		Messages: make(chan gnss.Message, size),
		Errors:   make(chan *gnss.ParseError, size),
	}
}

func (c *Channels) Frame(gnss.Protocol, []byte) {}

func (c *Channels) Message(m gnss.Message) {
	select {
	case c.Messages <- m:
	case <-c.ctx.Done():
	}
}

func (c *Channels) Error(err *gnss.ParseError) {
	select {
	case c.Errors <- err:
	case <-c.ctx.Done():
	}
}

// Close closes both channels. Call it once the mux feeding c has stopped.
func (c *Channels) Close() {
	close(c.Messages)
	close(c.Errors)
}

// Tee fans sink output out to several sinks in order.
type Tee []gnss.Sink

func (t Tee) Frame(p gnss.Protocol, frame []byte) {
	for _, s := range t {
		s.Frame(p, frame)
	}
}

func (t Tee) Message(m gnss.Message) {
	for _, s := range t {
		s.Message(m)
	}
}

func (t Tee) Error(err *gnss.ParseError) {
	for _, s := range t {
		s.Error(err)
	}
}
