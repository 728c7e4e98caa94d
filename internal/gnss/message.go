package gnss

import "time"

// Message is a decoded protocol message.
type Message interface {
	Protocol() Protocol
	// Key identifies the message type within its protocol, e.g. "1005",
	// "05-01" or "GGA".
	Key() string
}

// Decoder fills itself from a validated frame body. now is the receiver's
// best wall-clock estimate and is used to resolve truncated time fields.
// Decoded values must not alias body.
type Decoder interface {
	Message
	Decode(body []byte, now time.Time) error
}

// Factory returns a fresh decoder for one message.
type Factory func() Decoder

// Encoder serialises a message body (without transport framing).
type Encoder interface {
	Message
	Encode() ([]byte, error)
}

// Sink receives parser output in stream order. Frame is called for every
// frame whose checksum validated, before decoding; the slice is only valid
// during the call.
type Sink interface {
	Frame(p Protocol, frame []byte)
	Message(m Message)
	Error(err *ParseError)
}

// Parser is a byte-at-a-time framing state machine for one protocol.
type Parser interface {
	Protocol() Protocol
	// Feed consumes one byte and reports whether it completed a frame with a
	// valid checksum. The parser is back in sync search when it returns true.
	Feed(b byte) bool
	// Reset discards any partial frame.
	Reset()
}

// SinkFuncs adapts plain functions to Sink. Nil fields are ignored.
type SinkFuncs struct {
	OnFrame   func(p Protocol, frame []byte)
	OnMessage func(m Message)
	OnError   func(err *ParseError)
}

func (s SinkFuncs) Frame(p Protocol, frame []byte) {
	if s.OnFrame != nil {
		s.OnFrame(p, frame)
	}
}

func (s SinkFuncs) Message(m Message) {
	if s.OnMessage != nil {
		s.OnMessage(m)
	}
}

func (s SinkFuncs) Error(err *ParseError) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

// Discard is a Sink that drops everything.
var Discard Sink = SinkFuncs{}

// Collector records sink output; handy for tests and one-shot decoding.
type Collector struct {
	Frames   [][]byte
	Messages []Message
	Errors   []*ParseError
}

func (c *Collector) Frame(_ Protocol, frame []byte) {
	c.Frames = append(c.Frames, append([]byte(nil), frame...))
}

func (c *Collector) Message(m Message) { c.Messages = append(c.Messages, m) }

func (c *Collector) Error(err *ParseError) { c.Errors = append(c.Errors, err) }

// Reset clears collected output.
func (c *Collector) Reset() {
	c.Frames, c.Messages, c.Errors = nil, nil, nil
}

// Clock returns the current wall-clock estimate.
type Clock func() time.Time

// SystemClock reads time.Now in UTC.
func SystemClock() time.Time { return time.Now().UTC() }
