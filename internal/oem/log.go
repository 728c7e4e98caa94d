package oem

import (
	"time"

	"gnssrx/internal/gnss"
)

// Log triggers.
const (
	OnNew     = 0
	OnChanged = 1
	OnTime    = 2
	OnNext    = 3
	OnOnce    = 4
	OnMark    = 5
)

// Port identifiers for the Log command.
const (
	PortNone  = 0
	PortCOM1  = 1
	PortCOM2  = 2
	PortCOM3  = 3
	PortThis  = 0xC0
	PortAll   = 8
	PortUSB1  = 13
	PortICOM1 = 23
)

type logWire struct {
	Port        uint32
	Message     uint16
	MessageType uint8
	Reserved    uint8
	Trigger     uint32
	Period      float64
	Offset      float64
	Hold        uint32
}

// Log asks the receiver to output a message (command 1).
type Log struct {
	Header  `json:"header"`
	Port    uint32  `json:"port"`
	Message uint16  `json:"message"`
	Format  uint8   `json:"format"` // message type byte
	Trigger uint32  `json:"trigger"`
	Period  float64 `json:"period"`
	Offset  float64 `json:"offset"`
	Hold    bool    `json:"hold"`
}

// NewLog requests message id on this port at the given period; a zero
// period asks for it once.
func NewLog(id uint16, period time.Duration) *Log {
	l := &Log{Port: PortThis, Message: id, Trigger: OnOnce}
	if period > 0 {
		l.Trigger = OnTime
		l.Period = period.Seconds()
	}
	return l
}

func (m *Log) Protocol() gnss.Protocol { return gnss.ProtocolOEM }
func (m *Log) Key() string             { return KeyString(IDLog) }
func (m *Log) MessageID() uint16       { return IDLog }

func (m *Log) Decode(body []byte, _ time.Time) error {
	var w logWire
	if err := readBody("LOG", body, &w); err != nil {
		return err
	}
	m.Port = w.Port
	m.Message = w.Message
	m.Format = w.MessageType
	m.Trigger = w.Trigger
	m.Period = w.Period
	m.Offset = w.Offset
	m.Hold = w.Hold != 0
	return nil
}

func (m *Log) Encode() ([]byte, error) {
	w := logWire{
		Port:        m.Port,
		Message:     m.Message,
		MessageType: m.Format,
		Trigger:     m.Trigger,
		Period:      m.Period,
		Offset:      m.Offset,
	}
	if m.Hold {
		w.Hold = 1
	}
	return gnss.AppendLE(nil, &w)
}
