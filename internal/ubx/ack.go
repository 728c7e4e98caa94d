package ubx

import (
	"fmt"
	"time"

	"gnssrx/internal/gnss"
)

// Ack is ACK-ACK or ACK-NAK for the message named by Class and MsgID.
type Ack struct {
	Acked bool  `json:"acked"`
	Class uint8 `json:"class"`
	MsgID uint8 `json:"msg_id"`
}

func (m *Ack) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *Ack) Key() string             { return KeyString(m.ID()) }

func (m *Ack) ID() uint16 {
	if m.Acked {
		return KeyAckAck
	}
	return KeyAckNak
}

// For reports the key of the acknowledged message.
func (m *Ack) For() uint16 { return uint16(m.Class)<<8 | uint16(m.MsgID) }

func (m *Ack) Decode(payload []byte, _ time.Time) error {
	if len(payload) != 2 {
		return fmt.Errorf("ubx: ack payload length %d", len(payload))
	}
	m.Class, m.MsgID = payload[0], payload[1]
	return nil
}

func (m *Ack) Encode() ([]byte, error) {
	return []byte{m.Class, m.MsgID}, nil
}
