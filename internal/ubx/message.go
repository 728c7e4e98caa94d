package ubx

import (
	"fmt"

	"gnssrx/internal/gnss"
)

const (
	ClassNAV = 0x01
	ClassACK = 0x05
	ClassCFG = 0x06
	ClassMON = 0x0A
)

// Message keys, class<<8 | id.
const (
	KeyNavPosECEF uint16 = 0x0101
	KeyNavPVT     uint16 = 0x0107
	KeyNavSVIN    uint16 = 0x013B
	KeyAckNak     uint16 = 0x0500
	KeyAckAck     uint16 = 0x0501
	KeyCfgMsg     uint16 = 0x0601
	KeyCfgRst     uint16 = 0x0604
	KeyCfgRate    uint16 = 0x0608
	KeyCfgTMode3  uint16 = 0x0671
	KeyMonVer     uint16 = 0x0A04
)

// Message is a UBX message that can be sent as well as received.
type Message interface {
	gnss.Encoder
	// ID is the class<<8 | id key.
	ID() uint16
}

// Poll requests a message by sending its class and id with no payload.
type Poll struct {
	Target uint16
}

func (m Poll) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m Poll) Key() string             { return KeyString(m.Target) }
func (m Poll) ID() uint16              { return m.Target }
func (m Poll) Encode() ([]byte, error) { return []byte{}, nil }

func readPayload(name string, payload []byte, v any) error {
	if err := gnss.ReadLE(payload, v); err != nil {
		return fmt.Errorf("ubx: %s: %w", name, err)
	}
	return nil
}
