package link

import (
	"encoding/binary"
	"fmt"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
)

// Message ids.
const (
	IDHeartbeat  uint16 = 0x0001
	IDDeviceInfo uint16 = 0x0002
	IDAck        uint16 = 0x00FF
	IDModeConfig uint16 = 0x0100
)

// Well-known node addresses.
const (
	NodeHost      = 0x00
	NodeReceiver  = 0x01
	NodeBroadcast = 0xFF
)

// Envelope is the per-frame addressing the parser fills after decoding.
type Envelope struct {
	Seq    uint16 `json:"seq"`
	Sender uint8  `json:"sender"`
	Target uint8  `json:"target"`
}

func (e *Envelope) SetEnvelope(v Envelope)  { *e = v }
func (e *Envelope) FrameEnvelope() Envelope { return *e }

// Message is a link message that can be sent as well as received.
type Message interface {
	gnss.Encoder
	MessageID() uint16
	FrameEnvelope() Envelope
}

func wantLen(name string, payload []byte, n int) error {
	if len(payload) != n {
		return fmt.Errorf("link: %s: payload length %d, want %d", name, len(payload), n)
	}
	return nil
}

// Operating modes reported by Heartbeat and set by ModeConfig.
const (
	ModeIdle     = 0
	ModeSurveyIn = 1
	ModeFixed    = 2
	ModeRover    = 3
)

const heartbeatLen = 7

// Heartbeat is sent once per second by each node.
type Heartbeat struct {
	Envelope
	Mode    uint8         `json:"mode"`
	FixType uint8         `json:"fix_type"`
	NumSV   *uint8        `json:"num_sv,omitempty"`
	Uptime  time.Duration `json:"uptime"`
}

func (m *Heartbeat) Protocol() gnss.Protocol { return gnss.ProtocolLink }
func (m *Heartbeat) Key() string             { return KeyString(IDHeartbeat) }
func (m *Heartbeat) MessageID() uint16       { return IDHeartbeat }

func (m *Heartbeat) Decode(payload []byte, _ time.Time) error {
	if err := wantLen("heartbeat", payload, heartbeatLen); err != nil {
		return err
	}
	m.Mode = payload[0]
	m.FixType = payload[1]
	m.NumSV = nil
	if payload[2] != 0xFF {
		n := payload[2]
		m.NumSV = &n
	}
	m.Uptime = time.Duration(binary.LittleEndian.Uint32(payload[3:7])) * time.Second
	return nil
}

func (m *Heartbeat) Encode() ([]byte, error) {
	out := make([]byte, heartbeatLen)
	out[0] = m.Mode
	out[1] = m.FixType
	out[2] = 0xFF
	if m.NumSV != nil {
		if *m.NumSV == 0xFF {
			return nil, fmt.Errorf("link: heartbeat satellite count 255 is reserved")
		}
		out[2] = *m.NumSV
	}
	binary.LittleEndian.PutUint32(out[3:], uint32(m.Uptime/time.Second))
	return out, nil
}

const infoField = 16

// DeviceInfo identifies a node.
type DeviceInfo struct {
	Envelope
	Hardware string `json:"hardware"`
	Firmware string `json:"firmware"`
	Serial   string `json:"serial"`
}

func (m *DeviceInfo) Protocol() gnss.Protocol { return gnss.ProtocolLink }
func (m *DeviceInfo) Key() string             { return KeyString(IDDeviceInfo) }
func (m *DeviceInfo) MessageID() uint16       { return IDDeviceInfo }

func (m *DeviceInfo) Decode(payload []byte, _ time.Time) error {
	if err := wantLen("device info", payload, 3*infoField); err != nil {
		return err
	}
	m.Hardware = gnss.CString(payload[0:infoField])
	m.Firmware = gnss.CString(payload[infoField : 2*infoField])
	m.Serial = gnss.CString(payload[2*infoField:])
	return nil
}

func (m *DeviceInfo) Encode() ([]byte, error) {
	out := make([]byte, 3*infoField)
	for i, s := range []string{m.Hardware, m.Firmware, m.Serial} {
		if err := gnss.PutCString(out[i*infoField:(i+1)*infoField], s); err != nil {
			return nil, fmt.Errorf("link: device info: %w", err)
		}
	}
	return out, nil
}

// Ack results.
const (
	AckOK          = 0
	AckRejected    = 1
	AckUnsupported = 2
)

const ackLen = 5

// Ack answers a command frame by id and sequence number.
type Ack struct {
	Envelope
	AckedID  uint16 `json:"acked_id"`
	AckedSeq uint16 `json:"acked_seq"`
	Result   uint8  `json:"result"`
}

func (m *Ack) Protocol() gnss.Protocol { return gnss.ProtocolLink }
func (m *Ack) Key() string             { return KeyString(IDAck) }
func (m *Ack) MessageID() uint16       { return IDAck }

// OK reports an accepted command.
func (m *Ack) OK() bool { return m.Result == AckOK }

func (m *Ack) Decode(payload []byte, _ time.Time) error {
	if err := wantLen("ack", payload, ackLen); err != nil {
		return err
	}
	m.AckedID = binary.LittleEndian.Uint16(payload[0:2])
	m.AckedSeq = binary.LittleEndian.Uint16(payload[2:4])
	m.Result = payload[4]
	return nil
}

func (m *Ack) Encode() ([]byte, error) {
	out := binary.LittleEndian.AppendUint16(make([]byte, 0, ackLen), m.AckedID)
	out = binary.LittleEndian.AppendUint16(out, m.AckedSeq)
	return append(out, m.Result), nil
}

// Fixed-point fields of ModeConfig.
var (
	modeAccuracy = bitfield.Fixed{Name: "accuracy", Bits: 32, Scale: 1e-4}
	modeLat      = bitfield.Fixed{Name: "lat", Bits: 32, Signed: true, Scale: 1e-7, Min: -90, Max: 90}
	modeLon      = bitfield.Fixed{Name: "lon", Bits: 32, Signed: true, Scale: 1e-7, Min: -180, Max: 180}
	modeAlt      = bitfield.Fixed{Name: "alt", Bits: 32, Signed: true, Scale: 1e-3}
)

const modeConfigLen = 21

// ModeConfig switches the receiver between survey-in and a fixed base
// position. Accuracy is the survey-in limit or the fixed position accuracy,
// in metres with 0.1 mm resolution. Position is used in fixed mode only.
type ModeConfig struct {
	Envelope
	Mode        uint8         `json:"mode"`
	AccuracyM   float64       `json:"accuracy_m"`
	MinDuration time.Duration `json:"min_duration"`
	Position    *geo.LLA      `json:"position,omitempty"`
}

func (m *ModeConfig) Protocol() gnss.Protocol { return gnss.ProtocolLink }
func (m *ModeConfig) Key() string             { return KeyString(IDModeConfig) }
func (m *ModeConfig) MessageID() uint16       { return IDModeConfig }

func (m *ModeConfig) Decode(payload []byte, _ time.Time) error {
	if err := wantLen("mode config", payload, modeConfigLen); err != nil {
		return err
	}
	le := binary.LittleEndian
	m.Mode = payload[0]
	if m.Mode > ModeRover {
		return fmt.Errorf("link: mode config: unknown mode %d", m.Mode)
	}
	m.AccuracyM, _, _ = modeAccuracy.Decode(int64(le.Uint32(payload[1:5])))
	m.MinDuration = time.Duration(le.Uint32(payload[5:9])) * time.Second
	m.Position = nil
	if m.Mode == ModeFixed {
		lat, _, _ := modeLat.Decode(int64(int32(le.Uint32(payload[9:13]))))
		lon, _, _ := modeLon.Decode(int64(int32(le.Uint32(payload[13:17]))))
		alt, _, _ := modeAlt.Decode(int64(int32(le.Uint32(payload[17:21]))))
		m.Position = &geo.LLA{LatDeg: lat, LonDeg: lon, AltM: alt}
	}
	return nil
}

// Encode returns the payload and a *bitfield.ClampError when a value was out
// of range; the payload is usable either way.
func (m *ModeConfig) Encode() ([]byte, error) {
	if m.Mode == ModeFixed && m.Position == nil {
		return nil, fmt.Errorf("link: mode config: fixed mode without position")
	}
	var clamped []string
	enc := func(f bitfield.Fixed, v float64) uint32 {
		raw, c := f.Encode(v)
		if c {
			clamped = append(clamped, f.Name)
		}
		return uint32(raw)
	}
	le := binary.LittleEndian
	out := make([]byte, modeConfigLen)
	out[0] = m.Mode
	le.PutUint32(out[1:5], enc(modeAccuracy, m.AccuracyM))
	le.PutUint32(out[5:9], uint32(m.MinDuration/time.Second))
	if m.Mode == ModeFixed {
		le.PutUint32(out[9:13], enc(modeLat, m.Position.LatDeg))
		le.PutUint32(out[13:17], enc(modeLon, m.Position.LonDeg))
		le.PutUint32(out[17:21], enc(modeAlt, m.Position.AltM))
	}
	if len(clamped) > 0 {
		return out, &bitfield.ClampError{Fields: clamped}
	}
	return out, nil
}
