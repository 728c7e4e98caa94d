package ubx

import (
	"fmt"
	"time"

	"gnssrx/internal/gnss"
)

const (
	monVerSW  = 30
	monVerHW  = 10
	monVerExt = 30
)

// MonVer is MON-VER: software and hardware versions plus extension strings
// such as "PROTVER=27.12".
type MonVer struct {
	Software   string   `json:"software"`
	Hardware   string   `json:"hardware"`
	Extensions []string `json:"extensions,omitempty"`
}

func (m *MonVer) Protocol() gnss.Protocol { return gnss.ProtocolUBX }
func (m *MonVer) Key() string             { return KeyString(KeyMonVer) }
func (m *MonVer) ID() uint16              { return KeyMonVer }

func (m *MonVer) Decode(payload []byte, _ time.Time) error {
	if len(payload) < monVerSW+monVerHW || (len(payload)-monVerSW-monVerHW)%monVerExt != 0 {
		return fmt.Errorf("ubx: MON-VER payload length %d", len(payload))
	}
	m.Software = gnss.CString(payload[:monVerSW])
	m.Hardware = gnss.CString(payload[monVerSW : monVerSW+monVerHW])
	m.Extensions = nil
	for off := monVerSW + monVerHW; off < len(payload); off += monVerExt {
		m.Extensions = append(m.Extensions, gnss.CString(payload[off:off+monVerExt]))
	}
	return nil
}

func (m *MonVer) Encode() ([]byte, error) {
	out := make([]byte, monVerSW+monVerHW+len(m.Extensions)*monVerExt)
	if err := gnss.PutCString(out[:monVerSW], m.Software); err != nil {
		return nil, fmt.Errorf("ubx: MON-VER: %w", err)
	}
	if err := gnss.PutCString(out[monVerSW:monVerSW+monVerHW], m.Hardware); err != nil {
		return nil, fmt.Errorf("ubx: MON-VER: %w", err)
	}
	for i, ext := range m.Extensions {
		off := monVerSW + monVerHW + i*monVerExt
		if err := gnss.PutCString(out[off:off+monVerExt], ext); err != nil {
			return nil, fmt.Errorf("ubx: MON-VER: %w", err)
		}
	}
	return out, nil
}

// Extension returns the value of a "KEY=value" extension.
func (m *MonVer) Extension(key string) (string, bool) {
	for _, ext := range m.Extensions {
		if len(ext) > len(key) && ext[len(key)] == '=' && ext[:len(key)] == key {
			return ext[len(key)+1:], true
		}
	}
	return "", false
}
