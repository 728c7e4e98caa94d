package oem

import (
	"fmt"
	"time"

	"gnssrx/internal/gnss"
)

// Component types reported by VERSION.
const (
	ComponentUnknown   = 0
	ComponentGPSCard   = 1
	ComponentControl   = 2
	ComponentEnclosure = 3
	ComponentDB        = 981073920
)

type componentWire struct {
	Type        uint32
	Model       [16]byte
	PSN         [16]byte
	HWVersion   [16]byte
	SWVersion   [16]byte
	BootVersion [16]byte
	CompDate    [12]byte
	CompTime    [12]byte
}

const componentLen = 108

// Component is one VERSION entry with its text fields trimmed at NUL.
type Component struct {
	Type        uint32 `json:"type"`
	Model       string `json:"model"`
	PSN         string `json:"psn"`
	HWVersion   string `json:"hw_version"`
	SWVersion   string `json:"sw_version"`
	BootVersion string `json:"boot_version"`
	CompDate    string `json:"comp_date"`
	CompTime    string `json:"comp_time"`
}

// Version lists the receiver's hardware and firmware components (message 37).
type Version struct {
	Header     `json:"header"`
	Components []Component `json:"components"`
}

func (m *Version) Protocol() gnss.Protocol { return gnss.ProtocolOEM }
func (m *Version) Key() string             { return KeyString(IDVersion) }
func (m *Version) MessageID() uint16       { return IDVersion }

func (m *Version) Decode(body []byte, _ time.Time) error {
	if len(body) < 4 {
		return fmt.Errorf("oem: VERSION: body length %d", len(body))
	}
	var count uint32
	if err := readBody("VERSION", body[:4], &count); err != nil {
		return err
	}
	if want := 4 + int(count)*componentLen; count > MaxPayload/componentLen || len(body) != want {
		return fmt.Errorf("oem: VERSION: %d components in %d bytes", count, len(body))
	}
	m.Components = make([]Component, count)
	for i := range m.Components {
		var w componentWire
		off := 4 + i*componentLen
		if err := readBody("VERSION", body[off:off+componentLen], &w); err != nil {
			return err
		}
		m.Components[i] = Component{
			Type:        w.Type,
			Model:       gnss.CString(w.Model[:]),
			PSN:         gnss.CString(w.PSN[:]),
			HWVersion:   gnss.CString(w.HWVersion[:]),
			SWVersion:   gnss.CString(w.SWVersion[:]),
			BootVersion: gnss.CString(w.BootVersion[:]),
			CompDate:    gnss.CString(w.CompDate[:]),
			CompTime:    gnss.CString(w.CompTime[:]),
		}
	}
	return nil
}

func (m *Version) Encode() ([]byte, error) {
	out, err := gnss.AppendLE(make([]byte, 0, 4+len(m.Components)*componentLen), uint32(len(m.Components)))
	if err != nil {
		return nil, err
	}
	for i, c := range m.Components {
		w := componentWire{Type: c.Type}
		for _, f := range []struct {
			dst []byte
			s   string
		}{
			{w.Model[:], c.Model},
			{w.PSN[:], c.PSN},
			{w.HWVersion[:], c.HWVersion},
			{w.SWVersion[:], c.SWVersion},
			{w.BootVersion[:], c.BootVersion},
			{w.CompDate[:], c.CompDate},
			{w.CompTime[:], c.CompTime},
		} {
			if err := gnss.PutCString(f.dst, f.s); err != nil {
				return nil, fmt.Errorf("oem: VERSION component %d: %w", i, err)
			}
		}
		if out, err = gnss.AppendLE(out, &w); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GPSCard returns the receiver card component, if listed.
func (m *Version) GPSCard() (Component, bool) {
	for _, c := range m.Components {
		if c.Type == ComponentGPSCard {
			return c, true
		}
	}
	return Component{}, false
}
