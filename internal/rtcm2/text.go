package rtcm2

import (
	"fmt"
	"strings"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/gnss"
)

// SpecialMessage is message type 16, free text. Unused characters of the
// last word are NUL.
type SpecialMessage struct {
	Header Header `json:"header"`
	Text   string `json:"text"`
}

func (m *SpecialMessage) Protocol() gnss.Protocol { return gnss.ProtocolRTCM2 }
func (m *SpecialMessage) Key() string             { return "16" }

func (m *SpecialMessage) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	h, err := readHeader(r, 16)
	if err != nil {
		return err
	}
	m.Header = h
	text := r.Bytes(int(h.Words) * wordBytes)
	if err := finishBody(r, h, body, 8); err != nil {
		return err
	}
	m.Text = strings.TrimRight(string(text), "\x00")
	return nil
}

func (m *SpecialMessage) Encode() ([]byte, error) {
	if strings.IndexByte(m.Text, 0) >= 0 {
		return nil, fmt.Errorf("rtcm2: 16: text contains NUL")
	}
	text := []byte(m.Text)
	for len(text)%wordBytes != 0 {
		text = append(text, 0)
	}
	w, err := newBody(m.Header, 16, len(text)*8)
	if err != nil {
		return nil, err
	}
	w.PutBytes(text)
	return closeBody(w)
}
