package rtcm2

import (
	"fmt"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/checksum"
)

// Header is the two-word header shared by every RTCM v2 message.
type Header struct {
	Type      uint8  `json:"type"`
	StationID uint16 `json:"station_id"`
	// ZCount is the modified z-count in 0.6 s units within the hour.
	ZCount uint16 `json:"z_count"`
	Seq    uint8  `json:"seq"`
	// Words is the number of data words after the header.
	Words  uint8 `json:"words"`
	Health uint8 `json:"health"`
}

// Seconds is the reference time within the hour.
func (h Header) Seconds() float64 { return float64(h.ZCount) * 0.6 }

func readHeader(r *bitfield.Reader, want uint8) (Header, error) {
	var h Header
	if pre := r.Uint(8); pre != checksum.Preamble {
		return h, fmt.Errorf("rtcm2: preamble 0x%02X", pre)
	}
	h.Type = uint8(r.Uint(6))
	h.StationID = uint16(r.Uint(10))
	h.ZCount = uint16(r.Uint(13))
	h.Seq = uint8(r.Uint(3))
	h.Words = uint8(r.Uint(5))
	h.Health = uint8(r.Uint(3))
	if err := r.Err(); err != nil {
		return h, fmt.Errorf("rtcm2: header: %w", err)
	}
	if want != 0 && h.Type != want {
		return h, fmt.Errorf("rtcm2: message %d is not %d", h.Type, want)
	}
	return h, nil
}

// finishBody checks that the reader consumed every bit except fill shorter
// than one record of recordBits.
func finishBody(r *bitfield.Reader, h Header, body []byte, recordBits int) error {
	if err := r.Err(); err != nil {
		return fmt.Errorf("rtcm2: %d: %w", h.Type, err)
	}
	if len(body) != headerLen+int(h.Words)*wordBytes {
		return fmt.Errorf("rtcm2: %d: %d bytes for %d words", h.Type, len(body), h.Words)
	}
	if left := len(body)*8 - r.Pos(); left < 0 || left >= recordBits {
		return fmt.Errorf("rtcm2: %d: %d bits left over", h.Type, left)
	}
	return nil
}

// newBody starts a message whose payload is payloadBits long.
func newBody(h Header, typ uint8, payloadBits int) (*bitfield.Writer, error) {
	words := (payloadBits + 23) / 24
	if words > MaxWords {
		return nil, fmt.Errorf("rtcm2: %d: %d data words exceed %d", typ, words, MaxWords)
	}
	w := bitfield.NewWriter(headerLen + words*wordBytes)
	w.PutUint(8, checksum.Preamble)
	w.PutUint(6, uint32(typ))
	w.PutUint(10, uint32(h.StationID))
	w.PutUint(13, uint32(h.ZCount))
	w.PutUint(3, uint32(h.Seq))
	w.PutUint(5, uint32(words))
	w.PutUint(3, uint32(h.Health))
	return w, nil
}

// closeBody pads the last word with alternating fill bits.
func closeBody(w *bitfield.Writer) ([]byte, error) {
	for i := 0; w.Pos()%24 != 0; i++ {
		w.PutUint(1, uint32(1-i%2))
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Clamped()
}
