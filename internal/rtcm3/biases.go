package rtcm3

import (
	"fmt"
	"time"

	"gnssrx/internal/bitfield"
	"gnssrx/internal/gnss"
)

var gloBias = bitfield.Fixed{Name: "bias", Bits: 16, Signed: true, Scale: 0.02, HasNull: true, Null: -32768}

// GLONASSBiasSignals names the four optional biases of message 1230 in wire
// order.
var GLONASSBiasSignals = [4]string{"L1 C/A", "L1 P", "L2 C/A", "L2 P"}

// GLONASSBiases is message 1230, GLONASS L1/L2 code-phase biases in metres.
// A nil entry is either not transmitted or flagged invalid.
type GLONASSBiases struct {
	StationID uint16      `json:"station_id"`
	Aligned   bool        `json:"aligned"`
	Biases    [4]*float64 `json:"biases_m"`
	// Present marks the entries included in the signal mask.
	Present [4]bool `json:"present"`
}

func (m *GLONASSBiases) Protocol() gnss.Protocol { return gnss.ProtocolRTCM3 }
func (m *GLONASSBiases) Key() string             { return "1230" }

func (m *GLONASSBiases) Decode(body []byte, _ time.Time) error {
	r := bitfield.NewReader(body, 0)
	if n := r.Uint(12); n != 1230 {
		return fmt.Errorf("rtcm3: message %d is not 1230", n)
	}
	m.StationID = uint16(r.Uint(12))
	m.Aligned = r.Bool()
	r.Skip(3)
	mask := r.Uint(4)
	for i := 0; i < 4; i++ {
		m.Present[i] = mask&(8>>uint(i)) != 0
		if m.Present[i] {
			m.Biases[i] = r.Fixed(gloBias)
		}
	}
	if err := r.Finish(len(body) * 8); err != nil {
		return fmt.Errorf("rtcm3: 1230: %w", err)
	}
	return nil
}

func (m *GLONASSBiases) Encode() ([]byte, error) {
	w := bitfield.NewWriter(12)
	w.PutUint(12, 1230)
	w.PutUint(12, uint32(m.StationID))
	w.PutBool(m.Aligned)
	w.PutUint(3, 0)
	var mask uint32
	for i := 0; i < 4; i++ {
		if m.Present[i] {
			mask |= 8 >> uint(i)
		}
	}
	w.PutUint(4, mask)
	for i := 0; i < 4; i++ {
		if m.Present[i] {
			w.PutFixed(gloBias, m.Biases[i])
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Clamped()
}
