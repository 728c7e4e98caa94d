package sbf

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"gnssrx/internal/gnss"
	"gnssrx/internal/gnsstime"
)

// Block numbers.
const (
	BlockPVTCartesian uint16 = 4006
	BlockPVTGeodetic  uint16 = 4007
	BlockReceiverTime uint16 = 5914
	BlockEndOfPVT     uint16 = 5921
)

// Do-not-use values mark a field the receiver could not fill.
const (
	dnuFloat = -2e10
	dnuU1    = math.MaxUint8
	dnuU2    = math.MaxUint16
	dnuU4    = math.MaxUint32
	dnuI1    = math.MinInt8
)

// Block is an SBF block that can be sent as well as received.
type Block interface {
	gnss.Encoder
	BlockID() uint16
	Revision() uint8
}

// TimeStamp opens every block: receiver time of week and week number.
type TimeStamp struct {
	TOW *uint32 `json:"tow_ms,omitempty"`
	WNc *uint16 `json:"wnc,omitempty"`
}

// Time returns the GPS time of the block when both fields are valid.
func (ts TimeStamp) Time() (time.Time, bool) {
	if ts.TOW == nil || ts.WNc == nil {
		return time.Time{}, false
	}
	return gnsstime.GPSTime(int(*ts.WNc), float64(*ts.TOW)/1000), true
}

func readBody(name string, body []byte, v any) error {
	n := binary.Size(v)
	if len(body) < n {
		return fmt.Errorf("sbf: %s: body length %d, want %d", name, len(body), n)
	}
	// Padding and fields of newer revisions follow the known layout.
	if err := gnss.ReadLE(body[:n], v); err != nil {
		return fmt.Errorf("sbf: %s: %w", name, err)
	}
	return nil
}

func u4(v uint32) *uint32 {
	if v == dnuU4 {
		return nil
	}
	return &v
}

func u2(v uint16) *uint16 {
	if v == dnuU2 {
		return nil
	}
	return &v
}

func u1(v uint8) *uint8 {
	if v == dnuU1 {
		return nil
	}
	return &v
}

func f8(v float64) *float64 {
	if v == dnuFloat {
		return nil
	}
	return &v
}

func f4(v float32) *float64 {
	if v == dnuFloat {
		return nil
	}
	f := float64(v)
	return &f
}

func putU4(v *uint32) uint32 {
	if v == nil {
		return dnuU4
	}
	return *v
}

func putU2(v *uint16) uint16 {
	if v == nil {
		return dnuU2
	}
	return *v
}

func putU1(v *uint8) uint8 {
	if v == nil {
		return dnuU1
	}
	return *v
}

func putF8(v *float64) float64 {
	if v == nil {
		return dnuFloat
	}
	return *v
}

func putF4(v *float64) float32 {
	if v == nil {
		return dnuFloat
	}
	return float32(*v)
}
