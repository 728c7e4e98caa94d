package sbf

import (
	"fmt"
	"time"

	"gnssrx/internal/gnss"
)

type receiverTimeWire struct {
	TOW       uint32
	WNc       uint16
	Year      int8
	Month     int8
	Day       int8
	Hour      int8
	Minute    int8
	Second    int8
	DeltaLS   int8
	SyncLevel uint8
}

// ReceiverTime is the receiver's UTC clock and leap second count.
type ReceiverTime struct {
	TimeStamp
	// UTC is nil unless every calendar field was valid.
	UTC       *time.Time `json:"utc,omitempty"`
	DeltaLS   *int8      `json:"delta_ls,omitempty"`
	SyncLevel uint8      `json:"sync_level"`
}

func (m *ReceiverTime) Protocol() gnss.Protocol { return gnss.ProtocolSBF }
func (m *ReceiverTime) Key() string             { return KeyString(BlockReceiverTime) }
func (m *ReceiverTime) BlockID() uint16         { return BlockReceiverTime }
func (m *ReceiverTime) Revision() uint8         { return 0 }

func (m *ReceiverTime) Decode(body []byte, _ time.Time) error {
	var w receiverTimeWire
	if err := readBody("ReceiverTime", body, &w); err != nil {
		return err
	}
	*m = ReceiverTime{
		TimeStamp: TimeStamp{TOW: u4(w.TOW), WNc: u2(w.WNc)},
		SyncLevel: w.SyncLevel,
	}
	if w.DeltaLS != dnuI1 {
		ls := w.DeltaLS
		m.DeltaLS = &ls
	}
	fields := []int8{w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second}
	for _, f := range fields {
		if f == dnuI1 {
			return nil
		}
	}
	utc := time.Date(2000+int(w.Year), time.Month(w.Month), int(w.Day),
		int(w.Hour), int(w.Minute), int(w.Second), 0, time.UTC)
	m.UTC = &utc
	return nil
}

// Encode writes whole seconds; years outside 2000..2127 are an error.
func (m *ReceiverTime) Encode() ([]byte, error) {
	w := receiverTimeWire{
		TOW:       putU4(m.TOW),
		WNc:       putU2(m.WNc),
		Year:      dnuI1,
		Month:     dnuI1,
		Day:       dnuI1,
		Hour:      dnuI1,
		Minute:    dnuI1,
		Second:    dnuI1,
		DeltaLS:   dnuI1,
		SyncLevel: m.SyncLevel,
	}
	if m.DeltaLS != nil {
		w.DeltaLS = *m.DeltaLS
	}
	if m.UTC != nil {
		t := m.UTC.UTC()
		if t.Year() < 2000 || t.Year() > 2127 {
			return nil, fmt.Errorf("sbf: ReceiverTime year %d out of range", t.Year())
		}
		w.Year = int8(t.Year() - 2000)
		w.Month = int8(t.Month())
		w.Day = int8(t.Day())
		w.Hour = int8(t.Hour())
		w.Minute = int8(t.Minute())
		w.Second = int8(t.Second())
	}
	return gnss.AppendLE(nil, &w)
}

type endOfPVTWire struct {
	TOW uint32
	WNc uint16
}

// EndOfPVT closes the PVT blocks of one epoch.
type EndOfPVT struct {
	TimeStamp
}

func (m *EndOfPVT) Protocol() gnss.Protocol { return gnss.ProtocolSBF }
func (m *EndOfPVT) Key() string             { return KeyString(BlockEndOfPVT) }
func (m *EndOfPVT) BlockID() uint16         { return BlockEndOfPVT }
func (m *EndOfPVT) Revision() uint8         { return 0 }

func (m *EndOfPVT) Decode(body []byte, _ time.Time) error {
	var w endOfPVTWire
	if err := readBody("EndOfPVT", body, &w); err != nil {
		return err
	}
	m.TimeStamp = TimeStamp{TOW: u4(w.TOW), WNc: u2(w.WNc)}
	return nil
}

func (m *EndOfPVT) Encode() ([]byte, error) {
	return gnss.AppendLE(nil, &endOfPVTWire{TOW: putU4(m.TOW), WNc: putU2(m.WNc)})
}
