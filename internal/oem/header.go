package oem

import (
	"encoding/binary"
	"fmt"
	"time"

	"gnssrx/internal/gnsstime"
)

const (
	Sync1    = 0xAA
	Sync2    = 0x44
	SyncLong = 0x12
	// SyncShort introduces the 12-byte header variant.
	SyncShort = 0x13

	LongHeaderLen  = 28
	ShortHeaderLen = 12
	crcLen         = 4
)

// Time status values of the header, ordered by quality.
const (
	TimeUnknown            = 20
	TimeApproximate        = 60
	TimeCoarseAdjusting    = 80
	TimeCoarse             = 100
	TimeCoarseSteering     = 120
	TimeFreeWheeling       = 130
	TimeFineAdjusting      = 140
	TimeFine               = 160
	TimeFineBackupSteering = 170
	TimeFineSteering       = 180
	TimeSatTime            = 200
)

// Header is the decoded frame header. The short variant carries only the
// message id, week and milliseconds.
type Header struct {
	Short          bool   `json:"short"`
	MessageID      uint16 `json:"message_id"`
	MessageType    uint8  `json:"message_type"`
	Port           uint8  `json:"port"`
	Sequence       uint16 `json:"sequence"`
	IdleTime       uint8  `json:"idle_time"`
	TimeStatus     uint8  `json:"time_status"`
	Week           uint16 `json:"week"`
	Milliseconds   uint32 `json:"milliseconds"`
	ReceiverStatus uint32 `json:"receiver_status"`
	SWVersion      uint16 `json:"sw_version"`
}

// SetHeader is called by the parser after the body decoded.
func (h *Header) SetHeader(v Header) { *h = v }

// FrameHeader returns the header used when the message is framed.
func (h *Header) FrameHeader() Header { return *h }

// Time returns the GPS time of the message. The short header carries no
// time status, so it is always considered usable.
func (h *Header) Time() (time.Time, bool) {
	if !h.Short && h.TimeStatus < TimeCoarse {
		return time.Time{}, false
	}
	return gnsstime.GPSTime(int(h.Week), float64(h.Milliseconds)/1000), true
}

func (h *Header) headerLen() int {
	if h.Short {
		return ShortHeaderLen
	}
	return LongHeaderLen
}

// parseHeader decodes the header of a frame whose sync bytes and lengths
// the parser has already checked.
func parseHeader(frame []byte) Header {
	le := binary.LittleEndian
	if frame[2] == SyncShort {
		return Header{
			Short:        true,
			MessageID:    le.Uint16(frame[4:6]),
			Week:         le.Uint16(frame[6:8]),
			Milliseconds: le.Uint32(frame[8:12]),
		}
	}
	return Header{
		MessageID:      le.Uint16(frame[4:6]),
		MessageType:    frame[6],
		Port:           frame[7],
		Sequence:       le.Uint16(frame[10:12]),
		IdleTime:       frame[12],
		TimeStatus:     frame[13],
		Week:           le.Uint16(frame[14:16]),
		Milliseconds:   le.Uint32(frame[16:20]),
		ReceiverStatus: le.Uint32(frame[20:24]),
		SWVersion:      le.Uint16(frame[26:28]),
	}
}

// appendHeader writes h for a body of n bytes.
func appendHeader(dst []byte, h Header, n int) ([]byte, error) {
	le := binary.LittleEndian
	if h.Short {
		if n > 0xFF {
			return nil, fmt.Errorf("oem: short header body length %d exceeds 255", n)
		}
		dst = append(dst, Sync1, Sync2, SyncShort, byte(n))
		dst = le.AppendUint16(dst, h.MessageID)
		dst = le.AppendUint16(dst, h.Week)
		return le.AppendUint32(dst, h.Milliseconds), nil
	}
	if n > MaxPayload {
		return nil, fmt.Errorf("oem: body length %d exceeds %d", n, MaxPayload)
	}
	dst = append(dst, Sync1, Sync2, SyncLong, LongHeaderLen)
	dst = le.AppendUint16(dst, h.MessageID)
	dst = append(dst, h.MessageType, h.Port)
	dst = le.AppendUint16(dst, uint16(n))
	dst = le.AppendUint16(dst, h.Sequence)
	dst = append(dst, h.IdleTime, h.TimeStatus)
	dst = le.AppendUint16(dst, h.Week)
	dst = le.AppendUint32(dst, h.Milliseconds)
	dst = le.AppendUint32(dst, h.ReceiverStatus)
	dst = le.AppendUint16(dst, 0)
	return le.AppendUint16(dst, h.SWVersion), nil
}
