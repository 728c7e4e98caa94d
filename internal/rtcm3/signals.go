package rtcm3

import "fmt"

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// RangeMs is the distance light travels in one millisecond.
const RangeMs = SpeedOfLight * 0.001

// System is a GNSS constellation carried by MSM messages.
type System uint8

const (
	SystemGPS System = iota + 1
	SystemGLONASS
	SystemGalileo
	SystemSBAS
	SystemQZSS
	SystemBeiDou
)

var systemNames = map[System]string{
	SystemGPS:     "gps",
	SystemGLONASS: "glonass",
	SystemGalileo: "galileo",
	SystemSBAS:    "sbas",
	SystemQZSS:    "qzss",
	SystemBeiDou:  "beidou",
}

func (s System) String() string {
	if n, ok := systemNames[s]; ok {
		return n
	}
	return fmt.Sprintf("system(%d)", uint8(s))
}

func (s System) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// msmBase maps the MSM message block (number/10*10) to a system.
var msmBase = map[uint16]System{
	1070: SystemGPS,
	1080: SystemGLONASS,
	1090: SystemGalileo,
	1100: SystemSBAS,
	1110: SystemQZSS,
	1120: SystemBeiDou,
}

func systemBase(s System) uint16 {
	for base, sys := range msmBase {
		if sys == s {
			return base
		}
	}
	return 0
}

// signal codes by MSM signal id (1-based), in RINEX observation code form
var signalCodes = map[System]map[int]string{
	SystemGPS: {
		2: "1C", 3: "1P", 4: "1W", 8: "2C", 9: "2P", 10: "2W", 15: "2S", 16: "2L", 17: "2X",
		22: "5I", 23: "5Q", 24: "5X", 30: "1S", 31: "1L", 32: "1X",
	},
	SystemGLONASS: {2: "1C", 3: "1P", 8: "2C", 9: "2P"},
	SystemGalileo: {
		2: "1C", 3: "1A", 4: "1B", 5: "1X", 6: "1Z", 8: "6C", 9: "6A", 10: "6B", 11: "6X", 12: "6Z",
		14: "7I", 15: "7Q", 16: "7X", 18: "8I", 19: "8Q", 20: "8X", 22: "5I", 23: "5Q", 24: "5X",
	},
	SystemSBAS: {2: "1C", 22: "5I", 23: "5Q", 24: "5X"},
	SystemQZSS: {
		2: "1C", 9: "6S", 10: "6L", 11: "6X", 15: "2S", 16: "2L", 17: "2X", 22: "5I", 23: "5Q", 24: "5X",
		30: "1S", 31: "1L", 32: "1X",
	},
	SystemBeiDou: {
		2: "2I", 3: "2Q", 4: "2X", 8: "6I", 9: "6Q", 10: "6X", 14: "7I", 15: "7Q", 16: "7X",
		22: "5D", 23: "5P", 24: "5X", 25: "7D", 30: "1D", 31: "1P", 32: "1X",
	},
}

// SignalCode returns the observation code for an MSM signal id, or "" when
// the id is unassigned.
func SignalCode(s System, id int) string {
	return signalCodes[s][id]
}

// Carrier frequencies in Hz.
const (
	FreqL1  = 1.57542e9
	FreqL2  = 1.22760e9
	FreqL5  = 1.17645e9
	FreqE6  = 1.27875e9
	FreqE5b = 1.20714e9
	FreqE5  = 1.191795e9
	FreqB1  = 1.561098e9
	FreqB3  = 1.26852e9
	FreqG1  = 1.602e9
	FreqDG1 = 0.5625e6
	FreqG2  = 1.246e9
	FreqDG2 = 0.4375e6
)

// CarrierFrequency returns the carrier for a signal code. GLONASS needs the
// frequency channel number k; ok is false when it is not known.
func CarrierFrequency(s System, code string, k *int) (float64, bool) {
	if code == "" {
		return 0, false
	}
	band := code[0]
	switch s {
	case SystemGLONASS:
		if k == nil {
			return 0, false
		}
		switch band {
		case '1':
			return FreqG1 + FreqDG1*float64(*k), true
		case '2':
			return FreqG2 + FreqDG2*float64(*k), true
		}
	case SystemBeiDou:
		switch band {
		case '1':
			return FreqL1, true
		case '2':
			return FreqB1, true
		case '5':
			return FreqL5, true
		case '6':
			return FreqB3, true
		case '7':
			return FreqE5b, true
		}
	case SystemGalileo:
		switch band {
		case '1':
			return FreqL1, true
		case '5':
			return FreqL5, true
		case '6':
			return FreqE6, true
		case '7':
			return FreqE5b, true
		case '8':
			return FreqE5, true
		}
	default:
		switch band {
		case '1':
			return FreqL1, true
		case '2':
			return FreqL2, true
		case '5':
			return FreqL5, true
		case '6':
			return FreqE6, true
		}
	}
	return 0, false
}
