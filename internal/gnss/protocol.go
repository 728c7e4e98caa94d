// Package gnss holds the types shared by every protocol codec: protocol ids,
// the message and decoder contracts, parse errors, sinks and the message
// registry.
package gnss

import (
	"fmt"
	"strings"
)

type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolRTCM2
	ProtocolRTCM3
	ProtocolOEM
	ProtocolUBX
	ProtocolNMEA
	ProtocolSBF
	ProtocolLink
)

var protocolNames = [...]string{
	ProtocolUnknown: "unknown",
	ProtocolRTCM2:   "rtcm2",
	ProtocolRTCM3:   "rtcm3",
	ProtocolOEM:     "oem",
	ProtocolUBX:     "ubx",
	ProtocolNMEA:    "nmea",
	ProtocolSBF:     "sbf",
	ProtocolLink:    "link",
}

func (p Protocol) String() string {
	if int(p) < len(protocolNames) {
		return protocolNames[p]
	}
	return fmt.Sprintf("protocol(%d)", uint8(p))
}

// AllProtocols lists every supported protocol in multiplexer order.
func AllProtocols() []Protocol {
	return []Protocol{ProtocolRTCM3, ProtocolUBX, ProtocolNMEA, ProtocolRTCM2, ProtocolOEM, ProtocolSBF, ProtocolLink}
}

// ParseProtocol maps a configuration name to a Protocol.
func ParseProtocol(name string) (Protocol, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range protocolNames {
		if i != int(ProtocolUnknown) && s == n {
			return Protocol(i), nil
		}
	}
	return ProtocolUnknown, fmt.Errorf("unknown protocol %q", name)
}

func (p Protocol) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
