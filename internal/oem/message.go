package oem

import (
	"fmt"

	"gnssrx/internal/gnss"
)

// Message ids.
const (
	IDLog     uint16 = 1
	IDVersion uint16 = 37
	IDBestPos uint16 = 42
	IDBestXYZ uint16 = 241
)

// Message is a log or command that can be framed. Messages embed Header,
// which the parser fills after decoding.
type Message interface {
	gnss.Encoder
	MessageID() uint16
	FrameHeader() Header
}

// Solution status values.
const (
	SolComputed        = 0
	SolInsufficientObs = 1
	SolNoConvergence   = 2
	SolSingularity     = 3
	SolCovTrace        = 4
	SolTestDist        = 5
	SolColdStart       = 6
	SolVHLimit         = 7
	SolVariance        = 8
	SolResiduals       = 9
	SolIntegrityWarn   = 13
	SolPending         = 18
	SolInvalidFix      = 19
	SolUnauthorized    = 20
)

// Position and velocity types.
const (
	PosNone            = 0
	PosFixedPos        = 1
	PosFixedHeight     = 2
	PosDopplerVelocity = 8
	PosSingle          = 16
	PosPSRDiff         = 17
	PosWAAS            = 18
	PosPropagated      = 19
	PosL1Float         = 32
	PosNarrowFloat     = 34
	PosL1Int           = 48
	PosWideInt         = 49
	PosNarrowInt       = 50
	PosPPPConverging   = 68
	PosPPP             = 69
)

var posTypeNames = map[uint32]string{
	PosNone:            "NONE",
	PosFixedPos:        "FIXEDPOS",
	PosFixedHeight:     "FIXEDHEIGHT",
	PosDopplerVelocity: "DOPPLER_VELOCITY",
	PosSingle:          "SINGLE",
	PosPSRDiff:         "PSRDIFF",
	PosWAAS:            "WAAS",
	PosPropagated:      "PROPAGATED",
	PosL1Float:         "L1_FLOAT",
	PosNarrowFloat:     "NARROW_FLOAT",
	PosL1Int:           "L1_INT",
	PosWideInt:         "WIDE_INT",
	PosNarrowInt:       "NARROW_INT",
	PosPPPConverging:   "PPP_CONVERGING",
	PosPPP:             "PPP",
}

// PosTypeName returns the receiver's name for a position type.
func PosTypeName(t uint32) string {
	if s, ok := posTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("POSTYPE(%d)", t)
}

func readBody(name string, body []byte, v any) error {
	if err := gnss.ReadLE(body, v); err != nil {
		return fmt.Errorf("oem: %s: %w", name, err)
	}
	return nil
}
