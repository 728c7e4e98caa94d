package rtcm2

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry of the supported message types.
func NewRegistry() *gnss.Registry[uint8] {
	r := gnss.NewRegistry[uint8](gnss.ProtocolRTCM2)
	corrections := func() gnss.Decoder { return &Corrections{} }
	r.MustRegister(1, corrections)
	r.MustRegister(9, corrections)
	r.MustRegister(3, func() gnss.Decoder { return &ReferenceStation{} })
	r.MustRegister(14, func() gnss.Decoder { return &GPSTimeOfWeek{} })
	r.MustRegister(16, func() gnss.Decoder { return &SpecialMessage{} })
	return r
}
