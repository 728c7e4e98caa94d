package rtcm3

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry holding every supported message
// number. Callers may add their own decoders before handing it to a parser.
func NewRegistry() *gnss.Registry[uint16] {
	r := gnss.NewRegistry[uint16](gnss.ProtocolRTCM3)
	station := func() gnss.Decoder { return &StationARP{} }
	r.MustRegister(1005, station)
	r.MustRegister(1006, station)
	antenna := func() gnss.Decoder { return &AntennaDescriptor{} }
	r.MustRegister(1007, antenna)
	r.MustRegister(1008, antenna)
	r.MustRegister(1033, antenna)
	r.MustRegister(1019, func() gnss.Decoder { return &GPSEphemeris{} })
	r.MustRegister(1020, func() gnss.Decoder { return &GLONASSEphemeris{} })
	r.MustRegister(1230, func() gnss.Decoder { return &GLONASSBiases{} })
	msm := func() gnss.Decoder { return &MSM{} }
	for base := range msmBase {
		for level := uint16(4); level <= 7; level++ {
			r.MustRegister(base+level, msm)
		}
	}
	return r
}
