package nmea

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry of the decoded sentence types.
// Callers may add proprietary addresses before handing it to a parser.
func NewRegistry() *gnss.Registry[string] {
	r := gnss.NewRegistry[string](gnss.ProtocolNMEA)
	r.MustRegister(TypeGGA, func() gnss.Decoder { return &GGA{} })
	r.MustRegister(TypeGLL, func() gnss.Decoder { return &GLL{} })
	r.MustRegister(TypeGSA, func() gnss.Decoder { return &GSA{} })
	r.MustRegister(TypeGST, func() gnss.Decoder { return &GST{} })
	r.MustRegister(TypeGSV, func() gnss.Decoder { return &GSV{} })
	r.MustRegister(TypeRMC, func() gnss.Decoder { return &RMC{} })
	r.MustRegister(TypeVTG, func() gnss.Decoder { return &VTG{} })
	r.MustRegister(TypeZDA, func() gnss.Decoder { return &ZDA{} })
	return r
}
