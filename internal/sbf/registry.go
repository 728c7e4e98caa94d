package sbf

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry of the decoded block numbers.
func NewRegistry() *gnss.Registry[uint16] {
	r := gnss.NewRegistry[uint16](gnss.ProtocolSBF)
	r.MustRegister(BlockPVTCartesian, func() gnss.Decoder { return &PVTCartesian{} })
	r.MustRegister(BlockPVTGeodetic, func() gnss.Decoder { return &PVTGeodetic{} })
	r.MustRegister(BlockReceiverTime, func() gnss.Decoder { return &ReceiverTime{} })
	r.MustRegister(BlockEndOfPVT, func() gnss.Decoder { return &EndOfPVT{} })
	return r
}
