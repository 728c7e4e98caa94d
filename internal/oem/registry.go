package oem

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry of the decoded message ids.
func NewRegistry() *gnss.Registry[uint16] {
	r := gnss.NewRegistry[uint16](gnss.ProtocolOEM)
	r.MustRegister(IDLog, func() gnss.Decoder { return &Log{} })
	r.MustRegister(IDVersion, func() gnss.Decoder { return &Version{} })
	r.MustRegister(IDBestPos, func() gnss.Decoder { return &BestPos{} })
	r.MustRegister(IDBestXYZ, func() gnss.Decoder { return &BestXYZ{} })
	return r
}
