package link

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry of the link message ids.
func NewRegistry() *gnss.Registry[uint16] {
	r := gnss.NewRegistry[uint16](gnss.ProtocolLink)
	r.MustRegister(IDHeartbeat, func() gnss.Decoder { return &Heartbeat{} })
	r.MustRegister(IDDeviceInfo, func() gnss.Decoder { return &DeviceInfo{} })
	r.MustRegister(IDAck, func() gnss.Decoder { return &Ack{} })
	r.MustRegister(IDModeConfig, func() gnss.Decoder { return &ModeConfig{} })
	return r
}
