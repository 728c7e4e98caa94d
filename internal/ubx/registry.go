package ubx

import "gnssrx/internal/gnss"

// NewRegistry returns an unsealed registry of the supported class/id keys.
func NewRegistry() *gnss.Registry[uint16] {
	r := gnss.NewRegistry[uint16](gnss.ProtocolUBX)
	r.MustRegister(KeyAckAck, func() gnss.Decoder { return &Ack{Acked: true} })
	r.MustRegister(KeyAckNak, func() gnss.Decoder { return &Ack{} })
	r.MustRegister(KeyNavPVT, func() gnss.Decoder { return &NavPVT{} })
	r.MustRegister(KeyNavPosECEF, func() gnss.Decoder { return &NavPosECEF{} })
	r.MustRegister(KeyNavSVIN, func() gnss.Decoder { return &NavSVIN{} })
	r.MustRegister(KeyMonVer, func() gnss.Decoder { return &MonVer{} })
	r.MustRegister(KeyCfgTMode3, func() gnss.Decoder { return &CfgTMode3{} })
	r.MustRegister(KeyCfgMsg, func() gnss.Decoder { return &CfgMsg{} })
	r.MustRegister(KeyCfgRate, func() gnss.Decoder { return &CfgRate{} })
	r.MustRegister(KeyCfgRst, func() gnss.Decoder { return &CfgRst{} })
	return r
}
