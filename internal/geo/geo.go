// Package geo converts between WGS84 Earth-centred Earth-fixed coordinates
// and geodetic latitude, longitude and ellipsoidal height.
package geo

import "math"

const (
	// WGS84 semi-major axis (m) and flattening.
	SemiMajor  = 6378137.0
	Flattening = 1.0 / 298.257223563

	// convergence threshold on the iterated z term (m)
	convergence = 1e-4
	maxIter     = 20
)

var eccSq = Flattening * (2 - Flattening)

type ECEF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type LLA struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	AltM   float64 `json:"alt_m"`
}

// ToLLA converts ECEF metres to geodetic coordinates by iterating on the
// prime vertical radius until the z term moves less than 0.1 mm.
func (p ECEF) ToLLA() LLA {
	r2 := p.X*p.X + p.Y*p.Y
	z, zk, v := p.Z, 0.0, SemiMajor
	for i := 0; i < maxIter && math.Abs(z-zk) >= convergence; i++ {
		zk = z
		sinp := z / math.Sqrt(r2+z*z)
		v = SemiMajor / math.Sqrt(1-eccSq*sinp*sinp)
		z = p.Z + v*eccSq*sinp
	}
	var lat, lon float64
	if r2 > 1e-12 {
		lat = math.Atan(z / math.Sqrt(r2))
		lon = math.Atan2(p.Y, p.X)
	} else if p.Z > 0 {
		lat = math.Pi / 2
	} else {
		lat = -math.Pi / 2
	}
	return LLA{
		LatDeg: lat * 180 / math.Pi,
		LonDeg: lon * 180 / math.Pi,
		AltM:   math.Sqrt(r2+z*z) - v,
	}
}

// ToECEF converts geodetic coordinates to ECEF metres.
func (g LLA) ToECEF() ECEF {
	lat := g.LatDeg * math.Pi / 180
	lon := g.LonDeg * math.Pi / 180
	sinp, cosp := math.Sin(lat), math.Cos(lat)
	v := SemiMajor / math.Sqrt(1-eccSq*sinp*sinp)
	return ECEF{
		X: (v + g.AltM) * cosp * math.Cos(lon),
		Y: (v + g.AltM) * cosp * math.Sin(lon),
		Z: (v*(1-eccSq) + g.AltM) * sinp,
	}
}
