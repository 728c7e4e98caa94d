package status

import (
	"math"
	"time"

	"gnssrx/internal/geo"
	"gnssrx/internal/gnss"
	"gnssrx/internal/nmea"
	"gnssrx/internal/oem"
	"gnssrx/internal/rtcm3"
	"gnssrx/internal/sbf"
	"gnssrx/internal/ubx"
)

// applyLocked folds position-bearing messages into the fix, survey and base
// summaries. Every receiver family reports the same facts differently.
func (s *Store) applyLocked(now time.Time, m gnss.Message) {
	switch v := m.(type) {
	case *ubx.NavPVT:
		acc := v.HAccM()
		n := int(v.NumSV)
		f := &Fix{
			Source:    "ubx NAV-PVT",
			Valid:     v.GNSSFixOK() && v.FixType >= 2,
			Position:  geo.LLA{LatDeg: v.LatDeg(), LonDeg: v.LonDeg(), AltM: v.HeightM()},
			AccuracyM: &acc,
			NumSV:     &n,
			At:        now,
		}
		if t, ok := v.UTC(); ok {
			f.UTC = &t
		}
		s.fix = f

	case *ubx.NavSVIN:
		s.survey = &Survey{
			Active:    v.IsActive(),
			Valid:     v.IsValid(),
			Duration:  v.Duration(),
			AccuracyM: v.AccuracyM(),
			Mean:      v.Mean(),
			At:        now,
		}

	case *nmea.GGA:
		if v.Lat == nil || v.Lon == nil {
			return
		}
		f := &Fix{
			Source:   "nmea " + v.Talker + "GGA",
			Valid:    v.Quality != nil && *v.Quality != nmea.QualityInvalid,
			Position: geo.LLA{LatDeg: *v.Lat, LonDeg: *v.Lon},
			NumSV:    v.NumSV,
			At:       now,
		}
		if v.AltitudeM != nil {
			f.Position.AltM = *v.AltitudeM
			if v.GeoidSepM != nil {
				f.Position.AltM += *v.GeoidSepM
			}
		}
		s.fix = f

	case *sbf.PVTGeodetic:
		lla, ok := v.LLA()
		if !ok {
			return
		}
		f := &Fix{Source: "sbf PVTGeodetic", Valid: v.HasFix(), Position: lla, At: now}
		if acc, ok := v.HAccuracyM(); ok {
			f.AccuracyM = &acc
		}
		if v.NrSV != nil {
			n := int(*v.NrSV)
			f.NumSV = &n
		}
		s.fix = f

	case *oem.BestPos:
		n := int(v.NumSolnSVs)
		f := &Fix{Source: "oem BESTPOS", Valid: v.Valid(), Position: v.LLA(), NumSV: &n, At: now}
		if acc := math.Hypot(float64(v.LatSigma), float64(v.LonSigma)); acc > 0 && !math.IsInf(acc, 0) {
			f.AccuracyM = &acc
		}
		s.fix = f

	case *rtcm3.StationARP:
		s.base = &Base{StationID: v.StationID, ECEF: v.ECEF, Position: v.Position, At: now}
	}
}
