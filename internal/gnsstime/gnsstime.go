// Package gnsstime resolves the truncated week and time-of-week fields that
// GNSS messages carry.
package gnsstime

import "time"

var (
	GPSEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)
	BDTEpoch = time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)
)

const (
	Week = 7 * 24 * time.Hour

	// GPSUTCLeap is GPS minus UTC since 2017-01-01.
	GPSUTCLeap = 18 * time.Second
	// BDTOffset is GPS time minus BeiDou time.
	BDTOffset = 14 * time.Second

	rollover = 1024
)

// GPSWeek returns the GPS week number and seconds of week for a GPS-scale
// time.
func GPSWeek(t time.Time) (week int, tow float64) {
	d := t.Sub(GPSEpoch)
	week = int(d / Week)
	tow = (d - time.Duration(week)*Week).Seconds()
	return week, tow
}

// GPSTime returns the instant for a full week number and seconds of week.
func GPSTime(week int, tow float64) time.Time {
	return GPSEpoch.Add(time.Duration(week)*Week + time.Duration(tow*float64(time.Second)))
}

// ResolveWeek expands a 10-bit week number to the full week nearest to ref,
// choosing within +/-512 weeks.
func ResolveWeek(week10 int, ref time.Time) int {
	refWeek, _ := GPSWeek(ref.Add(GPSUTCLeap))
	return resolve(week10, refWeek, rollover)
}

// ResolveWeekMod is ResolveWeek for an arbitrary rollover modulus (e.g. 8192
// for 13-bit weeks).
func ResolveWeekMod(week, modulus int, ref time.Time) int {
	refWeek, _ := GPSWeek(ref.Add(GPSUTCLeap))
	return resolve(week, refWeek, modulus)
}

func resolve(week, refWeek, modulus int) int {
	n := refWeek - week + modulus/2
	if n < 0 {
		return week
	}
	return week + n/modulus*modulus
}

// ResolveTOW places a GPS time of week (seconds) in the week nearest to ref
// and returns it as UTC.
func ResolveTOW(tow float64, ref time.Time) time.Time {
	gpsRef := ref.Add(GPSUTCLeap)
	week, refTOW := GPSWeek(gpsRef)
	switch {
	case tow < refTOW-302400:
		week++
	case tow > refTOW+302400:
		week--
	}
	return GPSTime(week, tow).Add(-GPSUTCLeap)
}

// ResolveBDTTOW is ResolveTOW for a BeiDou time of week.
func ResolveBDTTOW(tow float64, ref time.Time) time.Time {
	return ResolveTOW(tow+BDTOffset.Seconds(), ref)
}

// ResolveGLONASS converts a GLONASS time of day (Moscow time, seconds) to UTC
// on the day nearest to ref.
func ResolveGLONASS(tod float64, ref time.Time) time.Time {
	msk := ref.UTC().Add(3 * time.Hour)
	day := time.Date(msk.Year(), msk.Month(), msk.Day(), 0, 0, 0, 0, time.UTC)
	refTOD := msk.Sub(day).Seconds()
	switch {
	case tod < refTOD-43200:
		day = day.Add(24 * time.Hour)
	case tod > refTOD+43200:
		day = day.Add(-24 * time.Hour)
	}
	return day.Add(time.Duration(tod*float64(time.Second))).Add(-3 * time.Hour)
}
