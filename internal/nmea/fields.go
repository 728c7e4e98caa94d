package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// fieldReader reads optional fields by index. An empty or missing field is
// absent; the first malformed field is kept as the error.
type fieldReader struct {
	f   []string
	err error
}

func (r *fieldReader) Len() int { return len(r.f) }

func (r *fieldReader) str(i int) string {
	if i >= len(r.f) {
		return ""
	}
	return strings.TrimSpace(r.f[i])
}

func (r *fieldReader) fail(i int, what string) {
	if r.err == nil {
		r.err = fmt.Errorf("nmea: field %d: bad %s %q", i, what, r.str(i))
	}
}

func (r *fieldReader) float(i int) *float64 {
	s := r.str(i)
	if s == "" {
		return nil
	}
	v, ok := parseFloat(s)
	if !ok {
		r.fail(i, "number")
		return nil
	}
	return &v
}

func (r *fieldReader) int(i int) *int {
	s := r.str(i)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		r.fail(i, "integer")
		return nil
	}
	return &v
}

// latlon reads a ddmm.mmmm value at i and its hemisphere at i+1.
func (r *fieldReader) latlon(i int) *float64 {
	if r.str(i) == "" && r.str(i+1) == "" {
		return nil
	}
	v, ok := parseNMEALatLon(r.str(i), r.str(i+1))
	if !ok {
		r.fail(i, "coordinate")
		return nil
	}
	return &v
}

// timeOfDay reads hhmmss[.sss] as the offset from midnight.
func (r *fieldReader) timeOfDay(i int) *time.Duration {
	s := r.str(i)
	if s == "" {
		return nil
	}
	if len(s) < 6 {
		r.fail(i, "time")
		return nil
	}
	h, err1 := strconv.Atoi(s[0:2])
	m, err2 := strconv.Atoi(s[2:4])
	sec, ok := parseFloat(s[4:])
	if err1 != nil || err2 != nil || !ok || h > 23 || m > 59 || sec >= 61 {
		r.fail(i, "time")
		return nil
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(math.Round(sec*1000))*time.Millisecond
	return &d
}

// date reads ddmmyy. Two digit years below 80 are in the 2000s.
func (r *fieldReader) date(i int) *time.Time {
	s := r.str(i)
	if s == "" {
		return nil
	}
	t, err := time.Parse("020106", s)
	if err != nil || len(s) != 6 {
		r.fail(i, "date")
		return nil
	}
	if t.Year() < 1980 {
		t = t.AddDate(100, 0, 0)
	}
	return &t
}

// hemi reads a signed magnitude with a direction letter; neg names the
// letter that makes it negative.
func (r *fieldReader) hemi(i int, neg string) *float64 {
	v := r.float(i)
	if v != nil && strings.EqualFold(r.str(i+1), neg) {
		*v = -*v
	}
	return v
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseNMEALatLon parses NMEA lat/lon in ddmm.mmmm or dddmm.mmmm plus hemisphere.
func parseNMEALatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// The last two digits of the integer part are minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil || mins >= 60 {
		return 0, false
	}

	dec := float64(deg) + (mins / 60.0)
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtFixed(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func fmtInt(v *int, width int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%0*d", width, *v)
}

// fmtLatLon formats degrees as ddmm.mmmmm (degDigits 2) or dddmm.mmmmm
// (degDigits 3) with hemisphere letters pos and neg.
func fmtLatLon(v *float64, degDigits int, pos, neg string) (string, string) {
	if v == nil {
		return "", ""
	}
	h := pos
	a := *v
	if a < 0 {
		h, a = neg, -a
	}
	const steps = 100000 // per minute
	total := int64(math.Round(a * 60 * steps))
	deg := total / (60 * steps)
	rem := total % (60 * steps)
	return fmt.Sprintf("%0*d%02d.%05d", degDigits, deg, rem/steps, rem%steps), h
}

func fmtTimeOfDay(d *time.Duration) string {
	if d == nil {
		return ""
	}
	cs := int64(math.Round(float64(*d) / float64(10*time.Millisecond)))
	return fmt.Sprintf("%02d%02d%02d.%02d", cs/360000, cs/6000%60, cs/100%60, cs%100)
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("020106")
}

// fmtHemi formats a signed magnitude with direction letters.
func fmtHemi(v *float64, pos, neg string) (string, string) {
	if v == nil {
		return "", ""
	}
	if *v < 0 {
		a := -*v
		return fmtFloat(&a), neg
	}
	return fmtFloat(v), pos
}
