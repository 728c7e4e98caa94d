package bitfield

import (
	"fmt"
	"math"
	"strings"
)

// Fixed describes a fixed-point field: engineering value = raw*Scale - Offset.
//
// Min and Max bound the engineering value when Min < Max. HasNull marks a raw
// value (usually the most negative or all-ones pattern) that means "absent".
// SignMag selects sign-magnitude instead of two's complement for signed
// fields.
type Fixed struct {
	Name    string
	Bits    int
	Signed  bool
	SignMag bool
	Scale   float64
	Offset  float64
	Min     float64
	Max     float64
	HasNull bool
	Null    int64
}

func (f Fixed) bounded() bool { return f.Min < f.Max }

// rawRange is the representable raw range with the null pattern excluded.
func (f Fixed) rawRange() (lo, hi int64) {
	if f.SignMag {
		hi = int64(1)<<uint(f.Bits-1) - 1
		return -hi, hi
	}
	if f.Signed {
		lo = -(int64(1) << uint(f.Bits-1))
		hi = int64(1)<<uint(f.Bits-1) - 1
	} else {
		lo = 0
		if f.Bits >= 63 {
			hi = math.MaxInt64
		} else {
			hi = int64(1)<<uint(f.Bits) - 1
		}
	}
	if f.HasNull {
		switch f.Null {
		case lo:
			lo++
		case hi:
			hi--
		}
	}
	return lo, hi
}

// Decode converts a raw value. ok is false for the null pattern; clamped is
// true when the value fell outside [Min, Max].
func (f Fixed) Decode(raw int64) (v float64, ok bool, clamped bool) {
	if f.HasNull && raw == f.Null {
		return 0, false, false
	}
	v = float64(raw)*f.Scale - f.Offset
	if f.bounded() {
		if v < f.Min {
			return f.Min, true, true
		}
		if v > f.Max {
			return f.Max, true, true
		}
	}
	return v, true, false
}

// Encode converts an engineering value to the nearest raw value, clamping to
// [Min, Max] and to the representable range.
func (f Fixed) Encode(v float64) (raw int64, clamped bool) {
	if f.bounded() {
		if v < f.Min {
			v, clamped = f.Min, true
		} else if v > f.Max {
			v, clamped = f.Max, true
		}
	}
	lo, hi := f.rawRange()
	r := math.Round((v + f.Offset) / f.Scale)
	if math.IsNaN(r) {
		if f.HasNull {
			return f.Null, true
		}
		return 0, true
	}
	if r < float64(lo) {
		return lo, true
	}
	if r > float64(hi) {
		return hi, true
	}
	return int64(r), clamped
}

// EncodeOpt encodes v, or the null pattern when v is nil.
func (f Fixed) EncodeOpt(v *float64) (raw int64, clamped bool) {
	if v == nil {
		if f.HasNull {
			return f.Null, false
		}
		return 0, false
	}
	return f.Encode(*v)
}

// Resolution is the engineering size of one raw step.
func (f Fixed) Resolution() float64 { return math.Abs(f.Scale) }

// Fixed reads a fixed-point field. The returned pointer is nil for the null
// pattern or after a read error. Clamped reads are counted, see Clamped.
func (r *Reader) Fixed(f Fixed) *float64 {
	var raw int64
	switch {
	case f.SignMag:
		raw = r.SignMag(f.Bits)
	case f.Signed:
		raw = r.Int64(f.Bits)
	default:
		raw = int64(r.Uint64(f.Bits))
	}
	if r.err != nil {
		return nil
	}
	v, ok, clamped := f.Decode(raw)
	if !ok {
		return nil
	}
	if clamped {
		r.clamped++
	}
	return &v
}

// Clamped returns how many Fixed reads fell outside their bounds.
func (r *Reader) Clamped() int { return r.clamped }

// ClampError lists fields whose values were clamped while encoding. The
// encoded bytes are still valid and may be sent.
type ClampError struct {
	Fields []string
}

func (e *ClampError) Error() string {
	return fmt.Sprintf("bitfield: clamped %s", strings.Join(e.Fields, ","))
}

// PutFixed writes an optional fixed-point value.
func (w *Writer) PutFixed(f Fixed, v *float64) {
	raw, clamped := f.EncodeOpt(v)
	if clamped {
		w.clamped = append(w.clamped, f.Name)
	}
	if f.SignMag {
		w.PutSignMag(f.Bits, raw)
		return
	}
	w.PutUint64(f.Bits, uint64(raw))
}

// PutFixedValue writes a present fixed-point value.
func (w *Writer) PutFixedValue(f Fixed, v float64) { w.PutFixed(f, &v) }

// Clamped returns a *ClampError when any PutFixed call clamped, else nil.
func (w *Writer) Clamped() error {
	if len(w.clamped) == 0 {
		return nil
	}
	return &ClampError{Fields: append([]string(nil), w.clamped...)}
}
