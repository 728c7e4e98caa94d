package bitfield

import (
	"errors"
	"math"
	"testing"
)

var ecefField = Fixed{Name: "x", Bits: 38, Signed: true, Scale: 0.0001}

func TestFixed_Precision(t *testing.T) {
	for _, v := range []float64{1114104.5999, -4850729.7108, 3975521.4643, 0.00004, -13743895.3472} {
		raw, clamped := ecefField.Encode(v)
		if clamped {
			t.Fatalf("Encode(%v) clamped", v)
		}
		got, ok, _ := ecefField.Decode(raw)
		if !ok {
			t.Fatalf("Decode(%d) absent", raw)
		}
		if math.Abs(got-v) > ecefField.Resolution()/2+1e-9 {
			t.Fatalf("got %.6f want %.6f", got, v)
		}
	}
}

func TestFixed_NullSentinel(t *testing.T) {
	f := Fixed{Name: "pr", Bits: 15, Signed: true, Scale: 1, HasNull: true, Null: -16384}
	if _, ok, _ := f.Decode(-16384); ok {
		t.Fatalf("expected absent for null pattern")
	}
	raw, clamped := f.Encode(-1e9)
	if !clamped || raw != -16383 {
		t.Fatalf("raw=%d clamped=%v want -16383 true", raw, clamped)
	}
	raw, _ = f.EncodeOpt(nil)
	if raw != -16384 {
		t.Fatalf("EncodeOpt(nil)=%d want -16384", raw)
	}

	u := Fixed{Name: "range", Bits: 8, Scale: 1, HasNull: true, Null: 255}
	raw, clamped = u.Encode(300)
	if !clamped || raw != 254 {
		t.Fatalf("raw=%d clamped=%v want 254 true", raw, clamped)
	}
}

func TestFixed_Bounds(t *testing.T) {
	f := Fixed{Name: "lat", Bits: 32, Signed: true, Scale: 1e-7, Min: -90, Max: 90}
	raw, clamped := f.Encode(91)
	if !clamped {
		t.Fatalf("expected clamp")
	}
	v, _, _ := f.Decode(raw)
	if v != 90 {
		t.Fatalf("v=%v want 90", v)
	}
	_, _, clamped = f.Decode(1000000000)
	if !clamped {
		t.Fatalf("expected decode clamp")
	}
}

func TestReader_CountsClampedReads(t *testing.T) {
	percent := Fixed{Name: "pct", Bits: 8, Scale: 1, Min: 0, Max: 100}
	r := NewReader([]byte{200, 50, 101}, 0)
	if v := r.Fixed(percent); v == nil || *v != 100 {
		t.Fatalf("first=%v want 100", v)
	}
	if v := r.Fixed(percent); v == nil || *v != 50 {
		t.Fatalf("second=%v want 50", v)
	}
	if got := r.Clamped(); got != 1 {
		t.Fatalf("Clamped()=%d want 1", got)
	}
	r.Fixed(percent)
	if got := r.Clamped(); got != 2 {
		t.Fatalf("Clamped()=%d want 2", got)
	}
}

func TestWriter_ReportsClamp(t *testing.T) {
	w := NewWriter(4)
	w.PutFixedValue(Fixed{Name: "cnr", Bits: 6, Scale: 1}, 80)
	var ce *ClampError
	if err := w.Clamped(); !errors.As(err, &ce) {
		t.Fatalf("expected ClampError, got %v", err)
	}
	if len(ce.Fields) != 1 || ce.Fields[0] != "cnr" {
		t.Fatalf("fields=%v", ce.Fields)
	}
	r := NewReader(w.Bytes(), 0)
	if v := r.Uint(6); v != 63 {
		t.Fatalf("clamped raw=%d want 63", v)
	}
}

func TestFixed_SignMagnitude(t *testing.T) {
	f := Fixed{Name: "vel", Bits: 24, Signed: true, SignMag: true, Scale: 1.0 / (1 << 20)}
	w := NewWriter(3)
	w.PutFixedValue(f, -1.25)
	if w.Err() != nil || w.Clamped() != nil {
		t.Fatalf("writer err=%v clamped=%v", w.Err(), w.Clamped())
	}
	if w.Bytes()[0]&0x80 == 0 {
		t.Fatalf("sign bit not set: % X", w.Bytes())
	}
	got := NewReader(w.Bytes(), 0).Fixed(f)
	if got == nil || *got != -1.25 {
		t.Fatalf("got %v want -1.25", got)
	}
	raw, clamped := f.Encode(-100)
	if !clamped || raw != -(1<<23-1) {
		t.Fatalf("raw=%d clamped=%v", raw, clamped)
	}
}
