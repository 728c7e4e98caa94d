package bitfield

import "fmt"

// Reader walks a buffer field by field. The first failure is sticky: later
// calls return zero values and Err reports the original error.
type Reader struct {
	buf     []byte
	pos     int
	err     error
	clamped int
}

// NewReader starts reading buf at bit pos.
func NewReader(buf []byte, pos int) *Reader {
	return &Reader{buf: buf, pos: pos}
}

// Pos is the next bit to read.
func (r *Reader) Pos() int { return r.pos }

// Err is the first read failure, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the unread bit count.
func (r *Reader) Remaining() int { return len(r.buf)*8 - r.pos }

// Skip advances over n bits.
func (r *Reader) Skip(n int) {
	if r.err != nil {
		return
	}
	if n < 0 || r.pos+n > len(r.buf)*8 {
		r.err = fmt.Errorf("%w: skip %d at %d", ErrOutOfRange, n, r.pos)
		return
	}
	r.pos += n
}

// Uint64 reads an unsigned field of n bits, n in [1,64].
func (r *Reader) Uint64(n int) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := Uint64(r.buf, r.pos, n)
	if err != nil {
		r.err = err
		return 0
	}
	r.pos += n
	return v
}

// Uint reads an unsigned field of n bits, n in [1,32].
func (r *Reader) Uint(n int) uint32 {
	if r.err == nil && n > 32 {
		r.err = fmt.Errorf("%w: width %d", ErrOutOfRange, n)
	}
	return uint32(r.Uint64(n))
}

// Int64 reads a two's complement field of n bits.
func (r *Reader) Int64(n int) int64 {
	v := r.Uint64(n)
	if r.err != nil {
		return 0
	}
	return signExtend(v, n)
}

// Int reads a two's complement field of at most 32 bits.
func (r *Reader) Int(n int) int32 {
	if r.err == nil && n > 32 {
		r.err = fmt.Errorf("%w: width %d", ErrOutOfRange, n)
	}
	return int32(r.Int64(n))
}

// SignMag reads a sign-magnitude field of n bits.
func (r *Reader) SignMag(n int) int64 {
	if r.err != nil {
		return 0
	}
	v, err := SignMag(r.buf, r.pos, n)
	if err != nil {
		r.err = err
		return 0
	}
	r.pos += n
	return v
}

// Bool reads one bit.
func (r *Reader) Bool() bool { return r.Uint64(1) == 1 }

// Bytes reads n whole bytes (8n bits) into a new slice.
func (r *Reader) Bytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.Uint64(8))
	}
	if r.err != nil {
		return nil
	}
	return out
}

// Finish reports an error when the cursor did not stop inside the final
// padding byte of a field list whose declared size is totalBits.
func (r *Reader) Finish(totalBits int) error {
	if r.err != nil {
		return r.err
	}
	if r.pos > totalBits || totalBits-r.pos >= 8 {
		return fmt.Errorf("bitfield: consumed %d bits of %d", r.pos, totalBits)
	}
	return nil
}

// Writer appends fields to a growing buffer.
type Writer struct {
	buf     []byte
	pos     int
	err     error
	clamped []string
}

// NewWriter returns an empty Writer with room for capBytes.
func NewWriter(capBytes int) *Writer {
	return &Writer{buf: make([]byte, 0, capBytes)}
}

// Pos is the number of bits written.
func (w *Writer) Pos() int { return w.pos }

// Err is the first write failure, if any. Later writes are ignored.
func (w *Writer) Err() error { return w.err }

func (w *Writer) grow(n int) {
	need := (w.pos + n + 7) / 8
	for len(w.buf) < need {
		w.buf = append(w.buf, 0)
	}
}

// PutUint64 appends the low n bits of v, n in [1,64].
func (w *Writer) PutUint64(n int, v uint64) {
	if w.err != nil {
		return
	}
	if n < 1 || n > 64 {
		w.err = fmt.Errorf("%w: width %d", ErrOutOfRange, n)
		return
	}
	w.grow(n)
	if err := PutUint64(w.buf, w.pos, n, v); err != nil {
		w.err = err
		return
	}
	w.pos += n
}

// PutUint appends the low n bits of v.
func (w *Writer) PutUint(n int, v uint32) { w.PutUint64(n, uint64(v)) }

// PutInt64 appends v as an n-bit two's complement field.
func (w *Writer) PutInt64(n int, v int64) { w.PutUint64(n, uint64(v)) }

// PutInt appends v as an n-bit two's complement field.
func (w *Writer) PutInt(n int, v int32) { w.PutUint64(n, uint64(int64(v))) }

// PutSignMag appends v as an n-bit sign-magnitude field.
func (w *Writer) PutSignMag(n int, v int64) {
	if w.err != nil {
		return
	}
	w.grow(n)
	if err := PutSignMag(w.buf, w.pos, n, v); err != nil {
		w.err = err
		return
	}
	w.pos += n
}

// PutBool appends one bit.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint64(1, 1)
		return
	}
	w.PutUint64(1, 0)
}

// PutBytes appends whole bytes.
func (w *Writer) PutBytes(b []byte) {
	for _, c := range b {
		w.PutUint64(8, uint64(c))
	}
}

// Bytes returns the written bits padded with zeros to a whole byte.
func (w *Writer) Bytes() []byte { return w.buf }
