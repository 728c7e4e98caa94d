// Package bitfield reads and writes MSB-first bit fields at arbitrary bit
// offsets, the layout shared by RTCM and most GNSS binary formats.
package bitfield

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a field does not fit inside the buffer or
// the requested width is unsupported.
var ErrOutOfRange = errors.New("bitfield: out of range")

func check(buf []byte, pos, n, max int) error {
	if n < 1 || n > max {
		return fmt.Errorf("%w: width %d", ErrOutOfRange, n)
	}
	if pos < 0 || pos+n > len(buf)*8 {
		return fmt.Errorf("%w: bits [%d,%d) of %d", ErrOutOfRange, pos, pos+n, len(buf)*8)
	}
	return nil
}

// Uint64 returns the n-bit unsigned field starting at bit pos (1 <= n <= 64).
func Uint64(buf []byte, pos, n int) (uint64, error) {
	if err := check(buf, pos, n, 64); err != nil {
		return 0, err
	}
	var v uint64
	for i := pos; i < pos+n; i++ {
		v = v<<1 | uint64(buf[i>>3]>>(7-uint(i&7))&1)
	}
	return v, nil
}

// Uint returns the n-bit unsigned field starting at bit pos (1 <= n <= 32).
func Uint(buf []byte, pos, n int) (uint32, error) {
	if err := check(buf, pos, n, 32); err != nil {
		return 0, err
	}
	v, err := Uint64(buf, pos, n)
	return uint32(v), err
}

// Int64 returns the n-bit two's complement field starting at bit pos.
func Int64(buf []byte, pos, n int) (int64, error) {
	v, err := Uint64(buf, pos, n)
	if err != nil {
		return 0, err
	}
	return signExtend(v, n), nil
}

// Int returns the n-bit two's complement field starting at bit pos (n <= 32).
func Int(buf []byte, pos, n int) (int32, error) {
	if err := check(buf, pos, n, 32); err != nil {
		return 0, err
	}
	v, err := Int64(buf, pos, n)
	return int32(v), err
}

// SignMag returns the n-bit sign-magnitude field starting at bit pos. The
// first bit is the sign, the remaining n-1 bits the magnitude.
func SignMag(buf []byte, pos, n int) (int64, error) {
	if err := check(buf, pos, n, 64); err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: sign-magnitude width %d", ErrOutOfRange, n)
	}
	mag, err := Uint64(buf, pos+1, n-1)
	if err != nil {
		return 0, err
	}
	if buf[pos>>3]>>(7-uint(pos&7))&1 == 1 {
		return -int64(mag), nil
	}
	return int64(mag), nil
}

// PutUint64 writes the low n bits of v at bit pos. Bits outside the field are
// left untouched.
func PutUint64(buf []byte, pos, n int, v uint64) error {
	if err := check(buf, pos, n, 64); err != nil {
		return err
	}
	for i := pos + n - 1; i >= pos; i-- {
		mask := byte(1) << (7 - uint(i&7))
		if v&1 == 1 {
			buf[i>>3] |= mask
		} else {
			buf[i>>3] &^= mask
		}
		v >>= 1
	}
	return nil
}

// PutUint writes the low n bits of v at bit pos (n <= 32).
func PutUint(buf []byte, pos, n int, v uint32) error {
	if err := check(buf, pos, n, 32); err != nil {
		return err
	}
	return PutUint64(buf, pos, n, uint64(v))
}

// PutInt64 writes v as an n-bit two's complement field.
func PutInt64(buf []byte, pos, n int, v int64) error {
	return PutUint64(buf, pos, n, uint64(v))
}

// PutInt writes v as an n-bit two's complement field (n <= 32).
func PutInt(buf []byte, pos, n int, v int32) error {
	if err := check(buf, pos, n, 32); err != nil {
		return err
	}
	return PutUint64(buf, pos, n, uint64(int64(v)))
}

// PutSignMag writes v as an n-bit sign-magnitude field.
func PutSignMag(buf []byte, pos, n int, v int64) error {
	if err := check(buf, pos, n, 64); err != nil {
		return err
	}
	if n < 2 {
		return fmt.Errorf("%w: sign-magnitude width %d", ErrOutOfRange, n)
	}
	var sign uint64
	if v < 0 {
		sign = 1
		v = -v
	}
	if err := PutUint64(buf, pos, 1, sign); err != nil {
		return err
	}
	return PutUint64(buf, pos+1, n-1, uint64(v))
}

func signExtend(v uint64, n int) int64 {
	if n >= 64 {
		return int64(v)
	}
	shift := uint(64 - n)
	return int64(v<<shift) >> shift
}
