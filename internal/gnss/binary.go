package gnss

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ReadLE fills v, a pointer to a fixed-size struct, from a little-endian
// payload of exactly its size.
func ReadLE(payload []byte, v any) error {
	if n := binary.Size(v); n != len(payload) {
		return fmt.Errorf("payload length %d, want %d", len(payload), n)
	}
	return binary.Read(bytes.NewReader(payload), binary.LittleEndian, v)
}

// AppendLE appends the little-endian encoding of a fixed-size value.
func AppendLE(dst []byte, v any) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CString returns b up to the first NUL.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// PutCString copies s into a NUL-padded field of fixed width.
func PutCString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("string %q longer than %d", s, len(dst))
	}
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
