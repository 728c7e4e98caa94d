package checksum

// RTCM v2 words are 30 bits on the wire. Decoding works on a 32-bit register
// laid out as D29* D30* d1..d24 D25..D30, where D29*/D30* are the last two
// parity bits of the previous word.

var hamming = [6]uint32{
	0xBB1F3480, 0x5D8F9A40, 0xAEC7CD00, 0x5763E680, 0x6BB1F340, 0x8B7A89C0,
}

// Preamble is the first eight data bits of every RTCM v2 message.
const Preamble = 0x66

func parity(word uint32) uint32 {
	var p uint32
	for _, h := range hamming {
		p <<= 1
		for w := (word & h) >> 6; w != 0; w >>= 1 {
			p ^= w & 1
		}
	}
	return p
}

// DecodeWord checks the parity of a received word and returns its 24 data
// bits, undoing the D30* inversion.
func DecodeWord(word uint32) (data [3]byte, ok bool) {
	if word&0x40000000 != 0 {
		word ^= 0x3FFFFFC0
	}
	if parity(word) != word&0x3F {
		return data, false
	}
	for i := 0; i < 3; i++ {
		data[i] = byte(word >> (22 - uint(i)*8))
	}
	return data, true
}

// EncodeWord builds the 30 transmitted bits for 24 data bits given the
// previously transmitted word (only its two low bits are used).
func EncodeWord(prev uint32, data uint32) uint32 {
	w := (prev&3)<<30 | (data&0xFFFFFF)<<6
	w |= parity(w)
	if w&0x40000000 != 0 {
		w ^= 0x3FFFFFC0
	}
	return w & 0x3FFFFFFF
}

// PreambleAt reports whether a sliding register holds the preamble in its
// first eight data bits, accounting for D30* inversion.
func PreambleAt(word uint32) bool {
	p := byte(word >> 22)
	if word&0x40000000 != 0 {
		p ^= 0xFF
	}
	return p == Preamble
}

// Pack6of8 spreads a 30-bit word over five bytes carrying six bits each,
// first bit in the least significant position, top bits set to 01.
func Pack6of8(dst []byte, w uint32) []byte {
	for k := 0; k < 5; k++ {
		b := byte(0x40)
		for j := 0; j < 6; j++ {
			b |= byte(w>>uint(29-6*k-j)&1) << uint(j)
		}
		dst = append(dst, b)
	}
	return dst
}

// Is6of8 reports whether b is a valid 6-of-8 transport byte.
func Is6of8(b byte) bool { return b&0xC0 == 0x40 }
