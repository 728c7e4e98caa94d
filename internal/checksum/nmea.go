package checksum

// NMEA returns the XOR of every byte between the start character and '*'.
func NMEA(data []byte) byte {
	var ck byte
	for _, c := range data {
		ck ^= c
	}
	return ck
}

// HexNibble decodes one upper or lower case hex digit.
func HexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

const hexDigits = "0123456789ABCDEF"

// AppendHex appends b as two upper case hex digits.
func AppendHex(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
}
