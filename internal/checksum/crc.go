// Package checksum implements the integrity checks used by the supported
// GNSS wire protocols.
package checksum

import "hash/crc32"

// CRC16CCITT is CRC-16 with polynomial 0x1021, zero initial value and no final
// xor (the XMODEM parameterisation), used by SBF blocks and link frames.
func CRC16CCITT(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc<<8 ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}

var crc16Table = func() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}()

// CRC24Q is the Qualcomm CRC-24 (polynomial 0x1864CFB) protecting RTCM v3
// frames. The result occupies the low 24 bits.
func CRC24Q(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = (crc<<8)&0xFFFFFF ^ crc24Table[byte(crc>>16)^b]
	}
	return crc
}

var crc24Table = func() [256]uint32 {
	var table [256]uint32
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 16
		for bit := 0; bit < 8; bit++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= 0x1864CFB
			}
		}
		table[i] = crc & 0xFFFFFF
	}
	return table
}()

// CRC32 is the reflected CRC-32 (polynomial 0xEDB88320) used by the vendor
// binary format. It starts from zero and applies no final xor; crc32.Update
// inverts on entry and exit, so both inversions are undone here.
func CRC32(data []byte) uint32 {
	return ^crc32.Update(^uint32(0), crc32.IEEETable, data)
}

// Fletcher8 is the u-blox 8-bit Fletcher checksum over class, id, length and
// payload.
func Fletcher8(data []byte) (a, b byte) {
	for _, c := range data {
		a += c
		b += a
	}
	return a, b
}
