package codec

import (
	"fmt"
	"strings"
)

// ByteOrder selects how multi-byte scalars are laid out.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little_endian"
	}
	return "big_endian"
}

// ParseByteOrder accepts "big", "big_endian", "be", "little",
// "little_endian" and "le" in any case. The empty string is big endian.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "big_endian", "bigendian", "be":
		return BigEndian, nil
	case "little", "little_endian", "littleendian", "le":
		return LittleEndian, nil
	default:
		return BigEndian, fmt.Errorf("codec: unknown byte order %q", s)
	}
}

// putUint writes the low-order len(b) bytes of v.
func putUint(b []byte, order ByteOrder, v uint64) {
	if order == LittleEndian {
		for i := range b {
			b[i] = byte(v)
			v >>= 8
		}
		return
	}
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// getUint reads len(b) bytes, at most 8, as an unsigned integer.
func getUint(b []byte, order ByteOrder) uint64 {
	var v uint64
	if order == LittleEndian {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// signExtend treats the low width bytes of v as a two's complement number.
func signExtend(v uint64, width int) uint64 {
	if width >= 8 {
		return v
	}
	shift := uint(64 - 8*width)
	return uint64(int64(v<<shift) >> shift)
}
