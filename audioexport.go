package polysynth

import (
	"encoding/binary"
	"math"
)

// AppendPCM16 interleaves the channels of f as 16-bit little-endian integers
// and appends them to dst. Samples outside [-1,1] are clipped.
func AppendPCM16(dst []byte, f Frame) []byte {
	for i := range f.Len() {
		for _, row := range f {
			var v int16
			if x := row[i]; x < -1 {
				v = -math.MaxInt16
			} else if x > 1 {
				v = math.MaxInt16
			} else {
				v = int16(x * math.MaxInt16)
			}
			dst = binary.LittleEndian.AppendUint16(dst, uint16(v))
		}
	}
	return dst
}

// AppendFloat32 interleaves the channels of f as 32-bit little-endian floats
// and appends them to dst.
func AppendFloat32(dst []byte, f Frame) []byte {
	for i := range f.Len() {
		for _, row := range f {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(row[i]))
		}
	}
	return dst
}
