package cairo

import (
	"encoding/binary"
	"fmt"
)

// Compact integers use the VM's short encoding: a single byte below 251,
// otherwise a tag byte followed by a little-endian u16 (tag 251) or u32
// (tag 252 and above).
const (
	compactU16Tag = 251
	compactU32Tag = 252
)

// EncodeCompactInt returns the shortest encoding of v.
func EncodeCompactInt(v uint32) []byte {
	switch {
	case v < compactU16Tag:
		return []byte{byte(v)}
	case v <= 0xffff:
		out := []byte{compactU16Tag, 0, 0}
		binary.LittleEndian.PutUint16(out[1:], uint16(v))
		return out
	default:
		out := []byte{compactU32Tag, 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(out[1:], v)
		return out
	}
}

// DecodeCompactInt reads a compact integer at off and returns it with the
// offset just past it.
func DecodeCompactInt(b []byte, off int) (uint32, int, error) {
	if off < 0 || off >= len(b) {
		return 0, off, fmt.Errorf("%w: compact integer tag at %d", ErrProofTruncated, off)
	}
	tag := b[off]
	off++
	switch {
	case tag < compactU16Tag:
		return uint32(tag), off, nil
	case tag == compactU16Tag:
		if off+2 > len(b) {
			return 0, off, fmt.Errorf("%w: u16 compact integer at %d", ErrProofTruncated, off)
		}
		return uint32(binary.LittleEndian.Uint16(b[off:])), off + 2, nil
	default:
		if off+4 > len(b) {
			return 0, off, fmt.Errorf("%w: u32 compact integer at %d", ErrProofTruncated, off)
		}
		return binary.LittleEndian.Uint32(b[off:]), off + 4, nil
	}
}
