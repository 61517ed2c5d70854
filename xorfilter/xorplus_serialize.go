package xorfilter

import (
	"encoding/binary"

	"github.com/tidesign/sieve"
)

// xorPlusHeaderSize is the fixed-size portion of the wire format: seed,
// third, m, and the value-array length.
const xorPlusHeaderSize = 8 + 4 + 4 + 4

// SerializedSize returns the exact number of bytes Serialize will produce.
func (f *XorPlus8) SerializedSize() int {
	words := (int(f.m) + 63) / 64
	return xorPlusHeaderSize + words*8 + len(f.values)
}

// Serialize encodes f into a fixed big-endian layout:
//
//	[seed:u64][third:u32][m:u32][numValues:u32]
//	[bitmap: u64 × ceil(m/64)][values: u8 × numValues]
//
// Unlike BinaryFuse16's wire format (spec.md §4.J), this layout is not
// named by the spec itself; it exists only to give cmd/build-filter-file's
// segmented file format (spec.md §6) a concrete byte representation per
// segment.
func (f *XorPlus8) Serialize() []byte {
	words := f.present.Bits()
	buf := make([]byte, f.SerializedSize())

	binary.BigEndian.PutUint64(buf[0:8], f.seed)
	binary.BigEndian.PutUint32(buf[8:12], f.third)
	binary.BigEndian.PutUint32(buf[12:16], f.m)
	binary.BigEndian.PutUint32(buf[16:20], uint32(len(f.values)))

	off := xorPlusHeaderSize
	for i := 0; i < (int(f.m)+63)/64; i++ {
		var w uint64
		if i < len(words) {
			w = words[i]
		}
		binary.BigEndian.PutUint64(buf[off:off+8], w)
		off += 8
	}
	copy(buf[off:], f.values)
	return buf
}

// DeserializeXorPlus8 parses an XorPlus8 previously produced by Serialize.
func DeserializeXorPlus8(buf []byte) (*XorPlus8, error) {
	if len(buf) < xorPlusHeaderSize {
		return nil, sieve.ErrBufferTooSmall
	}

	seed := binary.BigEndian.Uint64(buf[0:8])
	third := binary.BigEndian.Uint32(buf[8:12])
	m := binary.BigEndian.Uint32(buf[12:16])
	numValues := binary.BigEndian.Uint32(buf[16:20])

	numWords := (int(m) + 63) / 64
	want := xorPlusHeaderSize + numWords*8 + int(numValues)
	if len(buf) < want {
		return nil, sieve.ErrBufferTooSmall
	}

	off := xorPlusHeaderSize
	words := make([]uint64, numWords)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(buf[off : off+8])
		off += 8
	}
	values := make([]uint8, numValues)
	copy(values, buf[off:off+int(numValues)])

	return compressFromParts(seed, third, m, words, values), nil
}
